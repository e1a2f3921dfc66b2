// Package watcher feeds live filesystem changes into the search index.
//
// It keeps a recursive fsnotify watch over the media root, coalesces event
// storms with a debounce window, and hands ordered change batches to the
// synchronizer. Reserved directories and non-media files are filtered out
// before they reach the index.
package watcher
