// Package walker provides lazy depth-first traversal of the media root,
// yielding album, photo, and video entries with parent-before-child
// ordering. The synchronizer consumes it to drive full index rebuilds.
package walker
