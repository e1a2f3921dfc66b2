// Package videoopt remuxes MP4 files for progressive playback.
//
// An MP4 written by most recorders puts the moov index atom after the media
// data, forcing a full download before playback can begin. The optimizer
// probes the container header, and when the index trails the data it remuxes
// the file with ffmpeg (stream copy, no re-encode) and swaps the result in
// atomically. Files that keep failing are marked in the shared failure
// registry so the queue stops resubmitting them.
package videoopt
