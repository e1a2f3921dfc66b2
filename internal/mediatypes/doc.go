// Package mediatypes defines the catalog item classification shared by the
// walker, synchronizer, and job workers.
//
// Classification is extension-driven:
//   - Photos: jpg, jpeg, png, gif, bmp, webp, tiff, heic, heif
//   - Videos: mp4, mkv, avi, mov, wmv, flv, webm, m4v, mpeg, mpg, 3gp, ts
//   - Albums: directories
//
// Reserved system directories (the Synology @eaDir metadata folder and any
// dot-prefixed directory) are excluded from traversal.
package mediatypes
