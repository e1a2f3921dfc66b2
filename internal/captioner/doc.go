// Package captioner generates text descriptions of gallery images by
// submitting them to an OpenAI-compatible vision endpoint.
//
// Images are downscaled and re-encoded as JPEG before upload, with the
// compressed form held in the shared transform cache so a retried job does
// not repeat the work. Transient endpoint failures are retried with a
// growing delay; authentication and rate-limit responses fail immediately.
package captioner
