// Package syncer orchestrates index maintenance: full rebuilds that walk
// the media tree inside one transaction, and incremental application of
// filesystem change-event batches. Items and their full-text shadow rows
// are always written and deleted together, so the two tables never drift.
//
// The two entry points are serialized on the same store; a failed rebuild
// or apply rolls back completely and is reported upward — the syncer never
// retries on its own.
package syncer
