// Package kvstore abstracts the shared key/value store backing two
// process-wide concerns: the invalidation bus holding cached API response
// bodies under path-prefixed keys, and the failure registry holding
// TTL-bounded permanent-failure markers for job subjects.
//
// The production backend is redis; an in-memory implementation backs tests.
// Core logic depends only on the Store interface so it is testable without
// a live broker.
package kvstore
