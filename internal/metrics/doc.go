// Package metrics defines the Prometheus instrumentation for the gallery
// background-processing subsystem: index store queries and transactions,
// synchronizer runs, job worker outcomes, and cache behavior.
//
// All collectors are registered with the default registry via promauto and
// exposed by the metrics listener started in main.
package metrics
