// Package workers sizes worker pools for containerized deployments.
//
// Caption uploads and video remuxes run in pools whose size should track the
// container's CPU limit, not the host's core count. The helpers here derive
// pool sizes from GOMAXPROCS with per-workload multipliers, with a
// JOB_WORKERS environment override for operators.
package workers
