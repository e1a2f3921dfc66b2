// Package memory wires the Go heap limit to container memory limits.
//
// Image transforms and remux jobs can spike allocations; without a
// GOMEMLIMIT the runtime happily grows past a container's cgroup limit and
// gets OOM-killed. ConfigureFromEnv derives GOMEMLIMIT from the limit the
// orchestrator advertises, reserving headroom for non-Go memory.
package memory
