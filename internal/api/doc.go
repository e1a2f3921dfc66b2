// Package api exposes the background-processing subsystem over HTTP: index
// search, view recording, job submission, and task-status polling.
package api
