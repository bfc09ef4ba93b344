// Package queue persists the video work queue in SQLite and exposes the
// CRUD surface the pipeline and CLI commands build on.
package queue
