// Package storage persists alerts and tasks in a single SQLite database.
// Schema setup runs on open from an embedded migration script.
package storage
