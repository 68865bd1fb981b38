// Package postgres provides the PostgreSQL implementation of the task storage
// interface defined in the internal/store package, together with the schema
// migrations it depends on. It handles query execution, row locking, and the
// mapping of PostgreSQL error codes onto store errors.
package postgres
