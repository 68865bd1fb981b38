// Package srs implements the reminder interval policy. Each confirmed answer grows the
// interval geometrically from a base value until the task reaches the learned
// threshold; a forgotten answer starts the schedule over.
package srs
