// Package service contains the task use cases: adding a term, finding it,
// claiming due tasks for a reminder, and applying answers to the schedule.
//
// TaskService owns every status change a task goes through. It depends on the
// store.TaskStore interface and the srs interval policy, never on a concrete
// storage implementation, and runs multi-step changes inside store
// transactions so a failed step leaves the task untouched.
package service
