// Package domain contains the core business entities of the reminder bot: the task a
// user is learning, its lifecycle statuses, and the validation rules that every
// persisted task satisfies. It is independent of storage and transport.
package domain
