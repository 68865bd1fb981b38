// Package scheduler finds tasks whose reminder time has come and dispatches
// one question per task to a Notifier.
//
// A task is claimed (active -> waiting_answer) before its notification is
// queued, so a task is never asked twice at once. Claims that cannot be
// queued are handed back immediately; claims whose question is never answered
// are handed back by the stale monitor after WaitingTimeout.
package scheduler
