// Package dialog turns user input into task changes and reply messages.
//
// Decide is the pure transition table: given the task an answer refers to and
// the decoded answer option it picks an Action. Reply text is chosen from a
// fixed template per Outcome. Controller ties both to the task service and
// never performs transport I/O; it returns Reply values for the transport to
// deliver.
package dialog
