// Package scheduler runs the task store and its periodic due-check loop.
//
// Tasks are created from natural-language phrases (internal/phrase),
// advanced by the recurrence engine (internal/schedule), announced on the
// event bus and persisted through the storage layer after every mutating
// tick.
package scheduler
