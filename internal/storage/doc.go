// Package storage persists the scheduler's task set.
//
// The contract is deliberately simple: Load the whole set at startup,
// Save the whole set after every mutating tick. Best-effort overwrite,
// no transactions across saves.
package storage
