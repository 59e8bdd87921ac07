// Package errlog implements the capped durable log of final retry
// failures. A Sink is pluggable: an in-memory ring buffer for tests and
// ephemeral runs, a JSON file for single-host deployments, and Postgres
// for shared inspection.
package errlog

import (
	"time"

	"github.com/google/uuid"
)

// MaxEntries caps every sink at the most recent entries; older ones are
// dropped.
const MaxEntries = 50

// Entry is one persisted final failure.
type Entry struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Attempts  int       `json:"attempts"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry builds an entry for a failed operation.
func NewEntry(operation string, attempts int, message string) Entry {
	return Entry{
		ID:        uuid.New().String(),
		Operation: operation,
		Attempts:  attempts,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Sink is the interface for persisting final failures.
type Sink interface {
	// Append stores an entry, dropping the oldest beyond MaxEntries.
	Append(entry Entry) error

	// Entries returns all stored entries, oldest first.
	Entries() ([]Entry, error)

	// Clear removes all stored entries.
	Clear() error

	// Close releases resources held by the sink.
	Close() error
}
