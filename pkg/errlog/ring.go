package errlog

import "sync"

// Ring is an in-memory capped ring buffer sink.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
}

// NewRing creates a ring sink capped at MaxEntries.
func NewRing() *Ring {
	return &Ring{cap: MaxEntries}
}

// Append stores an entry, dropping the oldest beyond the cap.
func (r *Ring) Append(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
	return nil
}

// Entries returns a copy of all stored entries, oldest first.
func (r *Ring) Entries() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

// Clear removes all stored entries.
func (r *Ring) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	return nil
}

// Close is a no-op for the ring sink.
func (r *Ring) Close() error { return nil }
