package errlog

import (
	"fmt"
	"os"
	"sync"

	json "github.com/goccy/go-json"
)

// File persists entries as a single JSON array under a fixed path,
// rewritten atomically on every append. The whole log is capped at
// MaxEntries, so the rewrite stays small.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a file sink at path. The parent directory must exist.
func NewFile(path string) (*File, error) {
	f := &File{path: path}

	// Fail fast on an unreadable or corrupt existing log.
	if _, err := f.load(); err != nil {
		return nil, fmt.Errorf("load error log: %w", err)
	}
	return f, nil
}

// Append stores an entry, dropping the oldest beyond the cap.
func (f *File) Append(entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return fmt.Errorf("load error log: %w", err)
	}

	entries = append(entries, entry)
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}

	return f.store(entries)
}

// Entries returns all stored entries, oldest first.
func (f *File) Entries() ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.load()
}

// Clear removes the log file.
func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove error log: %w", err)
	}
	return nil
}

// Close is a no-op for the file sink.
func (f *File) Close() error { return nil }

func (f *File) load() ([]Entry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode error log: %w", err)
	}
	return entries, nil
}

func (f *File) store(entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode error log: %w", err)
	}

	// Write-then-rename keeps readers from ever seeing a partial array.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write error log: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace error log: %w", err)
	}
	return nil
}
