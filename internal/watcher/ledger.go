package watcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// Ledger persists the set of drop-directory filenames already ingested so a
// file is never reprocessed across restarts. It is owned and mutated only by
// the watcher loop.
type Ledger struct {
	path string
	seen map[string]struct{}
}

// LoadLedger reads the persisted set; a missing file yields an empty ledger.
func LoadLedger(path string) (*Ledger, error) {
	l := &Ledger{path: path, seen: make(map[string]struct{})}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for _, n := range names {
		l.seen[n] = struct{}{}
	}
	return l, nil
}

// Contains reports whether the filename was already ingested.
func (l *Ledger) Contains(name string) bool {
	_, ok := l.seen[name]
	return ok
}

// MarkProcessed records the filename and persists the set immediately, so a
// crash after a successful run cannot cause reprocessing.
func (l *Ledger) MarkProcessed(name string) error {
	l.seen[name] = struct{}{}

	names := make([]string, 0, len(l.seen))
	for n := range l.seen {
		names = append(names, n)
	}
	sort.Strings(names)

	b, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("swap ledger: %w", err)
	}
	return nil
}

// Len returns the number of recorded filenames.
func (l *Ledger) Len() int {
	return len(l.seen)
}
