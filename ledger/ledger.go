package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"folklorovich/types"
)

// Ledger is an append-only JSONL record of run outcomes: one line per
// invocation with status, failed stage, error kind, and stage timings.
// Enough for an operator to diagnose a failed run without reading logs.
type Ledger struct {
	path string
}

// New returns a ledger appending to path
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Append writes rec as one JSON line
func (l *Ledger) Append(rec *types.RunRecord) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	return f.Close()
}

// Tail returns up to n most recent records, oldest first
func (l *Ledger) Tail(n int) ([]types.RunRecord, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []types.RunRecord
	for _, line := range splitLines(data) {
		var rec types.RunRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // tolerate a torn final line
		}
		records = append(records, rec)
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
