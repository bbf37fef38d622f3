package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// Compile-time interface check.
var _ domain.TurnLogger = (*TurnLog)(nil)

// TurnLog is an append-only JSON-lines file of processed turns. Records
// are never rewritten.
type TurnLog struct {
	mu   sync.Mutex
	path string
}

// NewTurnLog returns a log writing to path. The file is created on the
// first append.
func NewTurnLog(path string) *TurnLog {
	return &TurnLog{path: path}
}

// Path returns the file the log writes to.
func (l *TurnLog) Path() string { return l.path }

// Append writes one record.
func (l *TurnLog) Append(ctx context.Context, rec domain.TurnRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("creating turn log dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening turn log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// LoadSince reads the records at or after since. Lines that do not
// decode are skipped. A missing file yields no records.
func (l *TurnLog) LoadSince(since time.Time) ([]domain.TurnRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening turn log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []domain.TurnRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec domain.TurnRecord
		if json.Unmarshal(sc.Bytes(), &rec) != nil {
			continue
		}
		if rec.Timestamp.Before(since) {
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading turn log: %w", err)
	}
	return out, nil
}

// IntentCounts tallies records by intent label.
func IntentCounts(records []domain.TurnRecord) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		out[r.Intent]++
	}
	return out
}
