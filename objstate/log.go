package objstate

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log receives state snapshots. Implementations must be safe for
// concurrent use.
type Log interface {
	AddState(ctx context.Context, snap Snapshot) error
}

// MemoryLog keeps snapshots in process, newest last.
type MemoryLog struct {
	mu    sync.RWMutex
	snaps []Snapshot
	limit int
}

// NewMemoryLog returns a log holding at most limit snapshots. A limit of
// zero or less keeps everything.
func NewMemoryLog(limit int) *MemoryLog {
	return &MemoryLog{limit: limit}
}

func (l *MemoryLog) AddState(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snaps = append(l.snaps, snap)
	if l.limit > 0 && len(l.snaps) > l.limit {
		l.snaps = append(l.snaps[:0], l.snaps[len(l.snaps)-l.limit:]...)
	}
	return nil
}

// Snapshots returns a copy of the retained snapshots.
func (l *MemoryLog) Snapshots() []Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Snapshot, len(l.snaps))
	copy(out, l.snaps)
	return out
}

func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.snaps)
}

// FileLog appends one JSON document per line.
type FileLog struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	path string
}

func OpenFileLog(path string) (*FileLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state log path is required")
	}
	clean := filepath.Clean(path)
	if dir := filepath.Dir(clean); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state log dir: %w", err)
		}
	}
	f, err := os.OpenFile(clean, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open state log: %w", err)
	}
	return &FileLog{f: f, w: bufio.NewWriter(f), path: clean}, nil
}

func (l *FileLog) Path() string {
	return l.path
}

func (l *FileLog) AddState(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return fmt.Errorf("state log %s is closed", l.path)
	}
	if _, err := l.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return l.w.Flush()
}

func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	flushErr := l.w.Flush()
	closeErr := l.f.Close()
	l.f = nil
	return errors.Join(flushErr, closeErr)
}

// ReadFileLog decodes every snapshot in a JSONL state log.
func ReadFileLog(path string) ([]Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []Snapshot
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(line), &snap); err != nil {
			return out, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, sc.Err()
}

// MultiLog fans a snapshot out to every sink. All sinks are attempted and
// their errors joined.
type MultiLog []Log

func (m MultiLog) AddState(ctx context.Context, snap Snapshot) error {
	var errs []error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.AddState(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
