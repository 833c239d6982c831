package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/vampirenirmal/outliner/internal/agent"
)

// CallLog writes one JSON file per model call to "<dir>/logs/<name>.json".
// Records made before the story directory exists are held until Bind.
type CallLog struct {
	mu      sync.Mutex
	store   Storage
	dir     string
	pending []agent.CallRecord
}

func NewCallLog(store Storage) *CallLog {
	return &CallLog{store: store}
}

// Bind sets the story directory and flushes buffered records.
func (l *CallLog) Bind(ctx context.Context, dir string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dir = dir
	pending := l.pending
	l.pending = nil
	for _, rec := range pending {
		if err := l.write(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Dir returns the bound story directory, or "".
func (l *CallLog) Dir() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dir
}

func (l *CallLog) Record(ctx context.Context, rec agent.CallRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.dir == "" {
		l.pending = append(l.pending, rec)
		return nil
	}
	return l.write(ctx, rec)
}

func (l *CallLog) write(ctx context.Context, rec agent.CallRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding call record %s: %w", rec.Name, err)
	}
	p := path.Join(l.dir, "logs", sanitizeForFilename(rec.Name, 120)+".json")
	if err := l.store.Save(ctx, p, data); err != nil {
		return fmt.Errorf("saving call record: %w", err)
	}
	return nil
}
