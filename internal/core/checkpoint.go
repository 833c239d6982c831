package core

import (
	"context"
	"fmt"

	"github.com/vampirenirmal/outliner/internal/domain/story"
)

type runIDKey struct{}

// WithRunID returns a context carrying the run ID.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run ID carried by ctx, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// dirCheckpointer saves the state into a fixed story directory.
type dirCheckpointer struct {
	snapshots Snapshotter
	dir       string
}

func (c *dirCheckpointer) Checkpoint(ctx context.Context, st *story.State) error {
	if err := c.snapshots.Save(ctx, c.dir, st); err != nil {
		return fmt.Errorf("checkpointing %s: %w", c.dir, err)
	}
	return nil
}
