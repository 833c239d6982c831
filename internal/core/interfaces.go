package core

import (
	"context"

	"github.com/vampirenirmal/outliner/internal/domain/story"
)

// Stage is one step of the outline pipeline. Stages mutate the state in
// place; the pipeline persists it after every stage.
type Stage interface {
	Name() string
	// Complete reports whether the state already holds this stage's output,
	// in which case a resumed run skips it.
	Complete(st *story.State) bool
	Execute(ctx context.Context, st *story.State, cp Checkpointer) error
}

// Seeder is the first stage: it turns a premise into a new state.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, premise string) (*story.State, error)
}

// ModelReporter is implemented by stages that know which model they call.
type ModelReporter interface {
	Model() string
}

func modelOf(v any) string {
	if m, ok := v.(ModelReporter); ok {
		return m.Model()
	}
	return ""
}

// Checkpointer persists the state in the middle of a stage.
type Checkpointer interface {
	Checkpoint(ctx context.Context, st *story.State) error
}

// Snapshotter saves and loads whole story states by directory.
type Snapshotter interface {
	Save(ctx context.Context, dir string, st *story.State) error
	Load(ctx context.Context, dir string) (*story.State, error)
}

// CallLogBinder attaches the call log to a story directory once it exists.
type CallLogBinder interface {
	Bind(ctx context.Context, dir string) error
}
