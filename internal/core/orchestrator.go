package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vampirenirmal/outliner/internal/domain/story"
	"github.com/vampirenirmal/outliner/internal/storage"
	"github.com/vampirenirmal/outliner/internal/telemetry"
)

// Run is the result of one pipeline invocation.
type Run struct {
	ID    string
	Dir   string
	State *story.State
}

// Pipeline runs the seed stage and then every other stage in order,
// persisting the state after each one.
type Pipeline struct {
	seed      Seeder
	stages    []Stage
	snapshots Snapshotter
	calls     CallLogBinder
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

// WithClock sets the time source used to name story directories.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func NewPipeline(seed Seeder, stages []Stage, snapshots Snapshotter, calls CallLogBinder, opts ...Option) *Pipeline {
	p := &Pipeline{
		seed:      seed,
		stages:    stages,
		snapshots: snapshots,
		calls:     calls,
		logger:    slog.Default().With("component", "pipeline"),
		tracer:    telemetry.Tracer(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// StageNames lists the stages in execution order, seed first.
func (p *Pipeline) StageNames() []string {
	names := []string{p.seed.Name()}
	for _, s := range p.stages {
		names = append(names, s.Name())
	}
	return names
}

// Start generates a new story from a premise. The returned Run is non-nil
// as soon as the story directory exists, even when a later stage fails.
func (p *Pipeline) Start(ctx context.Context, premise string) (*Run, error) {
	run := &Run{ID: uuid.NewString()}
	ctx = WithRunID(ctx, run.ID)

	ctx, span := p.tracer.Start(ctx, "pipeline.start", trace.WithAttributes(
		attribute.String("run_id", run.ID),
	))
	defer span.End()

	logger := p.logger.With("run_id", run.ID)
	logger.Info("starting story generation", "stages", len(p.stages)+1)

	var st *story.State
	err := p.observe(ctx, logger, p.seed.Name(), func(ctx context.Context) error {
		var err error
		st, err = p.seed.Seed(ctx, premise)
		return err
	})
	if err != nil {
		return nil, failSpan(span, err)
	}

	run.State = st
	run.Dir = storage.StoryDirName(st.Title(), p.now())
	span.SetAttributes(attribute.String("story_dir", run.Dir))

	if err := p.calls.Bind(ctx, run.Dir); err != nil {
		return run, failSpan(span, fmt.Errorf("binding call log to %s: %w", run.Dir, err))
	}
	if err := p.snapshots.Save(ctx, run.Dir, st); err != nil {
		return run, failSpan(span, fmt.Errorf("persisting %s: %w", run.Dir, err))
	}
	logger.Info("story directory created", "dir", run.Dir, "title", st.Title())

	if err := p.runStages(ctx, logger, run); err != nil {
		return run, failSpan(span, err)
	}
	return run, nil
}

// Resume loads the story in dir and runs every stage that is not complete
// yet.
func (p *Pipeline) Resume(ctx context.Context, dir string) (*Run, error) {
	run := &Run{ID: uuid.NewString(), Dir: dir}
	ctx = WithRunID(ctx, run.ID)

	ctx, span := p.tracer.Start(ctx, "pipeline.resume", trace.WithAttributes(
		attribute.String("run_id", run.ID),
		attribute.String("story_dir", dir),
	))
	defer span.End()

	logger := p.logger.With("run_id", run.ID)

	st, err := p.snapshots.Load(ctx, dir)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("loading story %s: %w", dir, err))
	}
	if st.General == nil {
		return nil, failSpan(span, PreconditionError(p.seed.Name(), modelOf(p.seed), "general details in "+dir))
	}
	run.State = st

	if err := p.calls.Bind(ctx, dir); err != nil {
		return run, failSpan(span, fmt.Errorf("binding call log to %s: %w", dir, err))
	}
	logger.Info("resuming story", "dir", dir, "title", st.Title())

	if err := p.runStages(ctx, logger, run); err != nil {
		return run, failSpan(span, err)
	}
	return run, nil
}

func (p *Pipeline) runStages(ctx context.Context, logger *slog.Logger, run *Run) error {
	cp := &dirCheckpointer{snapshots: p.snapshots, dir: run.Dir}

	for _, stage := range p.stages {
		if stage.Complete(run.State) {
			logger.Info("stage already complete, skipping", "stage", stage.Name())
			p.metrics.ObserveStage(stage.Name(), "skipped", 0)
			continue
		}

		err := p.observe(ctx, logger, stage.Name(), func(ctx context.Context) error {
			return stage.Execute(ctx, run.State, cp)
		})
		if err != nil {
			return err
		}

		if err := cp.Checkpoint(ctx, run.State); err != nil {
			return fmt.Errorf("after stage %s: %w", stage.Name(), err)
		}
	}

	logger.Info("story generation completed", "dir", run.Dir)
	return nil
}

// observe wraps one stage execution in a span, a duration metric and
// start/finish log lines.
func (p *Pipeline) observe(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "stage."+name, trace.WithAttributes(
		attribute.String("stage", name),
		attribute.String("run_id", RunID(ctx)),
	))
	defer span.End()

	logger.Info("executing stage", "stage", name)
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		p.metrics.ObserveStage(name, "failed", elapsed.Seconds())
		logger.Error("stage failed",
			"stage", name,
			"duration_ms", elapsed.Milliseconds(),
			"kind", KindOf(err),
			"error", err)
		failSpan(span, err)

		var se *StageError
		if !errors.As(err, &se) && ctx.Err() != nil {
			return NewStageError(name, "", KindTransport, 0, err)
		}
		return err
	}

	p.metrics.ObserveStage(name, "ok", elapsed.Seconds())
	logger.Info("stage completed", "stage", name, "duration_ms", elapsed.Milliseconds())
	return nil
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
