// Package phase runs validated model calls: every reply is sanitized,
// parsed and validated into typed records, with bounded retries for empty,
// unparseable and invalid output.
package phase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vampirenirmal/outliner/internal/agent"
	"github.com/vampirenirmal/outliner/internal/core"
	"github.com/vampirenirmal/outliner/internal/schema"
	"github.com/vampirenirmal/outliner/internal/telemetry"
)

const (
	DefaultInvalidOutputRetries = 10
	DefaultEmptyOutputRetries   = 10
)

// Record is a generated value that can check itself.
type Record interface {
	Validate() error
}

// Normalizer is implemented by records that clean themselves up before
// validation.
type Normalizer interface {
	Normalize()
}

// Recorder persists call records.
type Recorder interface {
	Record(ctx context.Context, rec agent.CallRecord) error
}

// Call describes one validated generation.
type Call struct {
	Stage    string
	Messages []agent.Message
	Settings agent.CallSettings
	Shape    *schema.Shape
	// LogName names the call records; retries get a "_retry_<n>" suffix.
	LogName string
}

// Generator runs the two-level retry loop against a transport.
type Generator struct {
	transport     agent.Transport
	invalidBudget int
	emptyBudget   int
	recorder      Recorder
	metrics       *telemetry.Metrics
	tracer        trace.Tracer
	logger        *slog.Logger
}

// GeneratorOption allows customization of a Generator
type GeneratorOption func(*Generator)

// WithRetryBudgets sets the outer (invalid output) and inner (empty or
// unparseable output) attempt budgets.
func WithRetryBudgets(invalid, empty int) GeneratorOption {
	return func(g *Generator) {
		if invalid > 0 {
			g.invalidBudget = invalid
		}
		if empty > 0 {
			g.emptyBudget = empty
		}
	}
}

func WithRecorder(r Recorder) GeneratorOption {
	return func(g *Generator) {
		g.recorder = r
	}
}

func WithMetrics(m *telemetry.Metrics) GeneratorOption {
	return func(g *Generator) {
		g.metrics = m
	}
}

func WithTracer(t trace.Tracer) GeneratorOption {
	return func(g *Generator) {
		g.tracer = t
	}
}

// WithLogger configures a custom logger
func WithLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

func NewGenerator(transport agent.Transport, options ...GeneratorOption) *Generator {
	g := &Generator{
		transport:     transport,
		invalidBudget: DefaultInvalidOutputRetries,
		emptyBudget:   DefaultEmptyOutputRetries,
		tracer:        telemetry.Tracer(),
		logger:        slog.Default().With("component", "generator"),
	}
	for _, option := range options {
		option(g)
	}
	return g
}

// Generate produces the records of one validated call. A JSON object reply
// yields one record, a JSON array one record per element.
func Generate[T Record](ctx context.Context, g *Generator, call Call, newRecord func() T) ([]T, error) {
	return GenerateChecked(ctx, g, call, newRecord, nil)
}

// GenerateOne is Generate for calls that must yield exactly one record.
func GenerateOne[T Record](ctx context.Context, g *Generator, call Call, newRecord func() T) (T, error) {
	records, err := GenerateChecked(ctx, g, call, newRecord, func(rs []T) error {
		if len(rs) != 1 {
			return fmt.Errorf("expected exactly one record, got %d", len(rs))
		}
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return records[0], nil
}

// GenerateChecked is Generate with an extra acceptance check over the whole
// result. A rejected result counts as an invalid attempt.
func GenerateChecked[T Record](ctx context.Context, g *Generator, call Call, newRecord func() T, accept func([]T) error) ([]T, error) {
	if call.Shape == nil {
		return nil, fmt.Errorf("stage %s: generation requires a shape", call.Stage)
	}
	format := schema.Project(*call.Shape)

	var (
		lastErr  error
		lastKind = core.KindInvalidOutput
		calls    int
	)

	for attempt := 1; attempt <= g.invalidBudget; attempt++ {
		reply, err := g.collect(ctx, call, &format, &calls)
		if err != nil {
			if !errors.Is(err, core.ErrEmptyOutputExhausted) {
				return nil, core.NewStageError(call.Stage, call.Settings.Model, core.KindTransport, attempt, err)
			}
			lastErr, lastKind = err, core.KindEmptyOutput
			g.metrics.FailedAttempt(call.Stage, string(OutcomeEmptyOutput))
			g.log(ctx).Warn("model kept returning empty output",
				"stage", call.Stage,
				"attempt", attempt,
				"max_attempts", g.invalidBudget)
			continue
		}

		records, err := decodeRecords(reply.raw, newRecord)
		if err == nil && accept != nil {
			err = accept(records)
		}
		if err == nil {
			reply.record.Outcome = string(OutcomeOK)
			g.record(ctx, call.Stage, reply.record)
			if attempt > 1 {
				g.log(ctx).Info("stage output accepted after retries",
					"stage", call.Stage,
					"attempt", attempt)
			}
			return records, nil
		}

		reply.record.Outcome = string(OutcomeInvalidOutput)
		g.record(ctx, call.Stage, reply.record)

		lastErr, lastKind = fmt.Errorf("%w: %v", core.ErrInvalidOutput, err), core.KindInvalidOutput
		g.metrics.FailedAttempt(call.Stage, string(OutcomeInvalidOutput))
		g.log(ctx).Warn("invalid model output, retrying",
			"stage", call.Stage,
			"attempt", attempt,
			"max_attempts", g.invalidBudget,
			"error", err)
	}

	g.log(ctx).Error("stage failed after all attempts",
		"stage", call.Stage,
		"model", call.Settings.Model,
		"attempts", g.invalidBudget,
		"final_error", lastErr)

	return nil, core.NewStageError(call.Stage, call.Settings.Model, lastKind, g.invalidBudget, lastErr)
}

type reply struct {
	raw    json.RawMessage
	record agent.CallRecord
}

// collect asks the transport until it returns non-empty, parseable output
// or the empty output budget runs out. Records for retried replies are
// written here; the caller writes the record of the returned reply.
func (g *Generator) collect(ctx context.Context, call Call, format *schema.ResponseFormat, calls *int) (reply, error) {
	req := agent.Request{
		Messages:       call.Messages,
		Settings:       call.Settings,
		ResponseFormat: format,
	}

	for i := 0; i < g.emptyBudget; i++ {
		if err := ctx.Err(); err != nil {
			return reply{}, err
		}

		rec := agent.CallRecord{
			Name:           logName(call.LogName, *calls),
			Messages:       call.Messages,
			Model:          call.Settings.Model,
			Settings:       call.Settings,
			ResponseFormat: format,
		}
		*calls++

		spanCtx, span := g.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
			attribute.String("stage", call.Stage),
			attribute.String("model", call.Settings.Model),
		))
		start := time.Now()
		text, err := g.transport.Complete(spanCtx, req)
		rec.ResponseTime = time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			rec.Outcome = string(OutcomeTransport)
			g.record(ctx, call.Stage, rec)
			g.log(ctx).Error("transport call failed",
				"stage", call.Stage,
				"model", call.Settings.Model,
				"error", err)
			return reply{}, fmt.Errorf("completing %s: %w", call.Stage, err)
		}

		text = Sanitize(text)
		rec.Response = text
		raw, outcome := classify(text)
		span.SetAttributes(attribute.String("outcome", string(outcome)))
		span.End()

		if !outcome.Retryable() {
			return reply{raw: raw, record: rec}, nil
		}

		rec.Outcome = string(outcome)
		g.record(ctx, call.Stage, rec)
		g.log(ctx).Warn("unusable model output, asking again",
			"stage", call.Stage,
			"outcome", outcome,
			"try", i+1,
			"max_tries", g.emptyBudget)
	}

	return reply{}, core.ErrEmptyOutputExhausted
}

func (g *Generator) record(ctx context.Context, stage string, rec agent.CallRecord) {
	g.metrics.ObserveCall(stage, rec.Outcome, rec.ResponseTime)
	if g.recorder == nil {
		return
	}
	if err := g.recorder.Record(ctx, rec); err != nil {
		g.log(ctx).Warn("failed to write call record",
			"stage", stage,
			"name", rec.Name,
			"error", err)
	}
}

func logName(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s_retry_%d", base, n)
}

// classify parses sanitized text. Empty text and empty JSON values (null,
// {} and []) count as empty output.
func classify(text string) (json.RawMessage, Outcome) {
	if text == "" {
		return nil, OutcomeEmptyOutput
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, OutcomeParseError
	}

	switch t := v.(type) {
	case nil:
		return nil, OutcomeEmptyOutput
	case map[string]any:
		if len(t) == 0 {
			return nil, OutcomeEmptyOutput
		}
	case []any:
		if len(t) == 0 {
			return nil, OutcomeEmptyOutput
		}
	default:
		return nil, OutcomeParseError
	}
	return json.RawMessage(text), OutcomeOK
}

func decodeRecords[T Record](raw json.RawMessage, newRecord func() T) ([]T, error) {
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		out := make([]T, 0, len(items))
		for i, item := range items {
			rec, err := decodeRecord(item, newRecord)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, rec)
		}
		return out, nil
	}

	rec, err := decodeRecord(raw, newRecord)
	if err != nil {
		return nil, err
	}
	return []T{rec}, nil
}

func decodeRecord[T Record](raw json.RawMessage, newRecord func() T) (T, error) {
	rec := newRecord()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(any(rec)); err != nil {
		return rec, fmt.Errorf("decoding: %w", err)
	}
	if n, ok := any(rec).(Normalizer); ok {
		n.Normalize()
	}
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	return rec, nil
}

func (g *Generator) log(ctx context.Context) *slog.Logger {
	if id := core.RunID(ctx); id != "" {
		return g.logger.With("run_id", id)
	}
	return g.logger
}
