package core

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Stage Error Type
// =============================================================================

// ErrorKind classifies why a stage gave up.
type ErrorKind string

const (
	KindInvalidOutput  ErrorKind = "invalid_output"
	KindEmptyOutput    ErrorKind = "empty_output"
	KindPrecondition   ErrorKind = "precondition"
	KindSceneShortfall ErrorKind = "scene_shortfall"
	KindTransport      ErrorKind = "transport"
)

// DefaultRecoveryHint is attached to stage errors caused by model output.
const DefaultRecoveryHint = "the model may not support structured output for this task; try another model"

// StageError is returned when a generation stage cannot produce a usable
// result. Every StageError ends the run.
type StageError struct {
	Stage        string
	Model        string
	Kind         ErrorKind
	Attempts     int
	Cause        error
	RecoveryHint string
	Timestamp    time.Time
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("stage %s failed", e.Stage)
	if e.Model != "" {
		msg += fmt.Sprintf(" with model %s", e.Model)
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	msg += fmt.Sprintf(" (%s): %v", e.Kind, e.Cause)
	if e.RecoveryHint != "" {
		msg += "; " + e.RecoveryHint
	}
	return msg
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// Predefined Error Values
// =============================================================================

var (
	ErrEmptyOutputExhausted = errors.New("model returned empty output on every attempt")
	ErrInvalidOutput        = errors.New("model output failed validation")
	ErrMissingPrerequisite  = errors.New("missing prerequisite stage data")
	ErrTooFewScenes         = errors.New("too few scenes")
	ErrTooFewChapters       = errors.New("too few chapters")
)

// =============================================================================
// Error Creation Helpers
// =============================================================================

// NewStageError creates a StageError with a timestamp. Output related kinds
// get the default recovery hint.
func NewStageError(stage, model string, kind ErrorKind, attempts int, cause error) *StageError {
	e := &StageError{
		Stage:     stage,
		Model:     model,
		Kind:      kind,
		Attempts:  attempts,
		Cause:     cause,
		Timestamp: time.Now(),
	}
	switch kind {
	case KindInvalidOutput, KindEmptyOutput, KindSceneShortfall:
		e.RecoveryHint = DefaultRecoveryHint
	}
	return e
}

// PreconditionError reports that a stage ran before the data it needs.
func PreconditionError(stage, model, missing string) *StageError {
	return NewStageError(stage, model, KindPrecondition, 0,
		fmt.Errorf("%w: %s", ErrMissingPrerequisite, missing))
}

// =============================================================================
// Error Classification Functions
// =============================================================================

// IsFatal reports whether err ends the run.
func IsFatal(err error) bool {
	var se *StageError
	return errors.As(err, &se)
}

// StageOf returns the stage an error came from, or "".
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// KindOf returns the kind of a stage error, or "".
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
