package cli

import (
	"errors"
	"fmt"

	"github.com/vampirenirmal/outliner/internal/core"
)

// Exit codes returned by Run.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitStageFailure = 2
)

// ExitError carries the process exit code of a failed command up to Run,
// so commands never call os.Exit themselves.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps an error to the code the process exits with. Stage
// failures get their own code so scripts can tell a model giving up apart
// from a usage or I/O problem.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if core.IsFatal(err) {
		return ExitStageFailure
	}
	return ExitFailure
}
