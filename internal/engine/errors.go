// Package engine replays steps, flows and workflows: it resolves each step's
// target to a screen point, performs the action and its sub-actions, and
// folds every failure into a structured result.
package engine

import (
	"errors"

	"github.com/mj1618/desktop-flow/internal/model"
)

var (
	// ErrPathNotFound means a target image could not be located on disk.
	ErrPathNotFound = errors.New("image path not found")
	// ErrTimeout means the search budget ran out before a match.
	ErrTimeout = errors.New("search timed out")
	// ErrNotFound means every strategy ran without finding the image.
	ErrNotFound = errors.New("image not found on screen")
	// ErrMatchAttempt wraps an error raised by one matching attempt.
	ErrMatchAttempt = errors.New("match attempt failed")
	// ErrActionExecution means an input-synthesis call failed.
	ErrActionExecution = errors.New("action execution failed")
	// ErrMissingReference means a workflow names a flow that does not exist.
	ErrMissingReference = errors.New("missing flow reference")
)

// Kind names the error category of err, or "" for nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPathNotFound):
		return "PathNotFound"
	case errors.Is(err, ErrTimeout):
		return "Timeout"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrMatchAttempt):
		return "MatchAttemptError"
	case errors.Is(err, ErrActionExecution):
		return "ActionExecutionError"
	case errors.Is(err, model.ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrMissingReference):
		return "MissingReference"
	default:
		return "Error"
	}
}
