package scenario

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, matched with errors.Is by callers — the same shape
// as the teacher's pkg/config/errors.go sentinel set.
var (
	ErrNotFound        = errors.New("scenario: not found")
	ErrHashMismatch    = errors.New("scenario: re-registered with a different hash")
	ErrInvalidScenario = errors.New("scenario: fails invariant validation")
)

// ValidationError wraps a scenario invariant failure with the offending
// field, matching the teacher's config.ValidationError shape.
type ValidationError struct {
	ScenarioID string
	Field      string
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scenario %q: field %q: %v", e.ScenarioID, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return errors.Join(ErrInvalidScenario, e.Err)
}

func newValidationError(scenarioID, field string, err error) *ValidationError {
	return &ValidationError{ScenarioID: scenarioID, Field: field, Err: err}
}
