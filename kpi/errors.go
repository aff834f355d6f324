package kpi

import (
	"errors"
	"fmt"

	"github.com/warp/kpi-engine/calendar"
	"github.com/warp/kpi-engine/distribution"
)

var (
	// ErrNoWorkdays is returned when an activity's planned range contains no
	// working day, so there is nothing to spread its units over.
	ErrNoWorkdays = errors.New("planned range has no workdays")

	ErrActivityNotFound   = errors.New("activity not found")
	ErrNegativeActual     = errors.New("actual quantity must not be negative")
	ErrUnknownGranularity = errors.New("unknown bucket granularity")
	ErrInvalidActivity    = errors.New("invalid activity")
)

// ValidationError names the offending activity field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid activity: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidActivity }

// GenerationError carries the activity whose KPI generation failed.
type GenerationError struct {
	ActivityID string
	Range      calendar.Range
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate KPIs for activity %s %s: %v", e.ActivityID, e.Range, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoWorkdays) ||
		errors.Is(err, ErrNegativeActual) ||
		errors.Is(err, ErrUnknownGranularity) ||
		errors.Is(err, ErrInvalidActivity) ||
		errors.Is(err, calendar.ErrInvalidRange) ||
		distribution.IsInputError(err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrActivityNotFound)
}
