package distribution

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDays is returned when the number of days is zero or negative.
	ErrInvalidDays = errors.New("number of days must be at least 1")

	// ErrNegativeQuantity is returned when the total quantity is below zero.
	ErrNegativeQuantity = errors.New("quantity must not be negative")

	// ErrNonIntegralQuantity is returned when the total quantity has a
	// fractional part. Whole units only: a fractional remainder cannot be
	// handed out one unit at a time.
	ErrNonIntegralQuantity = errors.New("quantity must be a whole number")

	// ErrNonFiniteQuantity is returned for NaN, infinities and values that do
	// not fit in an int64.
	ErrNonFiniteQuantity = errors.New("quantity must be finite")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InputError describes a rejected call. Quantity is rendered as text so the
// same type serves the int64, float64 and decimal entry points.
type InputError struct {
	Quantity string
	Days     int
	Err      error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("cannot distribute %s over %d days: %v", e.Quantity, e.Days, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err is a domain violation raised by this
// package. Such errors are caller bugs and never succeed on retry.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
