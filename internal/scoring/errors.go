package scoring

import (
	"fmt"

	"overrated_products/internal/domain"
)

// InputError is a violated scoring precondition. It matches domain.ErrInvalidInput.
type InputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error { return domain.ErrInvalidInput }
