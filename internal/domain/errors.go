package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrModelUnavailable = errors.New("model bundle unavailable")
)
