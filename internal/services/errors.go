package services

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrPlanLimit    = errors.New("plan limit reached")
	ErrRateLimited  = errors.New("rate limited")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("service unavailable")
)

// ErrUnprocessable marks input that is well-formed but unusable, such as a scanned PDF.
var ErrUnprocessable = errors.New("unprocessable")
