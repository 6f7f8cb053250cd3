package forecast

import "errors"

// Usage errors are rejected synchronously, before any per-product work runs.
var (
	ErrInvalidPeriods   = errors.New("forecast: periods must be a positive integer")
	ErrInvalidWindow    = errors.New("forecast: window must be a positive integer")
	ErrUnknownFrequency = errors.New("forecast: unknown seasonal frequency")
	ErrUnknownMode      = errors.New("forecast: unknown forecast mode")
)
