package types

import "github.com/pkg/errors"

var (
	// ErrUpstream covers HTTP failures, timeouts, undecodable bodies and
	// success=false answers from the exchange. It is safe to retry.
	ErrUpstream = errors.New("upstream unavailable")

	// ErrDataShape is returned when a payload field is missing or not numeric.
	ErrDataShape = errors.New("malformed market data")

	// ErrInsufficientData is returned when the history holds too few samples.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDivisionByZero is a DataShape error: a zero price cannot be inverted.
	ErrDivisionByZero = errors.Wrap(ErrDataShape, "division by zero")
)
