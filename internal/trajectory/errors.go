package trajectory

import "errors"

var (
	// ErrConfiguration reports missing or invalid model settings. It is only
	// returned at construction time, never mid-fit.
	ErrConfiguration = errors.New("configuration error")

	// ErrDimensionMismatch reports grid axes or point sets whose shape does
	// not agree with each other or with the model dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrRange reports a station index outside [0, stations).
	ErrRange = errors.New("index out of range")

	// ErrEvaluation reports a failed parallel evaluation. The whole batch is
	// abandoned when it occurs.
	ErrEvaluation = errors.New("evaluation error")
)
