package domain

import "errors"

// Analysis error taxonomy. Callers branch with errors.Is; everything else is
// wrapped context via fmt.Errorf("%w: ...").
var (
	// ErrInsufficientData means fewer than the minimum usable instruments or
	// days survived cleaning. Retrying will not fix an upstream data gap.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNumericalInstability means a covariance matrix could not be repaired
	// to a valid state or a model failed to converge.
	ErrNumericalInstability = errors.New("numerical instability")

	// ErrDataUnavailable means the price-history collaborator timed out or
	// errored and no fallback could serve the request.
	ErrDataUnavailable = errors.New("price data unavailable")

	// ErrModelFit means a forecasting sub-model failed to fit.
	ErrModelFit = errors.New("model fit failed")
)
