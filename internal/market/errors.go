package market

import "fmt"

// ValidationError marks a malformed or out-of-range request parameter.
// It is recovered at the operation boundary and returned as a structured
// failure, never retried.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// DataUnavailableError marks a listing fetch timeout or an empty listing set
// where statistics cannot be computed. The engine never papers over it with
// fabricated numbers.
type DataUnavailableError struct {
	ProductID string
	Reason    string
	Err       error
}

func (e *DataUnavailableError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("data unavailable: %s", e.Reason)
	}
	return fmt.Sprintf("data unavailable for %s: %s", e.ProductID, e.Reason)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// ComputationError marks an internal invariant violation (e.g. a median
// outside [min, max]). It should never occur; it is logged with full context
// and surfaced verbatim as a failure.
type ComputationError struct {
	Op     string
	Detail string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation error in %s: %s", e.Op, e.Detail)
}
