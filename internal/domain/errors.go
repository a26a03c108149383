package domain

import (
	"errors"
	"fmt"
)

// ErrMissingDepth is returned when a dataset declares a depth axis but the
// query carries no depth value.
var ErrMissingDepth = errors.New("dataset has a depth axis but query omits depth")

// NormalizationError reports a dataset whose axes cannot be brought into
// canonical form. It is fatal for that dataset; other datasets in a batch
// continue.
type NormalizationError struct {
	Dataset string
	Reason  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("dataset %s: %s", e.Dataset, e.Reason)
}

// OutOfRangeError reports a query coordinate that lies beyond an axis span by
// more than the nearest-neighbor tolerance (mean grid spacing times a safety
// factor).
type OutOfRangeError struct {
	Axis  string
	Value float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %.6g is outside axis range [%.6g, %.6g]", e.Axis, e.Value, e.Min, e.Max)
}

// UnknownVariableError reports a requested variable absent from the dataset.
type UnknownVariableError struct {
	Variable string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("variable %s not present in dataset", e.Variable)
}

// FetchError wraps a dataset provider failure. It is fatal for that dataset.
type FetchError struct {
	Dataset string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch dataset %s: %v", e.Dataset, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
