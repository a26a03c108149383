package domain

import "time"

// TimeSpec selects how a query addresses the time axis.
type TimeSpec interface {
	timeSpec()
}

// Instant requests the nearest-matched value at a single timestamp.
type Instant struct {
	At time.Time
}

func (Instant) timeSpec() {}

// Interval requests the full time sub-series between Start and End inclusive.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (Interval) timeSpec() {}

// PointQuery is one caller-supplied sampling request. Depth is validated at
// sample time, not at construction: the same query table may be sampled
// against both 2D and 3D datasets.
type PointQuery struct {
	// ID correlates output rows with input rows.
	ID        string
	Latitude  float64
	Longitude float64
	Depth     *float64
	Time      TimeSpec

	// Variables overrides the batch variable list when non-nil.
	Variables []string
}
