package domain

import "time"

// Sampled is the outcome of sampling one (query, dataset) pair, either a
// SampleResult (instant mode) or a SampleSeries (interval mode).
type Sampled interface {
	sampled()
}

// SampleResult holds the instant-mode outcome for one query. The matched
// coordinates are the grid values actually sampled, which may differ from the
// requested ones.
type SampleResult struct {
	QueryID      string
	MatchedTime  time.Time
	MatchedLat   float64
	MatchedLon   float64
	MatchedDepth *float64
	Values       map[string]float64
}

func (*SampleResult) sampled() {}

// SampleSeries holds the interval-mode outcome for one query: one row per
// time step within the requested interval, sampled at a single spatial match.
type SampleSeries struct {
	QueryID      string
	MatchedLat   float64
	MatchedLon   float64
	MatchedDepth *float64
	Times        []time.Time
	Values       map[string][]float64
}

func (*SampleSeries) sampled() {}

// Len returns the number of time steps in the series.
func (s *SampleSeries) Len() int { return len(s.Times) }
