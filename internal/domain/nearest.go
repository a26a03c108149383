package domain

import (
	"math"
	"sort"
)

// axisSpanFactor widens the acceptable query window beyond the axis ends by
// this many mean grid steps. A query further out than that would silently
// snap across an unrelated stretch of ocean.
const axisSpanFactor = 1.5

// NearestIndex returns the index of the value in vals closest to x, each axis
// matched on its own scale. Ties break toward the lowest index. Strictly
// ascending sequences are binary-searched; any other ordering (depth and time
// axes keep their native order) falls back to a scan.
func NearestIndex(vals []float64, x float64) int {
	if len(vals) == 0 {
		return 0
	}
	if classifyMonotonic(vals) == monotonicAscending {
		i := sort.SearchFloat64s(vals, x)
		if i == len(vals) {
			return len(vals) - 1
		}
		if i > 0 && math.Abs(vals[i-1]-x) <= math.Abs(vals[i]-x) {
			return i - 1
		}
		return i
	}

	best := 0
	bestDist := math.Abs(vals[0] - x)
	for i := 1; i < len(vals); i++ {
		if d := math.Abs(vals[i] - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// checkSpan guards against nearest-neighbor extrapolation: x must fall within
// the axis span widened by axisSpanFactor mean grid steps. Single-point axes
// accept only (near-)exact matches.
func checkSpan(name string, vals []float64, x float64) error {
	if len(vals) == 0 {
		return &OutOfRangeError{Axis: name, Value: x}
	}
	minV, maxV := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	tol := 1e-9
	if len(vals) > 1 {
		tol = (maxV - minV) / float64(len(vals)-1) * axisSpanFactor
	}
	if x < minV-tol || x > maxV+tol {
		return &OutOfRangeError{Axis: name, Value: x, Min: minV, Max: maxV}
	}
	return nil
}
