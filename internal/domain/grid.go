// Package domain holds the grid dataset model and the nearest-neighbor
// sampling core.
package domain

import (
	"fmt"
	"math"
	"time"
)

// Canonical axis names. Variables are stored row-major over the axes in
// declared order: time, [depth,] latitude, longitude.
const (
	AxisTime      = "time"
	AxisDepth     = "depth"
	AxisLatitude  = "latitude"
	AxisLongitude = "longitude"
)

// axisAliases maps alternate axis names found in source datasets to their
// canonical names. Unrecognized names pass through unchanged.
var axisAliases = map[string]string{
	"lat": AxisLatitude,
	"lon": AxisLongitude,
}

// Axis is an ordered sequence of coordinate values along one grid dimension.
// Time coordinates are held as Unix seconds so every axis shares one
// representation.
type Axis struct {
	Name   string
	Values []float64
}

// Grid is an axis-labelled collection of dense variables for one dataset.
// It is immutable once Normalize has run; sampling is read-only.
type Grid struct {
	ID   string
	Axes []Axis
	Vars map[string][]float64
}

// Axis returns the named axis and its dimension index.
func (g *Grid) Axis(name string) (Axis, int, bool) {
	for i, ax := range g.Axes {
		if ax.Name == name {
			return ax, i, true
		}
	}
	return Axis{}, -1, false
}

// HasDepth reports whether the grid declares a depth axis.
func (g *Grid) HasDepth() bool {
	_, _, ok := g.Axis(AxisDepth)
	return ok
}

func (g *Grid) shape() []int {
	dims := make([]int, len(g.Axes))
	for i, ax := range g.Axes {
		dims[i] = len(ax.Values)
	}
	return dims
}

// TimeAt returns the decoded time coordinate at index i.
func (g *Grid) TimeAt(i int) time.Time {
	ax, _, _ := g.Axis(AxisTime)
	return unixToTime(ax.Values[i])
}

func unixToTime(v float64) time.Time {
	sec := math.Floor(v)
	nsec := (v - sec) * 1e9
	return time.Unix(int64(sec), int64(nsec)).UTC()
}

// Validate checks the structural invariants: required axes present in
// canonical order and every variable sized to the axis product.
func (g *Grid) Validate() error {
	expected := []string{AxisTime, AxisLatitude, AxisLongitude}
	if g.HasDepth() {
		expected = []string{AxisTime, AxisDepth, AxisLatitude, AxisLongitude}
	}
	if len(g.Axes) != len(expected) {
		return fmt.Errorf("expected axes %v, got %d axes", expected, len(g.Axes))
	}
	total := 1
	for i, name := range expected {
		if g.Axes[i].Name != name {
			return fmt.Errorf("expected axis %d to be %s, got %s", i, name, g.Axes[i].Name)
		}
		if len(g.Axes[i].Values) == 0 {
			return fmt.Errorf("axis %s is empty", name)
		}
		total *= len(g.Axes[i].Values)
	}
	for name, data := range g.Vars {
		if len(data) != total {
			return fmt.Errorf("variable %s has %d values, expected %d", name, len(data), total)
		}
	}
	return nil
}

type monotonicity int

const (
	monotonicNone monotonicity = iota
	monotonicAscending
	monotonicDescending
)

// classifyMonotonic examines the full sequence. A single pairwise comparison
// (first vs last) cannot distinguish a reversed axis from a sequence with a
// leading outlier, so every adjacent pair is checked.
func classifyMonotonic(vals []float64) monotonicity {
	if len(vals) < 2 {
		return monotonicAscending
	}
	ascending, descending := true, true
	for i := 1; i < len(vals); i++ {
		if vals[i] <= vals[i-1] {
			ascending = false
		}
		if vals[i] >= vals[i-1] {
			descending = false
		}
	}
	switch {
	case ascending:
		return monotonicAscending
	case descending:
		return monotonicDescending
	default:
		return monotonicNone
	}
}

// Normalize renames aliased axes to canonical names and reorders latitude and
// longitude into strictly ascending order. Reordering is a pure index
// permutation of the coordinate sequence and every variable's corresponding
// dimension. Time and depth keep their native order.
func (g *Grid) Normalize() error {
	for i := range g.Axes {
		if canonical, ok := axisAliases[g.Axes[i].Name]; ok {
			g.Axes[i].Name = canonical
		}
	}

	if err := g.Validate(); err != nil {
		return &NormalizationError{Dataset: g.ID, Reason: err.Error()}
	}

	for _, name := range []string{AxisLatitude, AxisLongitude} {
		ax, dim, _ := g.Axis(name)
		switch classifyMonotonic(ax.Values) {
		case monotonicAscending:
			// Already canonical.
		case monotonicDescending:
			g.reverseAxis(dim)
		case monotonicNone:
			return &NormalizationError{
				Dataset: g.ID,
				Reason:  fmt.Sprintf("axis %s is neither ascending nor descending", name),
			}
		}
	}
	return nil
}

// reverseAxis flips the coordinate values and every variable along dimension
// dim.
func (g *Grid) reverseAxis(dim int) {
	vals := g.Axes[dim].Values
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
	shape := g.shape()
	for _, data := range g.Vars {
		reverseDim(data, shape, dim)
	}
}

// reverseDim reverses a flat row-major array along one dimension in place.
func reverseDim(data []float64, shape []int, dim int) {
	n := shape[dim]
	inner := 1
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	outer := 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	block := n * inner
	for o := 0; o < outer; o++ {
		base := o * block
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			lo := base + i*inner
			hi := base + j*inner
			for k := 0; k < inner; k++ {
				data[lo+k], data[hi+k] = data[hi+k], data[lo+k]
			}
		}
	}
}
