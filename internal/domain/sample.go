package domain

import (
	"fmt"
	"time"
)

// location is the resolved spatial match for one query against one grid.
type location struct {
	latIdx, lonIdx, depthIdx int
	lat, lon                 float64
	depth                    *float64
	hasDepth                 bool
}

// locate performs the shared spatial matching step: independent per-axis
// nearest lookup for latitude, longitude, and (on 3D grids) depth. A depth
// supplied against a 2D grid is ignored.
func (g *Grid) locate(q PointQuery) (location, error) {
	latAx, _, _ := g.Axis(AxisLatitude)
	lonAx, _, _ := g.Axis(AxisLongitude)

	if err := checkSpan(AxisLatitude, latAx.Values, q.Latitude); err != nil {
		return location{}, err
	}
	if err := checkSpan(AxisLongitude, lonAx.Values, q.Longitude); err != nil {
		return location{}, err
	}

	loc := location{
		latIdx: NearestIndex(latAx.Values, q.Latitude),
		lonIdx: NearestIndex(lonAx.Values, q.Longitude),
	}
	loc.lat = latAx.Values[loc.latIdx]
	loc.lon = lonAx.Values[loc.lonIdx]

	if depthAx, _, ok := g.Axis(AxisDepth); ok {
		if q.Depth == nil {
			return location{}, ErrMissingDepth
		}
		if err := checkSpan(AxisDepth, depthAx.Values, *q.Depth); err != nil {
			return location{}, err
		}
		loc.hasDepth = true
		loc.depthIdx = NearestIndex(depthAx.Values, *q.Depth)
		matched := depthAx.Values[loc.depthIdx]
		loc.depth = &matched
	}
	return loc, nil
}

// valueAt indexes a variable's flat array at the matched position. Only the
// indexing arity differs between the 2D and 3D paths.
func (g *Grid) valueAt(data []float64, tIdx int, loc location) float64 {
	latAx, _, _ := g.Axis(AxisLatitude)
	lonAx, _, _ := g.Axis(AxisLongitude)
	nLat, nLon := len(latAx.Values), len(lonAx.Values)

	if loc.hasDepth {
		depthAx, _, _ := g.Axis(AxisDepth)
		nDepth := len(depthAx.Values)
		return data[((tIdx*nDepth+loc.depthIdx)*nLat+loc.latIdx)*nLon+loc.lonIdx]
	}
	return data[(tIdx*nLat+loc.latIdx)*nLon+loc.lonIdx]
}

func (g *Grid) variable(name string) ([]float64, error) {
	data, ok := g.Vars[name]
	if !ok {
		return nil, &UnknownVariableError{Variable: name}
	}
	return data, nil
}

// Sample dispatches on the query's time spec.
func (g *Grid) Sample(q PointQuery, vars []string) (Sampled, error) {
	switch ts := q.Time.(type) {
	case Instant:
		return g.SampleInstant(q, ts, vars)
	case Interval:
		return g.SampleInterval(q, ts, vars)
	default:
		return nil, fmt.Errorf("query %s has no time spec", q.ID)
	}
}

// SampleInstant nearest-matches every relevant axis, including time, and
// extracts one scalar per requested variable. The matched time coordinate is
// returned so callers can audit how far it drifted from the request.
func (g *Grid) SampleInstant(q PointQuery, ts Instant, vars []string) (*SampleResult, error) {
	loc, err := g.locate(q)
	if err != nil {
		return nil, err
	}

	timeAx, _, _ := g.Axis(AxisTime)
	want := timeToUnix(ts.At)
	if err := checkSpan(AxisTime, timeAx.Values, want); err != nil {
		return nil, err
	}
	tIdx := NearestIndex(timeAx.Values, want)

	res := &SampleResult{
		QueryID:      q.ID,
		MatchedTime:  unixToTime(timeAx.Values[tIdx]),
		MatchedLat:   loc.lat,
		MatchedLon:   loc.lon,
		MatchedDepth: loc.depth,
		Values:       make(map[string]float64, len(vars)),
	}
	for _, name := range vars {
		data, err := g.variable(name)
		if err != nil {
			return nil, err
		}
		res.Values[name] = g.valueAt(data, tIdx, loc)
	}
	return res, nil
}

// SampleInterval selects the time steps whose coordinates fall within
// [Start, End] inclusive (a true range selection, not nearest-matched
// endpoints) and returns the per-variable series at one spatial match. An
// empty intersection yields an empty series, not an error.
func (g *Grid) SampleInterval(q PointQuery, ts Interval, vars []string) (*SampleSeries, error) {
	loc, err := g.locate(q)
	if err != nil {
		return nil, err
	}

	timeAx, _, _ := g.Axis(AxisTime)
	lo, hi := timeToUnix(ts.Start), timeToUnix(ts.End)
	var idx []int
	for i, t := range timeAx.Values {
		if t >= lo && t <= hi {
			idx = append(idx, i)
		}
	}

	series := &SampleSeries{
		QueryID:      q.ID,
		MatchedLat:   loc.lat,
		MatchedLon:   loc.lon,
		MatchedDepth: loc.depth,
		Times:        make([]time.Time, 0, len(idx)),
		Values:       make(map[string][]float64, len(vars)),
	}
	for _, name := range vars {
		if _, err := g.variable(name); err != nil {
			return nil, err
		}
		series.Values[name] = make([]float64, 0, len(idx))
	}
	for _, i := range idx {
		series.Times = append(series.Times, unixToTime(timeAx.Values[i]))
		for _, name := range vars {
			data := g.Vars[name]
			series.Values[name] = append(series.Values[name], g.valueAt(data, i, loc))
		}
	}
	return series, nil
}

func timeToUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
