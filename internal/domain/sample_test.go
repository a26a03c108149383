package domain

import (
	"errors"
	"testing"
	"time"
)

var sampleEpoch = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

// hourlyTimes returns n hourly time coordinates starting at sampleEpoch.
func hourlyTimes(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(sampleEpoch.Add(time.Duration(i) * time.Hour).Unix())
	}
	return out
}

// buildGrid3D constructs a (time, depth, lat, lon) grid where the value at
// flat index i is float64(i), so tests can predict any position.
func buildGrid3D(times []float64, depths, lats, lons []float64, varName string) *Grid {
	total := len(times) * len(depths) * len(lats) * len(lons)
	data := make([]float64, total)
	for i := range data {
		data[i] = float64(i)
	}
	return &Grid{
		ID: "grid3d",
		Axes: []Axis{
			{Name: AxisTime, Values: times},
			{Name: AxisDepth, Values: depths},
			{Name: AxisLatitude, Values: lats},
			{Name: AxisLongitude, Values: lons},
		},
		Vars: map[string][]float64{varName: data},
	}
}

func TestSampleInstant_2DGrid(t *testing.T) {
	times := hourlyTimes(2)
	data := []float64{
		// t=0
		0, 1, 2,
		3, 4, 5,
		// t=1
		6, 7, 8,
		9, 10, 11,
	}
	g := buildGrid2D("g2d", times, []float64{40, 41}, []float64{5, 6, 7}, "uo", data)

	q := PointQuery{
		ID:        "q1",
		Latitude:  41.0,
		Longitude: 6.0,
		Time:      Instant{At: sampleEpoch.Add(time.Hour)},
	}
	res, err := g.SampleInstant(q, q.Time.(Instant), []string{"uo"})
	if err != nil {
		t.Fatalf("SampleInstant: %v", err)
	}

	if res.Values["uo"] != 10 {
		t.Errorf("uo = %v, want 10", res.Values["uo"])
	}
	if res.MatchedLat != 41.0 || res.MatchedLon != 6.0 {
		t.Errorf("matched (%v, %v), want (41, 6)", res.MatchedLat, res.MatchedLon)
	}
	if !res.MatchedTime.Equal(sampleEpoch.Add(time.Hour)) {
		t.Errorf("matched time = %v", res.MatchedTime)
	}
	if res.MatchedDepth != nil {
		t.Error("2D grid must not report a matched depth")
	}
}

func TestSampleInstant_DepthIgnoredOn2DGrid(t *testing.T) {
	g := buildGrid2D("g2d", hourlyTimes(1), []float64{40, 41}, []float64{5, 6},
		"uo", []float64{0, 1, 2, 3})

	depth := 12.5
	q := PointQuery{ID: "q1", Latitude: 40, Longitude: 5, Depth: &depth, Time: Instant{At: sampleEpoch}}

	res, err := g.SampleInstant(q, q.Time.(Instant), []string{"uo"})
	if err != nil {
		t.Fatalf("depth against 2D grid must be ignored, got %v", err)
	}
	if res.Values["uo"] != 0 {
		t.Errorf("uo = %v, want 0", res.Values["uo"])
	}
}

func TestSampleInstant_MissingDepthOn3DGrid(t *testing.T) {
	g := buildGrid3D(hourlyTimes(1), []float64{0, 10}, []float64{40, 41}, []float64{5, 6}, "so")

	q := PointQuery{ID: "q1", Latitude: 40, Longitude: 5, Time: Instant{At: sampleEpoch}}
	_, err := g.SampleInstant(q, q.Time.(Instant), []string{"so"})
	if !errors.Is(err, ErrMissingDepth) {
		t.Fatalf("expected ErrMissingDepth, got %v", err)
	}
}

func TestSampleInstant_3DGrid(t *testing.T) {
	times := hourlyTimes(2)
	depths := []float64{0, 10, 50}
	lats := []float64{40, 41}
	lons := []float64{5, 6}
	g := buildGrid3D(times, depths, lats, lons, "so")

	depth := 11.0
	q := PointQuery{
		ID:        "q1",
		Latitude:  41.0,
		Longitude: 6.0,
		Depth:     &depth,
		Time:      Instant{At: sampleEpoch.Add(time.Hour)},
	}
	res, err := g.SampleInstant(q, q.Time.(Instant), []string{"so"})
	if err != nil {
		t.Fatalf("SampleInstant: %v", err)
	}

	// Flat index ((t=1 * 3 + depth=1) * 2 + lat=1) * 2 + lon=1 = 19.
	if res.Values["so"] != 19 {
		t.Errorf("so = %v, want 19", res.Values["so"])
	}
	if res.MatchedDepth == nil || *res.MatchedDepth != 10 {
		t.Errorf("matched depth = %v, want 10", res.MatchedDepth)
	}
}

func TestSampleInstant_UnknownVariable(t *testing.T) {
	g := buildGrid2D("g2d", hourlyTimes(1), []float64{40}, []float64{5}, "uo", []float64{1})

	q := PointQuery{ID: "q1", Latitude: 40, Longitude: 5, Time: Instant{At: sampleEpoch}}
	_, err := g.SampleInstant(q, q.Time.(Instant), []string{"vo"})

	var unknown *UnknownVariableError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownVariableError, got %v", err)
	}
	if unknown.Variable != "vo" {
		t.Errorf("variable = %s, want vo", unknown.Variable)
	}
}

func TestSampleInstant_OutOfRange(t *testing.T) {
	g := buildGrid2D("g2d", hourlyTimes(1), []float64{40, 41, 42}, []float64{5, 6, 7},
		"uo", make([]float64, 9))

	q := PointQuery{ID: "q1", Latitude: 40, Longitude: 60, Time: Instant{At: sampleEpoch}}
	_, err := g.SampleInstant(q, q.Time.(Instant), []string{"uo"})

	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
	if oor.Axis != AxisLongitude {
		t.Errorf("axis = %s, want longitude", oor.Axis)
	}
}

func TestSampleInstant_MatchedTimeReturned(t *testing.T) {
	times := hourlyTimes(3)
	g := buildGrid2D("g2d", times, []float64{40}, []float64{5}, "uo", []float64{1, 2, 3})

	// 20 minutes past the first step: nearest is the first step.
	q := PointQuery{ID: "q1", Latitude: 40, Longitude: 5,
		Time: Instant{At: sampleEpoch.Add(20 * time.Minute)}}
	res, err := g.SampleInstant(q, q.Time.(Instant), []string{"uo"})
	if err != nil {
		t.Fatalf("SampleInstant: %v", err)
	}
	if !res.MatchedTime.Equal(sampleEpoch) {
		t.Errorf("matched time = %v, want %v", res.MatchedTime, sampleEpoch)
	}
	if res.Values["uo"] != 1 {
		t.Errorf("uo = %v, want 1", res.Values["uo"])
	}
}

func TestSampleInterval_SeriesLength(t *testing.T) {
	times := hourlyTimes(5)
	data := []float64{10, 11, 12, 13, 14}
	g := buildGrid2D("g2d", times, []float64{40}, []float64{5}, "uo", data)

	// [t1, t3] inclusive covers exactly three steps.
	q := PointQuery{ID: "q1", Latitude: 40, Longitude: 5,
		Time: Interval{Start: sampleEpoch.Add(time.Hour), End: sampleEpoch.Add(3 * time.Hour)}}
	s, err := g.SampleInterval(q, q.Time.(Interval), []string{"uo"})
	if err != nil {
		t.Fatalf("SampleInterval: %v", err)
	}

	if s.Len() != 3 {
		t.Fatalf("series length = %d, want 3", s.Len())
	}
	want := []float64{11, 12, 13}
	for i, v := range want {
		if s.Values["uo"][i] != v {
			t.Errorf("uo[%d] = %v, want %v", i, s.Values["uo"][i], v)
		}
	}
	if !s.Times[0].Equal(sampleEpoch.Add(time.Hour)) {
		t.Errorf("times[0] = %v", s.Times[0])
	}
}

func TestSampleInterval_EmptyIntersection(t *testing.T) {
	g := buildGrid2D("g2d", hourlyTimes(3), []float64{40}, []float64{5}, "uo", []float64{1, 2, 3})

	q := PointQuery{ID: "q1", Latitude: 40, Longitude: 5,
		Time: Interval{Start: sampleEpoch.AddDate(1, 0, 0), End: sampleEpoch.AddDate(1, 0, 1)}}
	s, err := g.SampleInterval(q, q.Time.(Interval), []string{"uo"})
	if err != nil {
		t.Fatalf("empty intersection must not error, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("series length = %d, want 0", s.Len())
	}
}

func TestSampleInterval_3DGrid(t *testing.T) {
	times := hourlyTimes(3)
	g := buildGrid3D(times, []float64{0, 10}, []float64{40, 41}, []float64{5, 6}, "so")

	depth := 0.0
	q := PointQuery{ID: "q1", Latitude: 41, Longitude: 5, Depth: &depth,
		Time: Interval{Start: sampleEpoch, End: sampleEpoch.Add(2 * time.Hour)}}
	s, err := g.SampleInterval(q, q.Time.(Interval), []string{"so"})
	if err != nil {
		t.Fatalf("SampleInterval: %v", err)
	}

	if s.Len() != 3 {
		t.Fatalf("series length = %d, want 3", s.Len())
	}
	// Flat index ((t*2 + 0) * 2 + 1) * 2 + 0 per step: 2, 10, 18.
	want := []float64{2, 10, 18}
	for i, v := range want {
		if s.Values["so"][i] != v {
			t.Errorf("so[%d] = %v, want %v", i, s.Values["so"][i], v)
		}
	}
}

func TestSample_DispatchesOnTimeSpec(t *testing.T) {
	g := buildGrid2D("g2d", hourlyTimes(2), []float64{40}, []float64{5}, "uo", []float64{1, 2})

	instant := PointQuery{ID: "qi", Latitude: 40, Longitude: 5, Time: Instant{At: sampleEpoch}}
	got, err := g.Sample(instant, []string{"uo"})
	if err != nil {
		t.Fatalf("Sample(instant): %v", err)
	}
	if _, ok := got.(*SampleResult); !ok {
		t.Errorf("instant dispatch returned %T", got)
	}

	interval := PointQuery{ID: "qr", Latitude: 40, Longitude: 5,
		Time: Interval{Start: sampleEpoch, End: sampleEpoch.Add(time.Hour)}}
	got, err = g.Sample(interval, []string{"uo"})
	if err != nil {
		t.Fatalf("Sample(interval): %v", err)
	}
	if _, ok := got.(*SampleSeries); !ok {
		t.Errorf("interval dispatch returned %T", got)
	}
}
