package domain

import (
	"errors"
	"testing"
	"time"
)

// buildGrid2D constructs a (time, lat, lon) grid with the given axes and one
// variable laid out row-major.
func buildGrid2D(id string, times, lats, lons []float64, varName string, data []float64) *Grid {
	return &Grid{
		ID: id,
		Axes: []Axis{
			{Name: AxisTime, Values: times},
			{Name: AxisLatitude, Values: lats},
			{Name: AxisLongitude, Values: lons},
		},
		Vars: map[string][]float64{varName: data},
	}
}

func TestNormalize_RenamesAliasAxes(t *testing.T) {
	g := &Grid{
		ID: "aliased",
		Axes: []Axis{
			{Name: "time", Values: []float64{0}},
			{Name: "lat", Values: []float64{40, 41}},
			{Name: "lon", Values: []float64{5, 6}},
		},
		Vars: map[string][]float64{"uo": {1, 2, 3, 4}},
	}

	if err := g.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if _, _, ok := g.Axis(AxisLatitude); !ok {
		t.Error("expected lat to be renamed to latitude")
	}
	if _, _, ok := g.Axis(AxisLongitude); !ok {
		t.Error("expected lon to be renamed to longitude")
	}
}

func TestNormalize_DescendingLatitude(t *testing.T) {
	// Latitude [42, 41, 40] descending; uo = 1.5 at (lat=42, lon=6).
	t0 := float64(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC).Unix())
	data := []float64{
		9, 1.5, 9, // lat=42
		9, 9, 9, // lat=41
		9, 9, 9, // lat=40
	}
	g := buildGrid2D("desc-lat", []float64{t0}, []float64{42, 41, 40}, []float64{5, 6, 7}, "uo", data)

	if err := g.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	latAx, _, _ := g.Axis(AxisLatitude)
	want := []float64{40, 41, 42}
	for i, v := range want {
		if latAx.Values[i] != v {
			t.Fatalf("latitude[%d] = %v, want %v", i, latAx.Values[i], v)
		}
	}

	// The same physical point must still sample 1.5.
	q := PointQuery{
		ID:        "q1",
		Latitude:  42.0,
		Longitude: 6.0,
		Time:      Instant{At: time.Unix(int64(t0), 0).UTC()},
	}
	res, err := g.SampleInstant(q, q.Time.(Instant), []string{"uo"})
	if err != nil {
		t.Fatalf("SampleInstant: %v", err)
	}
	if res.Values["uo"] != 1.5 {
		t.Errorf("uo = %v, want 1.5", res.Values["uo"])
	}
}

func TestNormalize_RoundTripValuesUnchanged(t *testing.T) {
	// Sampling before vs after normalization at the same physical point must
	// yield identical values.
	lats := []float64{44, 43, 42, 41}
	lons := []float64{10, 9, 8}
	data := make([]float64, len(lats)*len(lons))
	for i := range data {
		data[i] = float64(i) * 0.25
	}
	g := buildGrid2D("roundtrip", []float64{0}, lats, lons, "thetao", data)

	type sample struct {
		lat, lon float64
		want     float64
	}
	var expected []sample
	for i, lat := range lats {
		for j, lon := range lons {
			expected = append(expected, sample{lat: lat, lon: lon, want: data[i*len(lons)+j]})
		}
	}

	if err := g.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	for _, s := range expected {
		q := PointQuery{ID: "q", Latitude: s.lat, Longitude: s.lon, Time: Instant{At: time.Unix(0, 0)}}
		res, err := g.SampleInstant(q, q.Time.(Instant), []string{"thetao"})
		if err != nil {
			t.Fatalf("SampleInstant(%v, %v): %v", s.lat, s.lon, err)
		}
		if res.Values["thetao"] != s.want {
			t.Errorf("value at (%v, %v) = %v, want %v", s.lat, s.lon, res.Values["thetao"], s.want)
		}
	}
}

func TestNormalize_NonMonotonicLatitudeFails(t *testing.T) {
	// Mostly ascending with a leading outlier: must be rejected, not sorted.
	g := buildGrid2D("bad-lat", []float64{0}, []float64{45, 40, 41, 42}, []float64{5, 6},
		"uo", make([]float64, 8))

	err := g.Normalize()
	if err == nil {
		t.Fatal("expected error for non-monotonic latitude")
	}
	var normErr *NormalizationError
	if !errors.As(err, &normErr) {
		t.Fatalf("expected NormalizationError, got %T", err)
	}
}

func TestNormalize_DescendingDepthAndTimeKeepNativeOrder(t *testing.T) {
	g := &Grid{
		ID: "native-depth",
		Axes: []Axis{
			{Name: AxisTime, Values: []float64{100, 200}},
			{Name: AxisDepth, Values: []float64{500, 100, 10}},
			{Name: AxisLatitude, Values: []float64{40, 41}},
			{Name: AxisLongitude, Values: []float64{5, 6}},
		},
		Vars: map[string][]float64{"so": make([]float64, 24)},
	}

	if err := g.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	depthAx, _, _ := g.Axis(AxisDepth)
	if depthAx.Values[0] != 500 {
		t.Errorf("depth axis was reordered: %v", depthAx.Values)
	}
}

func TestValidate_VariableLengthMismatch(t *testing.T) {
	g := buildGrid2D("bad-var", []float64{0}, []float64{40, 41}, []float64{5, 6},
		"uo", make([]float64, 3))

	if err := g.Validate(); err == nil {
		t.Fatal("expected error for variable length mismatch")
	}
}

func TestValidate_AxisOrder(t *testing.T) {
	g := &Grid{
		ID: "wrong-order",
		Axes: []Axis{
			{Name: AxisLatitude, Values: []float64{40}},
			{Name: AxisTime, Values: []float64{0}},
			{Name: AxisLongitude, Values: []float64{5}},
		},
		Vars: map[string][]float64{"uo": {1}},
	}

	if err := g.Validate(); err == nil {
		t.Fatal("expected error for out-of-order axes")
	}
}

func TestReverseDim_InnerDimension(t *testing.T) {
	// Shape (2, 3): reversing dim 1 flips each row.
	data := []float64{1, 2, 3, 4, 5, 6}
	reverseDim(data, []int{2, 3}, 1)

	want := []float64{3, 2, 1, 6, 5, 4}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("data = %v, want %v", data, want)
		}
	}
}

func TestReverseDim_MiddleDimension(t *testing.T) {
	// Shape (2, 2, 2): reversing dim 1 swaps the two middle blocks per outer.
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	reverseDim(data, []int{2, 2, 2}, 1)

	want := []float64{3, 4, 1, 2, 7, 8, 5, 6}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("data = %v, want %v", data, want)
		}
	}
}
