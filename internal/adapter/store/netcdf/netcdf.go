// Package netcdf loads grid datasets from NetCDF files.
package netcdf

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/extract-api/internal/domain"
)

// Axis coordinate variable candidates, tried in order. The found name is kept
// on the axis; canonical renaming is the normalizer's job.
var (
	timeNames  = []string{"time"}
	depthNames = []string{"depth"}
	latNames   = []string{"latitude", "lat"}
	lonNames   = []string{"longitude", "lon"}
)

// Store loads grid datasets from NetCDF files under a data directory. Grids
// are normalized before they enter the cache, so every caller shares one
// read-only copy.
type Store struct {
	dataDir string
	cache   map[string]*domain.Grid
	mu      sync.RWMutex
}

// NewStore creates a NetCDF-backed dataset store.
func NewStore(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
		cache:   make(map[string]*domain.Grid),
	}
}

// Fetch resolves a dataset identifier to a normalized grid. The identifier is
// either a path to a .nc file or a bare name resolved under the data
// directory. A grid is never cached un-normalized, so concurrent callers may
// sample the shared copy without coordination.
func (s *Store) Fetch(ctx context.Context, datasetID string) (*domain.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	if grid, ok := s.cache[datasetID]; ok {
		s.mu.RUnlock()
		return grid, nil
	}
	s.mu.RUnlock()

	grid, err := loadGrid(s.resolvePath(datasetID), datasetID)
	if err != nil {
		return nil, &domain.FetchError{Dataset: datasetID, Err: err}
	}
	if err := grid.Normalize(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another caller may have loaded the same dataset meanwhile; keep the
	// published copy so everyone holds one pointer.
	if cached, ok := s.cache[datasetID]; ok {
		return cached, nil
	}
	s.cache[datasetID] = grid
	return grid, nil
}

func (s *Store) resolvePath(datasetID string) string {
	if strings.HasSuffix(datasetID, ".nc") {
		if filepath.IsAbs(datasetID) {
			return datasetID
		}
		return filepath.Join(s.dataDir, datasetID)
	}
	return filepath.Join(s.dataDir, datasetID+".nc")
}

// loadGrid reads the coordinate axes and every conforming data variable from
// a NetCDF file.
//
//nolint:gocyclo // NetCDF loading walks several variable name patterns.
func loadGrid(path, datasetID string) (*domain.Grid, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	timeVar, timeName, err := findVar(nc, timeNames)
	if err != nil {
		return nil, fmt.Errorf("time axis not found (tried %v)", timeNames)
	}
	latVar, latName, err := findVar(nc, latNames)
	if err != nil {
		return nil, fmt.Errorf("latitude axis not found (tried %v)", latNames)
	}
	lonVar, lonName, err := findVar(nc, lonNames)
	if err != nil {
		return nil, fmt.Errorf("longitude axis not found (tried %v)", lonNames)
	}

	timeVals, err := readValues(timeVar)
	if err != nil {
		return nil, fmt.Errorf("failed to read time axis: %w", err)
	}
	timeVals, err = decodeTimes(timeVar, timeVals)
	if err != nil {
		return nil, fmt.Errorf("failed to decode time axis: %w", err)
	}
	latVals, err := readValues(latVar)
	if err != nil {
		return nil, fmt.Errorf("failed to read latitude axis: %w", err)
	}
	lonVals, err := readValues(lonVar)
	if err != nil {
		return nil, fmt.Errorf("failed to read longitude axis: %w", err)
	}

	axes := []domain.Axis{{Name: timeName, Values: timeVals}}
	axisNames := []string{timeName}

	depthVar, depthName, err := findVar(nc, depthNames)
	if err == nil {
		depthVals, err := readValues(depthVar)
		if err != nil {
			return nil, fmt.Errorf("failed to read depth axis: %w", err)
		}
		axes = append(axes, domain.Axis{Name: depthName, Values: depthVals})
		axisNames = append(axisNames, depthName)
	}

	axes = append(axes,
		domain.Axis{Name: latName, Values: latVals},
		domain.Axis{Name: lonName, Values: lonVals},
	)
	axisNames = append(axisNames, latName, lonName)

	vars, err := readDataVars(nc, axisNames)
	if err != nil {
		return nil, err
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("no data variables with dimensions %v", axisNames)
	}

	return &domain.Grid{ID: datasetID, Axes: axes, Vars: vars}, nil
}

// findVar tries candidate variable names and returns the first match.
func findVar(nc netcdf.Dataset, candidates []string) (netcdf.Var, string, error) {
	for _, name := range candidates {
		if v, err := nc.Var(name); err == nil {
			return v, name, nil
		}
	}
	return netcdf.Var{}, "", fmt.Errorf("not found")
}

// readDataVars reads every variable whose dimensions match the axis names in
// order. Coordinate variables and bounds variables fall out naturally.
func readDataVars(nc netcdf.Dataset, axisNames []string) (map[string][]float64, error) {
	nVars, err := nc.NVars()
	if err != nil {
		return nil, fmt.Errorf("failed to count variables: %w", err)
	}

	vars := make(map[string][]float64)
	for i := 0; i < nVars; i++ {
		v := nc.VarN(i)
		name, err := v.Name()
		if err != nil {
			continue
		}
		dims, err := v.Dims()
		if err != nil || len(dims) != len(axisNames) {
			continue
		}
		match := true
		for j, d := range dims {
			dimName, err := d.Name()
			if err != nil || dimName != axisNames[j] {
				match = false
				break
			}
		}
		if !match {
			continue
		}

		data, err := readValues(v)
		if err != nil {
			return nil, fmt.Errorf("failed to read variable %s: %w", name, err)
		}
		applyPacking(v, data)
		vars[name] = data
	}
	return vars, nil
}

// readValues reads a variable of any supported numeric type as float64.
func readValues(v netcdf.Var) ([]float64, error) {
	length, err := v.Len()
	if err != nil {
		return nil, err
	}
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, length)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, length)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.SHORT:
		tmp := make([]int16, length)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT64:
		tmp := make([]int64, length)
		if err := v.ReadInt64s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.BYTE, netcdf.CHAR, netcdf.UBYTE, netcdf.USHORT, netcdf.UINT, netcdf.UINT64, netcdf.STRING:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

// applyPacking replaces fill values with NaN, then applies scale_factor and
// add_offset when present.
func applyPacking(v netcdf.Var, data []float64) {
	if fill, ok := attrFloat(v, "_FillValue", "missing_value"); ok {
		for i := range data {
			if data[i] == fill {
				data[i] = math.NaN()
			}
		}
	}
	scale, hasScale := attrFloat(v, "scale_factor")
	offset, hasOffset := attrFloat(v, "add_offset")
	if !hasScale && !hasOffset {
		return
	}
	if !hasScale {
		scale = 1
	}
	for i := range data {
		data[i] = data[i]*scale + offset
	}
}

// attrFloat returns the first present attribute as float64.
func attrFloat(v netcdf.Var, names ...string) (float64, bool) {
	for _, name := range names {
		a := v.Attr(name)
		n, err := a.Len()
		if err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
		bufi := make([]int32, 1)
		if err := a.ReadInt32s(bufi); err == nil {
			return float64(bufi[0]), true
		}
	}
	return 0, false
}

// attrText returns a text attribute value if present.
func attrText(v netcdf.Var, name string) (string, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return "", false
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", false
	}
	return strings.TrimRight(string(buf), "\x00"), true
}

// decodeTimes converts CF-style time coordinates ("<unit> since <epoch>") to
// Unix seconds. Without a units attribute the values are taken as Unix
// seconds already.
func decodeTimes(v netcdf.Var, vals []float64) ([]float64, error) {
	units, ok := attrText(v, "units")
	if !ok {
		return vals, nil
	}
	scale, ref, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	refSec := float64(ref.Unix())
	for i, val := range vals {
		out[i] = refSec + val*scale
	}
	return out, nil
}

var refTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimeUnits parses a CF units string like "hours since 1950-01-01 00:00:00".
func parseTimeUnits(units string) (float64, time.Time, error) {
	fields := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(fields) != 2 {
		return 0, time.Time{}, fmt.Errorf("unrecognized time units %q", units)
	}

	var scale float64
	switch strings.ToLower(strings.TrimSpace(fields[0])) {
	case "seconds", "second", "s":
		scale = 1
	case "minutes", "minute", "min":
		scale = 60
	case "hours", "hour", "h":
		scale = 3600
	case "days", "day", "d":
		scale = 86400
	default:
		return 0, time.Time{}, fmt.Errorf("unrecognized time unit %q", fields[0])
	}

	refStr := strings.TrimSpace(fields[1])
	for _, layout := range refTimeLayouts {
		if ref, err := time.Parse(layout, refStr); err == nil {
			return scale, ref.UTC(), nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("unrecognized reference time %q", refStr)
}
