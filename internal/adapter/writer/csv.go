// Package writer persists extraction results as CSV tables.
package writer

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.ngs.io/extract-api/internal/domain"
)

// CSVWriter writes result tables under an output directory. Instant mode
// yields one aggregate table per dataset; interval mode yields one table per
// (dataset, query), since row counts vary per query.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a writer rooted at dir. The directory is created on
// first write.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// WriteInstant writes one row per query: id, matched coordinates, matched
// time, then one column per variable.
func (w *CSVWriter) WriteInstant(outputName string, variables []string, rows []*domain.SampleResult) (string, error) {
	path := filepath.Join(w.dir, outputName+".csv")
	f, err := w.create(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	cw := csv.NewWriter(f)
	header := append([]string{"Name", "Latitude", "Longitude", "Depth", "MatchedTime"}, variables...)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.QueryID,
			formatFloat(r.MatchedLat),
			formatFloat(r.MatchedLon),
			formatDepth(r.MatchedDepth),
			r.MatchedTime.UTC().Format(time.RFC3339),
		}
		for _, name := range variables {
			v, ok := r.Values[name]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, formatFloat(v))
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write row for query %s: %w", r.QueryID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return path, nil
}

// WriteSeries writes one table for a single query's time series: a Time
// column plus one column per variable.
func (w *CSVWriter) WriteSeries(outputName string, variables []string, s *domain.SampleSeries) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", outputName, s.QueryID))
	f, err := w.create(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	cw := csv.NewWriter(f)
	if err := cw.Write(append([]string{"Time"}, variables...)); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for i, t := range s.Times {
		record := []string{t.UTC().Format(time.RFC3339)}
		for _, name := range variables {
			vals, ok := s.Values[name]
			if !ok || i >= len(vals) {
				record = append(record, "")
				continue
			}
			record = append(record, formatFloat(vals[i]))
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return path, nil
}

func (w *CSVWriter) create(path string) (*os.File, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	//nolint:gosec // G304: Output path built from operator configuration.
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatDepth(d *float64) string {
	if d == nil {
		return ""
	}
	return formatFloat(*d)
}
