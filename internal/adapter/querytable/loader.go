// Package querytable parses point-query tables from CSV files.
package querytable

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.ngs.io/extract-api/internal/domain"
)

// Mode selects how the table's queries address the time axis. The header
// decides: a Date column means instant mode, Start+End mean interval mode.
type Mode int

const (
	ModeInstant Mode = iota
	ModeInterval
)

func (m Mode) String() string {
	if m == ModeInterval {
		return "interval"
	}
	return "instant"
}

// Table is a parsed query table.
type Table struct {
	Mode    Mode
	Queries []domain.PointQuery
}

// Expected column names, case-sensitive as consumed downstream.
const (
	colLatitude  = "Latitude"
	colLongitude = "Longitude"
	colDepth     = "Depth"
	colName      = "Name"
	colVariables = "Variables"
	colDate      = "Date"
	colStart     = "Start"
	colEnd       = "End"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Load parses a CSV query table. Every query gets a stable id: the Name
// column when present, else q<row>.
func Load(path string) (*Table, error) {
	//nolint:gosec // G304: Path comes from operator configuration.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open query table: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read query table header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}

	if _, ok := cols[colLatitude]; !ok {
		return nil, fmt.Errorf("query table missing %s column", colLatitude)
	}
	if _, ok := cols[colLongitude]; !ok {
		return nil, fmt.Errorf("query table missing %s column", colLongitude)
	}

	mode, err := detectMode(cols)
	if err != nil {
		return nil, err
	}

	table := &Table{Mode: mode}
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read query table row %d: %w", row, err)
		}

		q, err := parseQuery(record, cols, mode, row)
		if err != nil {
			return nil, err
		}
		table.Queries = append(table.Queries, q)
	}

	if len(table.Queries) == 0 {
		return nil, fmt.Errorf("query table %s has no rows", path)
	}
	return table, nil
}

func detectMode(cols map[string]int) (Mode, error) {
	_, hasDate := cols[colDate]
	_, hasStart := cols[colStart]
	_, hasEnd := cols[colEnd]

	switch {
	case hasDate && (hasStart || hasEnd):
		return 0, fmt.Errorf("query table mixes %s with %s/%s columns", colDate, colStart, colEnd)
	case hasDate:
		return ModeInstant, nil
	case hasStart && hasEnd:
		return ModeInterval, nil
	case hasStart || hasEnd:
		return 0, fmt.Errorf("interval mode needs both %s and %s columns", colStart, colEnd)
	default:
		return 0, fmt.Errorf("query table needs a %s column or %s+%s columns", colDate, colStart, colEnd)
	}
}

func parseQuery(record []string, cols map[string]int, mode Mode, row int) (domain.PointQuery, error) {
	cell := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	var q domain.PointQuery

	latStr, _ := cell(colLatitude)
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return q, fmt.Errorf("row %d: invalid %s %q", row, colLatitude, latStr)
	}
	lonStr, _ := cell(colLongitude)
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return q, fmt.Errorf("row %d: invalid %s %q", row, colLongitude, lonStr)
	}
	q.Latitude = lat
	q.Longitude = lon

	if s, ok := cell(colDepth); ok && s != "" {
		depth, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, fmt.Errorf("row %d: invalid %s %q", row, colDepth, s)
		}
		q.Depth = &depth
	}

	if s, ok := cell(colName); ok && s != "" {
		q.ID = s
	} else {
		q.ID = fmt.Sprintf("q%d", row)
	}

	if s, ok := cell(colVariables); ok && s != "" {
		for _, v := range strings.Split(s, ";") {
			if v = strings.TrimSpace(v); v != "" {
				q.Variables = append(q.Variables, v)
			}
		}
	}

	switch mode {
	case ModeInstant:
		s, _ := cell(colDate)
		at, err := parseTime(s)
		if err != nil {
			return q, fmt.Errorf("row %d: invalid %s %q", row, colDate, s)
		}
		q.Time = domain.Instant{At: at}
	case ModeInterval:
		s, _ := cell(colStart)
		start, err := parseTime(s)
		if err != nil {
			return q, fmt.Errorf("row %d: invalid %s %q", row, colStart, s)
		}
		s, _ = cell(colEnd)
		end, err := parseTime(s)
		if err != nil {
			return q, fmt.Errorf("row %d: invalid %s %q", row, colEnd, s)
		}
		if end.Before(start) {
			return q, fmt.Errorf("row %d: %s is before %s", row, colEnd, colStart)
		}
		q.Time = domain.Interval{Start: start, End: end}
	}

	return q, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
