package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"route-plan-service/internal/domain"
)

const (
	vehiclesFile = "vehicles"
	visitsFile   = "visits"
)

var (
	vehicleColumns = []string{"id", "capacity", "home_latitude", "home_longitude", "departure_time"}
	visitColumns   = []string{
		"id", "name", "latitude", "longitude", "demand",
		"min_start_time", "max_end_time", "service_duration_minutes",
	}
)

// ISO local date-time layouts; seconds may be omitted and fractional seconds
// are accepted after the seconds field.
var localDateTimeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

type vehicleRow struct {
	ID            string    `csv:"id" validate:"required"`
	Capacity      int       `csv:"capacity" validate:"gte=0"`
	Latitude      float64   `csv:"home_latitude" validate:"gte=-90,lte=90"`
	Longitude     float64   `csv:"home_longitude" validate:"gte=-180,lte=180"`
	DepartureTime time.Time `csv:"departure_time"`
}

type visitRow struct {
	ID              string        `csv:"id" validate:"required"`
	Name            string        `csv:"name"`
	Latitude        float64       `csv:"latitude" validate:"gte=-90,lte=90"`
	Longitude       float64       `csv:"longitude" validate:"gte=-180,lte=180"`
	Demand          int           `csv:"demand"`
	MinStartTime    time.Time     `csv:"min_start_time"`
	MaxEndTime      time.Time     `csv:"max_end_time" validate:"gtefield=MinStartTime"`
	ServiceDuration time.Duration `csv:"service_duration_minutes" validate:"gte=0s"`
}

// ParseVehicles reads a vehicles CSV (header row first) into Vehicles, in row order.
// Home locations are canonicalized through reg. The first bad row aborts the parse.
func ParseVehicles(src io.Reader, reg *LocationRegistry) ([]*domain.Vehicle, error) {
	t, err := openTable(vehiclesFile, src, vehicleColumns)
	if err != nil {
		return nil, fmt.Errorf("parse vehicles: %w", err)
	}

	vehicles := make([]*domain.Vehicle, 0, 16)
	for {
		s, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse vehicles: %w", err)
		}

		row := vehicleRow{
			ID:            s.str("id"),
			Capacity:      s.intField("capacity"),
			Latitude:      s.floatField("home_latitude"),
			Longitude:     s.floatField("home_longitude"),
			DepartureTime: s.timeField("departure_time"),
		}
		if err := s.check(row); err != nil {
			return nil, fmt.Errorf("parse vehicles: %w", err)
		}

		vehicles = append(vehicles, &domain.Vehicle{
			ID:            row.ID,
			Capacity:      row.Capacity,
			HomeLocation:  reg.Resolve(row.Latitude, row.Longitude),
			DepartureTime: row.DepartureTime,
		})
	}

	return vehicles, nil
}

// ParseVisits reads a visits CSV (header row first) into Visits, in row order.
// Locations are canonicalized through reg. The first bad row aborts the parse.
func ParseVisits(src io.Reader, reg *LocationRegistry) ([]*domain.Visit, error) {
	t, err := openTable(visitsFile, src, visitColumns)
	if err != nil {
		return nil, fmt.Errorf("parse visits: %w", err)
	}

	visits := make([]*domain.Visit, 0, 64)
	for {
		s, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse visits: %w", err)
		}

		row := visitRow{
			ID:              s.str("id"),
			Name:            s.str("name"),
			Latitude:        s.floatField("latitude"),
			Longitude:       s.floatField("longitude"),
			Demand:          s.intField("demand"),
			MinStartTime:    s.timeField("min_start_time"),
			MaxEndTime:      s.timeField("max_end_time"),
			ServiceDuration: time.Duration(s.int64Field("service_duration_minutes")) * time.Minute,
		}
		if err := s.check(row); err != nil {
			return nil, fmt.Errorf("parse visits: %w", err)
		}

		visits = append(visits, &domain.Visit{
			ID:              row.ID,
			Name:            row.Name,
			Location:        reg.Resolve(row.Latitude, row.Longitude),
			Demand:          row.Demand,
			MinStartTime:    row.MinStartTime,
			MaxEndTime:      row.MaxEndTime,
			ServiceDuration: row.ServiceDuration,
		})
	}

	return visits, nil
}

// table is a header-indexed CSV stream.
type table struct {
	file string
	r    *csv.Reader
	cols map[string]int
}

func openTable(file string, src io.Reader, required []string) (*table, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: %s file is required", domain.ErrMissingInput, file)
	}

	r := csv.NewReader(src)
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s file has no header row", domain.ErrMissingInput, file)
	}
	if err != nil {
		return nil, csvRecordError(file, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[h] = i
	}

	var missing []string
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"%w: %s file is missing required columns: %s",
			domain.ErrMissingInput, file, strings.Join(missing, ", "),
		)
	}

	return &table{file: file, r: r, cols: cols}, nil
}

// next returns a scanner over the next data row, or io.EOF.
func (t *table) next() (*rowScanner, error) {
	rec, err := t.r.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, csvRecordError(t.file, err)
	}

	line, _ := t.r.FieldPos(0)
	return &rowScanner{t: t, fields: rec, line: line}, nil
}

func csvRecordError(file string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &domain.RecordError{File: file, Line: pe.Line, Err: pe.Err}
	}
	return &domain.RecordError{File: file, Err: err}
}

// rowScanner converts the fields of one row. The first conversion error is
// sticky; later conversions are skipped and check reports it.
type rowScanner struct {
	t      *table
	fields []string
	line   int
	err    error
}

func (s *rowScanner) str(col string) string {
	return strings.TrimSpace(s.fields[s.t.cols[col]])
}

func (s *rowScanner) fail(col string, err error) {
	if s.err == nil {
		s.err = &domain.RecordError{File: s.t.file, Line: s.line, Column: col, Err: err}
	}
}

func (s *rowScanner) intField(col string) int {
	if s.err != nil {
		return 0
	}
	n, err := strconv.Atoi(s.str(col))
	if err != nil {
		s.fail(col, err)
	}
	return n
}

func (s *rowScanner) int64Field(col string) int64 {
	if s.err != nil {
		return 0
	}
	n, err := strconv.ParseInt(s.str(col), 10, 64)
	if err != nil {
		s.fail(col, err)
	}
	return n
}

func (s *rowScanner) floatField(col string) float64 {
	if s.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(s.str(col), 64)
	if err != nil {
		s.fail(col, err)
	}
	return f
}

func (s *rowScanner) timeField(col string) time.Time {
	if s.err != nil {
		return time.Time{}
	}
	v := s.str(col)
	for _, layout := range localDateTimeLayouts {
		if ts, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return ts
		}
	}
	s.fail(col, fmt.Errorf("invalid local date-time %q (want %s)", v, localDateTimeLayouts[0]))
	return time.Time{}
}

// check returns the sticky conversion error, else the first validation failure of row.
func (s *rowScanner) check(row any) error {
	if s.err != nil {
		return s.err
	}
	if v := validateRow(row); v != nil {
		return &domain.RecordError{File: s.t.file, Line: s.line, Column: v.column, Err: v.err}
	}
	return nil
}
