package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	profiles "hourly-profiles/internal/profiles/domain"
)

// ColumnLayout holds the zero-based column indexes of one input file.
type ColumnLayout struct {
	Date  int
	Hour  int
	Value int
}

func (l ColumnLayout) width() int {
	width := l.Date
	if l.Hour > width {
		width = l.Hour
	}
	if l.Value > width {
		width = l.Value
	}
	return width + 1
}

// Source reads one hourly series from a CSV file with a header row.
type Source struct {
	series string
	path   string
	layout ColumnLayout
	round  bool
}

// NewSource constructs a file source. round rounds quantities half to even at ingest.
func NewSource(series, path string, layout ColumnLayout, round bool) (*Source, error) {
	if series == "" {
		return nil, errors.New("csvfile: empty series name")
	}
	if path == "" {
		return nil, fmt.Errorf("csvfile: empty path for %s", series)
	}
	if layout.Date < 0 || layout.Hour < 0 || layout.Value < 0 {
		return nil, fmt.Errorf("csvfile: negative column for %s", series)
	}
	return &Source{series: series, path: path, layout: layout, round: round}, nil
}

// Path returns the file path.
func (s *Source) Path() string { return s.path }

// Load reads every record of the file.
func (s *Source) Load(ctx context.Context) ([]profiles.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadRecords(file, s.series, s.layout, s.round)
}

// ReadRecords parses CSV rows after the header. Thousands separators are stripped from
// quantities and an empty quantity reads as 0.
func ReadRecords(r io.Reader, series string, layout ColumnLayout, round bool) ([]profiles.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("csvfile: %s header: %w", series, err)
	}

	need := layout.width()
	var records []profiles.RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvfile: %s: %w", series, err)
		}
		line, _ := reader.FieldPos(0)
		if len(row) < need {
			return nil, &profiles.RecordError{
				Series: series,
				Line:   line,
				Err:    fmt.Errorf("%w: %d fields, need %d", ErrShortRow, len(row), need),
			}
		}

		date := strings.TrimSpace(row[layout.Date])
		hour, err := parseHour(row[layout.Hour])
		if err != nil {
			return nil, &profiles.RecordError{
				Series: series,
				Line:   line,
				Err:    &profiles.FormatError{Input: date, Reason: err.Error()},
			}
		}
		value, err := ParseQuantity(row[layout.Value])
		if err != nil {
			return nil, &profiles.RecordError{Series: series, Line: line, Err: err}
		}
		if round {
			value = math.RoundToEven(value)
		}
		records = append(records, profiles.RawRecord{Date: date, Hour: hour, Value: value, Line: line})
	}
	return records, nil
}

// ParseQuantity parses a numeric field. Commas are treated as thousands separators and an
// empty field is 0.
func ParseQuantity(field string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(field), ",", "")
	if cleaned == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q", profiles.ErrInvalidQuantity, field)
	}
	return value, nil
}

func parseHour(field string) (int, error) {
	trimmed := strings.TrimSpace(field)
	hour, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("hour %q is not an integer", trimmed)
	}
	return hour, nil
}
