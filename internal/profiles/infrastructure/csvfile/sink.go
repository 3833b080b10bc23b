package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
)

// WriteRows writes the merged table with its DATEHOUR,DEMAND,SOLAR,WIND header.
func WriteRows(w io.Writer, rows []profiles.MergedRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(profiles.OutputHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Key.String(),
			strconv.Itoa(row.Demand),
			strconv.Itoa(row.Solar),
			strconv.Itoa(row.Wind),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Sink writes a run's merged table to a CSV file.
type Sink struct {
	path string
}

// NewSink constructs a CSV file sink.
func NewSink(path string) (*Sink, error) {
	if path == "" {
		return nil, errors.New("csvfile: empty output path")
	}
	return &Sink{path: path}, nil
}

// Name implements application.ResultSink.
func (s *Sink) Name() string { return "csv" }

// Write implements application.ResultSink.
func (s *Sink) Write(ctx context.Context, result *application.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteFileAtomic(s.path, func(w io.Writer) error {
		return WriteRows(w, result.Rows)
	})
}

// WriteFileAtomic writes through a temp file in the target directory and renames it into
// place, so a failed write leaves any previous file untouched.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
