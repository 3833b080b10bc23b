package interfaces

import (
	"context"
	"errors"
	"io"

	"hourly-profiles/internal/profiles/application"
	"hourly-profiles/internal/profiles/infrastructure/csvfile"
)

// RenderFunc turns a run into file content.
type RenderFunc func(result *application.Result) ([]byte, error)

// FileSink writes a rendered run to a path.
type FileSink struct {
	name   string
	path   string
	render RenderFunc
}

// NewFileSink constructs a sink.
func NewFileSink(name, path string, render RenderFunc) (*FileSink, error) {
	if path == "" {
		return nil, errors.New("file sink: empty path")
	}
	if render == nil {
		return nil, errors.New("file sink: nil renderer")
	}
	return &FileSink{name: name, path: path, render: render}, nil
}

// NewXLSXSink writes the workbook built by BuildProfilesXLSX.
func NewXLSXSink(path string) (*FileSink, error) {
	return NewFileSink("xlsx", path, func(result *application.Result) ([]byte, error) {
		summary := result.Summary()
		return BuildProfilesXLSX(&summary, result.Rows)
	})
}

// NewPDFSink writes the report built by BuildRunReportPDF.
func NewPDFSink(path string) (*FileSink, error) {
	return NewFileSink("pdf", path, func(result *application.Result) ([]byte, error) {
		summary := result.Summary()
		return BuildRunReportPDF(&summary)
	})
}

// Name implements application.ResultSink.
func (s *FileSink) Name() string { return s.name }

// Write implements application.ResultSink.
func (s *FileSink) Write(ctx context.Context, result *application.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := s.render(result)
	if err != nil {
		return err
	}
	return csvfile.WriteFileAtomic(s.path, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
}
