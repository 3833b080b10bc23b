package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	profiles "hourly-profiles/internal/profiles/domain"
)

var (
	// ErrMissingSource is returned when a pipeline is built without one of its three inputs.
	ErrMissingSource = errors.New("pipeline: missing source")
	// ErrNoRun is returned when no pipeline run has been recorded yet.
	ErrNoRun = errors.New("pipeline: no run recorded")
)

// SeriesSource yields the raw records of one input series.
type SeriesSource interface {
	Load(ctx context.Context) ([]profiles.RawRecord, error)
}

// ResultSink receives a completed run.
type ResultSink interface {
	Name() string
	Write(ctx context.Context, result *Result) error
}

// ProfileReader serves the latest recorded run.
type ProfileReader interface {
	LatestRun(ctx context.Context) (*RunSummary, error)
	ListRows(ctx context.Context, from, to profiles.DatehourKey) ([]profiles.MergedRow, error)
}

// RunTrigger starts a pipeline run and publishes it.
type RunTrigger interface {
	Trigger(ctx context.Context) (*RunSummary, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now in UTC.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Sources groups the three pipeline inputs.
type Sources struct {
	Demand SeriesSource
	Solar  SeriesSource
	Wind   SeriesSource
}

func (s Sources) validate() error {
	switch {
	case s.Demand == nil:
		return fmt.Errorf("%w: %s", ErrMissingSource, profiles.SeriesDemand)
	case s.Solar == nil:
		return fmt.Errorf("%w: %s", ErrMissingSource, profiles.SeriesSolar)
	case s.Wind == nil:
		return fmt.Errorf("%w: %s", ErrMissingSource, profiles.SeriesWind)
	}
	return nil
}
