package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"hourly-profiles/internal/observability/metrics"
	profiles "hourly-profiles/internal/profiles/domain"
)

// Pipeline loads the three input series, normalizes them and merges them into one table.
type Pipeline struct {
	sources Sources
	params  profiles.Parameters
	logger  *log.Logger
	clock   Clock
	newID   func() string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithClock overrides the clock used for run timestamps.
func WithClock(clock Clock) PipelineOption {
	return func(p *Pipeline) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithRunIDGenerator overrides the run id generator.
func WithRunIDGenerator(fn func() string) PipelineOption {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// NewPipeline constructs a pipeline. Zero parameters take their defaults.
func NewPipeline(sources Sources, params profiles.Parameters, logger *log.Logger, opts ...PipelineOption) (*Pipeline, error) {
	if err := sources.validate(); err != nil {
		return nil, err
	}
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	p := &Pipeline{
		sources: sources,
		params:  params,
		logger:  logger,
		clock:   SystemClock{},
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Parameters returns the effective parameters.
func (p *Pipeline) Parameters() profiles.Parameters {
	return p.params
}

// Run executes one full pass: load, normalize, merge, truncate.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	status := metrics.ResultSuccess
	defer func() {
		metrics.ObservePipelineRun(status, time.Since(start))
	}()

	res, err := p.run(ctx)
	if err != nil {
		status = metrics.ResultError
		p.logger.Printf("pipeline: run failed: %v", err)
		return nil, err
	}
	p.logger.Printf("pipeline: run=%s rows=%d first=%s last=%s elapsed=%s",
		res.RunID, len(res.Rows), firstKey(res.Rows), lastKey(res.Rows), time.Since(start))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:      p.newID(),
		StartedAt:  p.clock.Now(),
		Parameters: p.params,
	}

	demand, err := p.load(ctx, profiles.SeriesDemand, profiles.HeaderDemand, p.sources.Demand)
	if err != nil {
		return nil, err
	}
	solar, err := p.load(ctx, profiles.SeriesSolar, profiles.HeaderSolar, p.sources.Solar)
	if err != nil {
		return nil, err
	}
	wind, err := p.load(ctx, profiles.SeriesWind, profiles.HeaderWind, p.sources.Wind)
	if err != nil {
		return nil, err
	}
	for _, series := range []profiles.Series{demand, solar, wind} {
		res.Inputs = append(res.Inputs, SeriesSummary{
			Name:     series.Name,
			Header:   series.Header,
			Samples:  series.Len(),
			FirstKey: series.FirstKey(),
			LastKey:  series.LastKey(),
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	solar, res.Solar, err = profiles.NormalizeGeneration(solar, p.params.SolarCapacityFactor, p.params)
	if err != nil {
		return nil, fmt.Errorf("normalize solar: %w", err)
	}
	p.logGeneration(res.Solar)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wind, res.Wind, err = profiles.NormalizeGeneration(wind, p.params.WindCapacityFactor, p.params)
	if err != nil {
		return nil, fmt.Errorf("normalize wind: %w", err)
	}
	p.logGeneration(res.Wind)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	demand, res.Demand, err = profiles.NormalizeDemand(demand, p.params)
	if err != nil {
		return nil, fmt.Errorf("normalize demand: %w", err)
	}
	for _, year := range res.Demand.Years {
		metrics.SetDemandScale(year.StartKey.Year(), year.Scale)
		p.logger.Printf("pipeline: demand year=%d start=%s hours=%d average=%.2f scale=%.4f",
			year.Index, year.StartKey, year.Hours, year.Average, year.Scale)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, stats, err := profiles.Merge(demand, solar, wind)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	res.Merge = stats
	for name, count := range stats.ForwardFilled {
		metrics.SetForwardFilled(name, count)
		if count > 0 {
			p.logger.Printf("pipeline: series=%s forward_filled=%d", name, count)
		}
	}

	rows, err = profiles.TruncateFrom(rows, p.params.Cutover)
	if err != nil {
		return nil, err
	}
	res.Rows = rows
	res.FinishedAt = p.clock.Now()
	metrics.SetMergedRows(len(rows))
	return res, nil
}

func (p *Pipeline) load(ctx context.Context, name, header string, source SeriesSource) (profiles.Series, error) {
	if err := ctx.Err(); err != nil {
		return profiles.Series{}, err
	}
	records, err := source.Load(ctx)
	if err != nil {
		return profiles.Series{}, fmt.Errorf("load %s: %w", name, err)
	}
	series, err := profiles.BuildSeries(name, header, records)
	if err != nil {
		return profiles.Series{}, fmt.Errorf("load %s: %w", name, err)
	}
	if series.Len() == 0 {
		return profiles.Series{}, fmt.Errorf("load %s: %w", name, profiles.ErrEmptySeries)
	}
	metrics.SetSeriesSamples(name, series.Len())
	p.logger.Printf("pipeline: loaded series=%s samples=%d first=%s last=%s",
		name, series.Len(), series.FirstKey(), series.LastKey())
	return series, nil
}

func (p *Pipeline) logGeneration(report profiles.GenerationReport) {
	metrics.SetGenerationClamped(report.Series, report.Clamped)
	p.logger.Printf("pipeline: series=%s target_cf=%.3f peak_raw=%.2f renormalized=%d clamped=%d",
		report.Series, report.TargetCF, report.PeakRaw, report.Renormalized, report.Clamped)
	for _, stat := range report.CapacityFactor {
		metrics.SetCapacityFactor(report.Series, stat.StartKey.Year(), stat.CapacityFactor)
		p.logger.Printf("pipeline: series=%s year=%d start=%s hours=%d cf=%.4f",
			report.Series, stat.Index, stat.StartKey, stat.Hours, stat.CapacityFactor)
	}
}

// Publish hands a result to every sink. All sinks are attempted; failures are joined.
func (p *Pipeline) Publish(ctx context.Context, result *Result, sinks ...ResultSink) error {
	if result == nil {
		return errors.New("pipeline: nil result")
	}
	var errs []error
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		status := metrics.ResultSuccess
		if err := sink.Write(ctx, result); err != nil {
			status = metrics.ResultError
			p.logger.Printf("pipeline: sink=%s run=%s failed: %v", sink.Name(), result.RunID, err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		} else {
			p.logger.Printf("pipeline: sink=%s run=%s rows=%d", sink.Name(), result.RunID, len(result.Rows))
		}
		metrics.ObserveExport(sink.Name(), status, time.Since(start))
	}
	return errors.Join(errs...)
}

func firstKey(rows []profiles.MergedRow) profiles.DatehourKey {
	if len(rows) == 0 {
		return ""
	}
	return rows[0].Key
}

func lastKey(rows []profiles.MergedRow) profiles.DatehourKey {
	if len(rows) == 0 {
		return ""
	}
	return rows[len(rows)-1].Key
}
