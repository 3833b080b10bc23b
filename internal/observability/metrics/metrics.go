package metrics

import (
	"database/sql"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "profiles_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	pipelineRuns    *prometheus.CounterVec
	pipelineLatency *prometheus.HistogramVec

	seriesSamples    *prometheus.GaugeVec
	mergedRows       prometheus.Gauge
	forwardFills     *prometheus.GaugeVec
	generationClamps *prometheus.GaugeVec

	capacityFactor *prometheus.GaugeVec
	demandScale    *prometheus.GaugeVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers pipeline metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		pipelineRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pipeline_runs_total",
				Help: "Total pipeline runs by result",
			},
			[]string{"result"},
		)
		pipelineLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "pipeline_run_seconds",
				Help:    "Pipeline run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		seriesSamples = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "series_samples",
				Help: "Samples loaded per input series in the last run",
			},
			[]string{"series"},
		)
		mergedRows = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "merged_rows",
				Help: "Rows in the merged table after truncation in the last run",
			},
		)
		forwardFills = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "forward_filled_rows",
				Help: "Merged rows where a series repeated its previous value",
			},
			[]string{"series"},
		)
		generationClamps = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "generation_clamped_values",
				Help: "Generation values clamped to the nameplate range",
			},
			[]string{"series"},
		)

		capacityFactor = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "generation_capacity_factor",
				Help: "Realized capacity factor per generation series and annual block",
			},
			[]string{"series", "year"},
		)
		demandScale = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "demand_year_scale",
				Help: "Scale applied to each annual demand block",
			},
			[]string{"year"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			pipelineRuns,
			pipelineLatency,
			seriesSamples,
			mergedRows,
			forwardFills,
			generationClamps,
			capacityFactor,
			demandScale,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObservePipelineRun records a run's duration and result.
func ObservePipelineRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if pipelineRuns != nil {
		pipelineRuns.WithLabelValues(result).Inc()
	}
	if pipelineLatency != nil {
		pipelineLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// SetSeriesSamples records the sample count of an input series.
func SetSeriesSamples(series string, count int) {
	if seriesSamples != nil {
		seriesSamples.WithLabelValues(series).Set(float64(count))
	}
}

// SetMergedRows records the merged table size.
func SetMergedRows(count int) {
	if mergedRows != nil {
		mergedRows.Set(float64(count))
	}
}

// SetForwardFilled records how many rows forward-filled a series.
func SetForwardFilled(series string, count int) {
	if forwardFills != nil {
		forwardFills.WithLabelValues(series).Set(float64(count))
	}
}

// SetGenerationClamped records how many values of a series were clamped.
func SetGenerationClamped(series string, count int) {
	if generationClamps != nil {
		generationClamps.WithLabelValues(series).Set(float64(count))
	}
}

// SetCapacityFactor records the realized capacity factor of a year block.
func SetCapacityFactor(series string, year int, cf float64) {
	if capacityFactor != nil {
		capacityFactor.WithLabelValues(series, strconv.Itoa(year)).Set(cf)
	}
}

// SetDemandScale records the scale applied to a demand year block.
func SetDemandScale(year int, scale float64) {
	if demandScale != nil {
		demandScale.WithLabelValues(strconv.Itoa(year)).Set(scale)
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// WriteTextfile writes the default registry in the node exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
