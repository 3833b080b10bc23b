package application

import (
	"time"

	profiles "hourly-profiles/internal/profiles/domain"
)

// SeriesSummary describes one loaded input series.
type SeriesSummary struct {
	Name     string               `json:"name"`
	Header   string               `json:"header"`
	Samples  int                  `json:"samples"`
	FirstKey profiles.DatehourKey `json:"first_key"`
	LastKey  profiles.DatehourKey `json:"last_key"`
}

// YearCapacityFactor is the realized capacity factor of one generation series for one annual block.
type YearCapacityFactor struct {
	Series         string               `json:"series"`
	Index          int                  `json:"index"`
	StartKey       profiles.DatehourKey `json:"start_key"`
	EndKey         profiles.DatehourKey `json:"end_key"`
	Hours          int                  `json:"hours"`
	CapacityFactor float64              `json:"capacity_factor"`
}

// Result is the output of one pipeline run.
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Parameters profiles.Parameters
	Inputs     []SeriesSummary
	Rows       []profiles.MergedRow
	Merge      profiles.MergeStats
	Solar      profiles.GenerationReport
	Wind       profiles.GenerationReport
	Demand     profiles.DemandReport
}

// RunSummary is the persisted view of a run without its rows.
type RunSummary struct {
	RunID           string                    `json:"run_id"`
	StartedAt       time.Time                 `json:"started_at"`
	FinishedAt      time.Time                 `json:"finished_at"`
	Parameters      profiles.Parameters       `json:"parameters"`
	Rows            int                       `json:"rows"`
	FirstKey        profiles.DatehourKey      `json:"first_key"`
	LastKey         profiles.DatehourKey      `json:"last_key"`
	Inputs          []SeriesSummary           `json:"inputs"`
	ForwardFilled   map[string]int            `json:"forward_filled"`
	CapacityFactors []YearCapacityFactor      `json:"capacity_factors"`
	DemandYears     []profiles.DemandYearStat `json:"demand_years"`
}

// Summary builds the row-less view of the result.
func (r *Result) Summary() RunSummary {
	summary := RunSummary{
		RunID:         r.RunID,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		Parameters:    r.Parameters,
		Rows:          len(r.Rows),
		Inputs:        r.Inputs,
		ForwardFilled: r.Merge.ForwardFilled,
		DemandYears:   r.Demand.Years,
	}
	if len(r.Rows) > 0 {
		summary.FirstKey = r.Rows[0].Key
		summary.LastKey = r.Rows[len(r.Rows)-1].Key
	}
	for _, report := range []profiles.GenerationReport{r.Solar, r.Wind} {
		for _, stat := range report.CapacityFactor {
			summary.CapacityFactors = append(summary.CapacityFactors, YearCapacityFactor{
				Series:         report.Series,
				Index:          stat.Index,
				StartKey:       stat.StartKey,
				EndKey:         stat.EndKey,
				Hours:          stat.Hours,
				CapacityFactor: stat.CapacityFactor,
			})
		}
	}
	return summary
}

// FilterRows returns the rows with from <= key < to. Empty bounds are open.
func FilterRows(rows []profiles.MergedRow, from, to profiles.DatehourKey) []profiles.MergedRow {
	result := make([]profiles.MergedRow, 0, len(rows))
	for _, row := range rows {
		if from != "" && row.Key < from {
			continue
		}
		if to != "" && row.Key >= to {
			continue
		}
		result = append(result, row)
	}
	return result
}
