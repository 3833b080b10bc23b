package profiles

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DemandYearStat is the average and applied scale of one annual block.
type DemandYearStat struct {
	Index    int         `json:"index"`
	StartKey DatehourKey `json:"start_key"`
	EndKey   DatehourKey `json:"end_key"`
	Hours    int         `json:"hours"`
	Average  float64     `json:"average"`
	Scale    float64     `json:"scale"`
}

// DemandReport summarizes a demand normalization run.
type DemandReport struct {
	LastAverage float64
	Years       []DemandYearStat
}

// NormalizeDemand rescales every annual block toward the last block's average. The scale is
// blended linearly between block centers so it is continuous across year boundaries.
// The input series is not modified.
func NormalizeDemand(series Series, params Parameters) (Series, DemandReport, error) {
	var report DemandReport
	if err := params.Validate(); err != nil {
		return Series{}, report, err
	}
	if series.Len() == 0 {
		return Series{}, report, fmt.Errorf("%w: %s", ErrEmptySeries, series.Name)
	}

	raw := series.Values()
	annual := params.AnnualWindowHours
	half := float64(params.HalfYearHours)

	var averages []float64
	for start := 0; start < len(raw); start += annual {
		end := start + annual
		if end > len(raw) {
			end = len(raw)
		}
		averages = append(averages, floats.Sum(raw[start:end])/float64(end-start))
	}
	last := averages[len(averages)-1]
	scales := make([]float64, len(averages))
	for year, avg := range averages {
		scales[year] = 1
		if avg != 0 {
			scales[year] = last / avg
		}
	}
	report.LastAverage = last

	out := make([]float64, len(raw))
	for year := range averages {
		prev := scales[maxInt(0, year-1)]
		cur := scales[year]
		next := scales[minInt(year+1, len(scales)-1)]

		start := year * annual
		end := minInt(start+annual, len(raw))
		for i := start; i < end; i++ {
			offset := float64(i - start)
			var scale float64
			if offset < half {
				f := 0.5 + 0.5*offset/half
				scale = (1-f)*prev + f*cur
			} else {
				f := 0.5 * (offset - half) / half
				scale = (1-f)*cur + f*next
			}
			out[i] = roundHalfEven(raw[i] * scale)
		}
		report.Years = append(report.Years, DemandYearStat{
			Index:    year,
			StartKey: series.Samples[start].Key,
			EndKey:   series.Samples[end-1].Key,
			Hours:    end - start,
			Average:  averages[year],
			Scale:    cur,
		})
	}

	normalized, err := series.WithValues(out)
	if err != nil {
		return Series{}, report, err
	}
	return normalized, report, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
