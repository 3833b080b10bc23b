package profiles

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// CapacityFactorStat is the realized capacity factor of one annual block.
type CapacityFactorStat struct {
	Index          int
	StartKey       DatehourKey
	EndKey         DatehourKey
	Hours          int
	CapacityFactor float64
}

// GenerationReport summarizes a generation normalization run.
type GenerationReport struct {
	Series         string
	TargetCF       float64
	PeakRaw        float64
	Renormalized   int
	Clamped        int
	CapacityFactor []CapacityFactorStat
}

// NormalizeGeneration rescales a raw generation series onto the 0-1000 nameplate scale and
// then renormalizes each value so the year ahead of it averages targetCF.
// The input series is not modified.
func NormalizeGeneration(series Series, targetCF float64, params Parameters) (Series, GenerationReport, error) {
	report := GenerationReport{Series: series.Name, TargetCF: targetCF}
	if err := params.Validate(); err != nil {
		return Series{}, report, err
	}
	if err := validateCapacityFactor(targetCF); err != nil {
		return Series{}, report, fmt.Errorf("%s: %w", series.Name, err)
	}
	if series.Len() == 0 {
		return Series{}, report, fmt.Errorf("%w: %s", ErrEmptySeries, series.Name)
	}

	raw := series.Values()
	report.PeakRaw = floats.Max(raw)

	detrended, clamped := detrendCapacity(raw, params.CapacityWindowHours)
	report.Clamped += clamped

	values, renormalized, clamped := renormalizeCapacityFactor(detrended, targetCF, params)
	report.Renormalized = renormalized
	report.Clamped += clamped

	out, err := series.WithValues(values)
	if err != nil {
		return Series{}, report, err
	}
	report.CapacityFactor = capacityFactorsByYear(out, params.AnnualWindowHours)
	return out, report, nil
}

// detrendCapacity divides out capacity growth so the estimated nameplate maps to 1000.
func detrendCapacity(raw []float64, window int) ([]float64, int) {
	maxes := RunningMax(raw)
	out := make([]float64, len(raw))
	clamped := 0
	for i, v := range raw {
		capacity := EstimateCapacity(maxes, i, window)
		if capacity <= 0 {
			continue
		}
		scaled, wasClamped := clampGeneration(roundHalfEven(v * NominalCapacity / capacity))
		if wasClamped {
			clamped++
		}
		out[i] = scaled
	}
	return out, clamped
}

// renormalizeCapacityFactor scales each index by targetCF over the mean of the annual window
// starting at it. Indices whose window is not longer than half a year keep their value.
func renormalizeCapacityFactor(values []float64, targetCF float64, params Parameters) ([]float64, int, int) {
	n := len(values)
	prefix := make([]float64, n+1)
	floats.CumSum(prefix[1:], values)

	out := make([]float64, n)
	copy(out, values)
	renormalized, clamped := 0, 0
	for i := 0; i < n; i++ {
		end := i + params.AnnualWindowHours
		if end > n {
			end = n
		}
		if end-i <= params.HalfYearHours {
			continue
		}
		renormalized++
		mean := (prefix[end] - prefix[i]) / float64(end-i)
		if mean <= 0 {
			out[i] = 0
			continue
		}
		adjust := targetCF / (mean / NominalCapacity)
		scaled, wasClamped := clampGeneration(roundHalfEven(values[i] * adjust))
		if wasClamped {
			clamped++
		}
		out[i] = scaled
	}
	return out, renormalized, clamped
}

func capacityFactorsByYear(series Series, annual int) []CapacityFactorStat {
	values := series.Values()
	var stats []CapacityFactorStat
	for start, year := 0, 0; start < len(values); start, year = start+annual, year+1 {
		end := start + annual
		if end > len(values) {
			end = len(values)
		}
		hours := end - start
		stats = append(stats, CapacityFactorStat{
			Index:          year,
			StartKey:       series.Samples[start].Key,
			EndKey:         series.Samples[end-1].Key,
			Hours:          hours,
			CapacityFactor: floats.Sum(values[start:end]) / (float64(hours) * NominalCapacity),
		})
	}
	return stats
}

func clampGeneration(v float64) (float64, bool) {
	switch {
	case v < 0:
		return 0, true
	case v > NominalCapacity:
		return NominalCapacity, true
	default:
		return v, false
	}
}

// roundHalfEven rounds to the nearest integer, ties to even.
func roundHalfEven(v float64) float64 {
	return math.RoundToEven(v)
}
