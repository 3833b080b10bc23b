package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantBlocks(levels []float64, lengths []int) []float64 {
	var values []float64
	for i, level := range levels {
		for j := 0; j < lengths[i]; j++ {
			values = append(values, level)
		}
	}
	return values
}

func TestNormalizeDemand_UniformInputUnchanged(t *testing.T) {
	values := constantBlocks([]float64{1200, 1200, 1200}, []int{8760, 8760, 8760})
	series := hourlySeries(t, SeriesDemand, values)

	out, report, err := NormalizeDemand(series, DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, values, out.Values())
	require.Len(t, report.Years, 3)
	for _, year := range report.Years {
		assert.Equal(t, 1.0, year.Scale)
	}
}

func TestNormalizeDemand_BlendsTowardLastYear(t *testing.T) {
	values := constantBlocks([]float64{500, 1000}, []int{8760, 8760})
	out, report, err := NormalizeDemand(hourlySeries(t, SeriesDemand, values), DefaultParameters())
	require.NoError(t, err)

	assert.Equal(t, 1000.0, report.LastAverage)
	require.Len(t, report.Years, 2)
	assert.Equal(t, 2.0, report.Years[0].Scale)
	assert.Equal(t, 1.0, report.Years[1].Scale)

	got := out.Values()
	assert.Equal(t, 1000.0, got[0])
	assert.Equal(t, 1000.0, got[4380])
	assert.InDelta(t, 750.0, got[8759], 1)
	assert.Equal(t, 1500.0, got[8760])
	assert.Equal(t, 1000.0, got[8760+4380])
	assert.Equal(t, 1000.0, got[len(got)-1])
}

func TestNormalizeDemand_ScaleIsContinuousAcrossYears(t *testing.T) {
	values := constantBlocks([]float64{800, 900, 1000}, []int{8760, 8760, 8760})
	out, _, err := NormalizeDemand(hourlySeries(t, SeriesDemand, values), DefaultParameters())
	require.NoError(t, err)

	got := out.Values()
	for _, boundary := range []int{8760, 2 * 8760} {
		before := got[boundary-1] / values[boundary-1]
		after := got[boundary] / values[boundary]
		assert.InDelta(t, before, after, 0.002, "boundary %d", boundary)
	}
}

func TestNormalizeDemand_PartialFinalYear(t *testing.T) {
	values := constantBlocks([]float64{200, 400}, []int{8760, 100})
	out, report, err := NormalizeDemand(hourlySeries(t, SeriesDemand, values), DefaultParameters())
	require.NoError(t, err)

	require.Len(t, report.Years, 2)
	assert.Equal(t, 100, report.Years[1].Hours)
	assert.Equal(t, 400.0, report.LastAverage)
	assert.Equal(t, 600.0, out.Values()[8760])
}

func TestNormalizeDemand_ZeroAverageYearKeepsScale(t *testing.T) {
	values := constantBlocks([]float64{0, 100}, []int{8760, 8760})
	out, report, err := NormalizeDemand(hourlySeries(t, SeriesDemand, values), DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.Years[0].Scale)
	assert.Equal(t, 0.0, out.Values()[0])
	assert.Equal(t, 100.0, out.Values()[len(values)-1])
}

func TestNormalizeDemand_DoesNotMutateInput(t *testing.T) {
	series := hourlySeries(t, SeriesDemand, []float64{100, 110})
	out, _, err := NormalizeDemand(series, DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 110}, series.Values())
	assert.Equal(t, []float64{100, 110}, out.Values())
}

func TestNormalizeDemand_EmptySeries(t *testing.T) {
	_, _, err := NormalizeDemand(Series{Name: SeriesDemand}, DefaultParameters())
	assert.ErrorIs(t, err, ErrEmptySeries)
}
