package integration_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
	"hourly-profiles/internal/profiles/infrastructure/csvfile"
	"hourly-profiles/internal/profiles/infrastructure/memory"
)

var monthAbbrev = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// writeHourlyFiles writes three years of hour-ending data starting 2011-01-01.
// Solar skips every 97th hour so the merge has to forward-fill it.
func writeHourlyFiles(t *testing.T, dir string) (application.Config, int) {
	t.Helper()
	var demand, solar, wind bytes.Buffer
	demand.WriteString("Date,Hour,Zone,Load\n")
	solar.WriteString("Id,Date,Hour,MW\n")
	wind.WriteString("Id,Date,Hour,MW\n")

	start := time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)
	hours := 0
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		slash := fmt.Sprintf("%d/%d/%02d", int(day.Month()), day.Day(), day.Year()%100)
		dashed := fmt.Sprintf("%d-%s-%02d", day.Day(), monthAbbrev[day.Month()-1], day.Year()%100)
		growth := 1 + float64(day.Year()-2011)*0.5
		for hour := 1; hour <= 24; hour++ {
			load := 12000 + 3000*math.Sin(float64(hour)/24*2*math.Pi)*growth
			fmt.Fprintf(&demand, "%s,%d,ISONE,\"%s\"\n", slash, hour, thousands(load))

			sun := math.Max(0, math.Sin(float64(hour-6)/12*math.Pi)) * 80 * growth
			if hours%97 != 5 {
				fmt.Fprintf(&solar, "s,%s,%d,%.2f\n", dashed, hour, sun)
			}

			gust := (50 + 20*math.Cos(float64(hours)/37)) * growth
			fmt.Fprintf(&wind, "w,%s,%d,%.2f\n", slash, hour, gust)
			hours++
		}
	}

	paths := map[string]*bytes.Buffer{"demand.csv": &demand, "solar.csv": &solar, "wind.csv": &wind}
	for name, buf := range paths {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o600))
	}

	cfg := application.DefaultConfig()
	cfg.Demand.Path = filepath.Join(dir, "demand.csv")
	cfg.Solar.Path = filepath.Join(dir, "solar.csv")
	cfg.Wind.Path = filepath.Join(dir, "wind.csv")
	cfg.Outputs.CSV = filepath.Join(dir, "merged.csv")
	return cfg, hours
}

func thousands(v float64) string {
	n := int(math.Round(v))
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d,%03d", n/1000, n%1000)
}

func TestPipeline_ThreeYearsFromFiles(t *testing.T) {
	dir := t.TempDir()
	cfg, hours := writeHourlyFiles(t, dir)
	require.NoError(t, cfg.Validate())

	sources, err := csvfile.SourcesFromConfig(cfg)
	require.NoError(t, err)
	pipeline, err := application.NewPipeline(sources, cfg.Parameters, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	result, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, hours, result.Merge.Rows)
	assert.Equal(t, hours/97+1, result.Merge.ForwardFilled[profiles.SeriesSolar])
	assert.Equal(t, 0, result.Merge.ForwardFilled[profiles.SeriesWind])

	require.NotEmpty(t, result.Rows)
	assert.Equal(t, profiles.DefaultCutover, result.Rows[0].Key)
	assert.Equal(t, profiles.DatehourKey("2013123124"), result.Rows[len(result.Rows)-1].Key)
	assert.Len(t, result.Rows, 365*24)
	for i, row := range result.Rows {
		if i > 0 {
			require.Less(t, string(result.Rows[i-1].Key), string(row.Key))
		}
		require.GreaterOrEqual(t, row.Solar, 0)
		require.LessOrEqual(t, row.Solar, profiles.NominalCapacity)
		require.GreaterOrEqual(t, row.Wind, 0)
		require.LessOrEqual(t, row.Wind, profiles.NominalCapacity)
		require.Greater(t, row.Demand, 0)
	}

	// 2012 is a leap year, so the last annual block holds only the final day.
	require.Len(t, result.Demand.Years, 4)
	assert.Equal(t, 24, result.Demand.Years[3].Hours)
	assert.InDelta(t, 1.0, result.Demand.Years[3].Scale, 1e-9)
	assert.Greater(t, result.Demand.Years[0].Scale, 0.0)

	// Solar is missing samples, so its last annual block starts earlier and absorbs the tail.
	require.Len(t, result.Solar.CapacityFactor, 3)
	require.Len(t, result.Wind.CapacityFactor, 4)
	assert.InDelta(t, profiles.DefaultSolarCapacityFactor, result.Solar.CapacityFactor[0].CapacityFactor, 0.02)

	store := memory.NewProfileStore()
	csvSink, err := csvfile.NewSink(cfg.Outputs.CSV)
	require.NoError(t, err)
	require.NoError(t, pipeline.Publish(context.Background(), result, store, csvSink))

	rows, err := store.ListRows(context.Background(), "2013070101", "2013070201")
	require.NoError(t, err)
	assert.Len(t, rows, 24)

	data, err := os.ReadFile(cfg.Outputs.CSV)
	require.NoError(t, err)
	lines := bytes.Count(data, []byte("\n"))
	assert.Equal(t, len(result.Rows)+1, lines)
	assert.True(t, bytes.HasPrefix(data, []byte("DATEHOUR,DEMAND,SOLAR,WIND\n2013010101,")))
}
