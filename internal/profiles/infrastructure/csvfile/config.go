package csvfile

import (
	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
)

// SourcesFromConfig builds the three file sources described by cfg.
func SourcesFromConfig(cfg application.Config) (application.Sources, error) {
	demand, err := sourceFromInput(profiles.SeriesDemand, cfg.Demand)
	if err != nil {
		return application.Sources{}, err
	}
	solar, err := sourceFromInput(profiles.SeriesSolar, cfg.Solar)
	if err != nil {
		return application.Sources{}, err
	}
	wind, err := sourceFromInput(profiles.SeriesWind, cfg.Wind)
	if err != nil {
		return application.Sources{}, err
	}
	return application.Sources{Demand: demand, Solar: solar, Wind: wind}, nil
}

func sourceFromInput(series string, in application.InputConfig) (*Source, error) {
	layout := ColumnLayout{Date: in.DateColumn, Hour: in.HourColumn, Value: in.ValueColumn}
	return NewSource(series, in.Path, layout, in.RoundValues)
}
