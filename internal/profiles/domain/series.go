package profiles

import "fmt"

// Series names used across the pipeline.
const (
	SeriesDemand = "demand"
	SeriesSolar  = "solar"
	SeriesWind   = "wind"
)

// Default header labels for each series.
const (
	HeaderDatehour = "datehour"
	HeaderDemand   = "demand (MWh)"
	HeaderSolar    = "solar (capacity = 1000)"
	HeaderWind     = "wind (capacity = 1000)"
)

// RawRecord is one parsed input line before key normalization.
type RawRecord struct {
	Date  string
	Hour  int
	Value float64
	Line  int
}

// Sample is a single keyed value.
type Sample struct {
	Key   DatehourKey
	Value float64
}

// Series is an ordered, header-labelled hourly series.
// Invariant: keys are strictly increasing.
type Series struct {
	Name    string
	Header  string
	Samples []Sample
}

// BuildSeries normalizes the keys of raw records and checks their ordering.
func BuildSeries(name, header string, records []RawRecord) (Series, error) {
	samples := make([]Sample, 0, len(records))
	for _, record := range records {
		key, err := NormalizeDatehour(record.Date, record.Hour)
		if err != nil {
			return Series{}, &RecordError{Series: name, Line: record.Line, Err: err}
		}
		samples = append(samples, Sample{Key: key, Value: record.Value})
	}
	series := Series{Name: name, Header: header, Samples: samples}
	if err := series.Validate(); err != nil {
		return Series{}, err
	}
	return series, nil
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Samples) }

// Validate reports the first key that does not strictly increase.
func (s Series) Validate() error {
	for i := 1; i < len(s.Samples); i++ {
		prev := s.Samples[i-1].Key
		cur := s.Samples[i].Key
		if cur <= prev {
			reason := fmt.Sprintf("key does not increase after %s", prev)
			if cur == prev {
				reason = "duplicate key"
			}
			return &AlignmentError{Series: s.Name, Index: i, Key: cur, Reason: reason}
		}
	}
	return nil
}

// Values returns a copy of the sample values.
func (s Series) Values() []float64 {
	values := make([]float64, len(s.Samples))
	for i, sample := range s.Samples {
		values[i] = sample.Value
	}
	return values
}

// WithValues returns a new series with the same keys and the given values.
func (s Series) WithValues(values []float64) (Series, error) {
	if len(values) != len(s.Samples) {
		return Series{}, fmt.Errorf("profiles: series %s has %d samples, got %d values", s.Name, len(s.Samples), len(values))
	}
	samples := make([]Sample, len(s.Samples))
	for i, sample := range s.Samples {
		samples[i] = Sample{Key: sample.Key, Value: values[i]}
	}
	return Series{Name: s.Name, Header: s.Header, Samples: samples}, nil
}

// FirstKey returns the first key, or "" for an empty series.
func (s Series) FirstKey() DatehourKey {
	if len(s.Samples) == 0 {
		return ""
	}
	return s.Samples[0].Key
}

// LastKey returns the last key, or "" for an empty series.
func (s Series) LastKey() DatehourKey {
	if len(s.Samples) == 0 {
		return ""
	}
	return s.Samples[len(s.Samples)-1].Key
}
