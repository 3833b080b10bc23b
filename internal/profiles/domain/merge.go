package profiles

import "fmt"

// MergedRow is one aligned hour of the output table.
type MergedRow struct {
	Key    DatehourKey `json:"datehour"`
	Demand int         `json:"demand"`
	Solar  int         `json:"solar"`
	Wind   int         `json:"wind"`
}

// MergeStats counts how each merged column was produced.
type MergeStats struct {
	Rows          int
	Consumed      map[string]int
	ForwardFilled map[string]int
}

// OutputHeader is the header row of the merged table.
var OutputHeader = []string{"DATEHOUR", "DEMAND", "SOLAR", "WIND"}

// Merge aligns the demand, solar and wind series on their keys. Each row takes the smallest
// key not yet consumed by any series; a series whose next key is later repeats its previous
// value, and so does a series that has run out before the others.
func Merge(demand, solar, wind Series) ([]MergedRow, MergeStats, error) {
	inputs := []Series{demand, solar, wind}
	stats := MergeStats{
		Consumed:      make(map[string]int, len(inputs)),
		ForwardFilled: make(map[string]int, len(inputs)),
	}

	total := 0
	for _, input := range inputs {
		if input.Len() == 0 {
			return nil, stats, fmt.Errorf("%w: %s", ErrEmptySeries, input.Name)
		}
		if err := input.Validate(); err != nil {
			return nil, stats, err
		}
		total += input.Len()
	}

	cursors := make([]int, len(inputs))
	rows := make([]MergedRow, 0, total/len(inputs))
	values := make([]float64, len(inputs))
	for {
		key, ok := minimumKey(inputs, cursors)
		if !ok {
			break
		}
		for i, input := range inputs {
			idx := cursors[i]
			switch {
			case idx >= input.Len():
				values[i] = input.Samples[idx-1].Value
				stats.ForwardFilled[input.Name]++
			case input.Samples[idx].Key == key:
				values[i] = input.Samples[idx].Value
				cursors[i]++
				stats.Consumed[input.Name]++
			case input.Samples[idx].Key > key:
				if idx == 0 {
					return nil, stats, &AlignmentError{
						Series:   input.Name,
						Index:    idx,
						Key:      input.Samples[idx].Key,
						MergeKey: key,
						Reason:   "series starts after the merge key, nothing to forward-fill",
					}
				}
				values[i] = input.Samples[idx-1].Value
				stats.ForwardFilled[input.Name]++
			default:
				return nil, stats, &AlignmentError{
					Series:   input.Name,
					Index:    idx,
					Key:      input.Samples[idx].Key,
					MergeKey: key,
					Reason:   "series key is behind the merge key",
				}
			}
		}
		if n := len(rows); n > 0 && key <= rows[n-1].Key {
			return nil, stats, &AlignmentError{
				Series:   "merged",
				Index:    n,
				Key:      key,
				MergeKey: rows[n-1].Key,
				Reason:   "merged key does not increase",
			}
		}
		rows = append(rows, MergedRow{
			Key:    key,
			Demand: int(roundHalfEven(values[0])),
			Solar:  int(roundHalfEven(values[1])),
			Wind:   int(roundHalfEven(values[2])),
		})
	}
	stats.Rows = len(rows)
	return rows, stats, nil
}

func minimumKey(inputs []Series, cursors []int) (DatehourKey, bool) {
	var key DatehourKey
	found := false
	for i, input := range inputs {
		if cursors[i] >= input.Len() {
			continue
		}
		candidate := input.Samples[cursors[i]].Key
		if !found || candidate < key {
			key = candidate
			found = true
		}
	}
	return key, found
}

// TruncateFrom drops every row before the first row keyed cutover. An empty cutover keeps all rows.
func TruncateFrom(rows []MergedRow, cutover DatehourKey) ([]MergedRow, error) {
	if cutover == "" {
		return rows, nil
	}
	for i, row := range rows {
		if row.Key == cutover {
			return rows[i:], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCutoverNotFound, cutover)
}
