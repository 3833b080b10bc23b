package profiles

// RunningMax returns the running maximum of values. The result is non-decreasing.
func RunningMax(values []float64) []float64 {
	maxes := make([]float64, len(values))
	for i, v := range values {
		if i == 0 || v > maxes[i-1] {
			maxes[i] = v
			continue
		}
		maxes[i] = maxes[i-1]
	}
	return maxes
}

// EstimateCapacity returns the installed capacity estimate at index t: the running maximum
// window hours ahead, clamped to the end of the series. Looking ahead picks up capacity
// additions that land shortly after t.
func EstimateCapacity(maxes []float64, t, window int) float64 {
	if len(maxes) == 0 {
		return 0
	}
	ahead := t + window
	if ahead > len(maxes)-1 {
		ahead = len(maxes) - 1
	}
	if ahead < 0 {
		ahead = 0
	}
	return maxes[ahead]
}
