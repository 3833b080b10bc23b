package profiles

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DatehourKey is the canonical YYYYMMDDHH identifier used to align hourly series.
// It is zero-padded, so lexicographic order equals time order.
type DatehourKey string

const datehourKeyLen = 10

// String returns the raw key.
func (k DatehourKey) String() string { return string(k) }

// Validate checks the key is ten digits.
func (k DatehourKey) Validate() error {
	if len(k) != datehourKeyLen {
		return fmt.Errorf("%w: key %q is not %d digits", ErrInvalidDate, string(k), datehourKeyLen)
	}
	for _, r := range string(k) {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: key %q is not numeric", ErrInvalidDate, string(k))
		}
	}
	return nil
}

// Year returns the calendar year encoded in the key, or 0 for a malformed key.
func (k DatehourKey) Year() int {
	if len(k) < 4 {
		return 0
	}
	year, err := strconv.Atoi(string(k[:4]))
	if err != nil {
		return 0
	}
	return year
}

// NewDatehourKey formats a key from its parts.
func NewDatehourKey(year int, month time.Month, day, hour int) DatehourKey {
	return DatehourKey(fmt.Sprintf("%04d%02d%02d%02d", year, int(month), day, hour))
}

// monthPrefixes maps the three-letter English month prefix to its month.
var monthPrefixes = []struct {
	prefix string
	month  time.Month
}{
	{"jan", time.January},
	{"feb", time.February},
	{"mar", time.March},
	{"apr", time.April},
	{"may", time.May},
	{"jun", time.June},
	{"jul", time.July},
	{"aug", time.August},
	{"sep", time.September},
	{"oct", time.October},
	{"nov", time.November},
	{"dec", time.December},
}

// ParseMonth resolves a month name or abbreviation by its three-letter prefix, case-insensitive.
func ParseMonth(name string) (time.Month, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, entry := range monthPrefixes {
		if strings.HasPrefix(lower, entry.prefix) {
			return entry.month, true
		}
	}
	return 0, false
}

// NormalizeDatehour converts a date in M/D/Y or D-Mon-Y form plus an hour into a DatehourKey.
// Two-digit years are taken as 20YY. Hours 0 through 24 are accepted since the sources use
// hour-ending numbering.
func NormalizeDatehour(date string, hour int) (DatehourKey, error) {
	trimmed := strings.TrimSpace(date)
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		parts = strings.Split(trimmed, "-")
	}
	if len(parts) != 3 {
		return "", &FormatError{Input: date, Hour: hour, Reason: "expected three date fields"}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var month, day int
	if second, err := strconv.Atoi(parts[1]); err == nil {
		first, err := strconv.Atoi(parts[0])
		if err != nil {
			return "", &FormatError{Input: date, Hour: hour, Reason: "month is not numeric"}
		}
		month, day = first, second
	} else {
		m, ok := ParseMonth(parts[1])
		if !ok {
			return "", &FormatError{Input: date, Hour: hour, Reason: fmt.Sprintf("unknown month %q", parts[1])}
		}
		first, err := strconv.Atoi(parts[0])
		if err != nil {
			return "", &FormatError{Input: date, Hour: hour, Reason: "day is not numeric"}
		}
		month, day = int(m), first
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", &FormatError{Input: date, Hour: hour, Reason: "year is not numeric"}
	}
	if year < 0 {
		return "", &FormatError{Input: date, Hour: hour, Reason: "year is negative"}
	}
	if year < 100 {
		year += 2000
	}
	if year > 9999 {
		return "", &FormatError{Input: date, Hour: hour, Reason: "year has more than four digits"}
	}
	if month < 1 || month > 12 {
		return "", &FormatError{Input: date, Hour: hour, Reason: "month out of range"}
	}
	if day < 1 || day > 31 {
		return "", &FormatError{Input: date, Hour: hour, Reason: "day out of range"}
	}
	if hour < 0 || hour > 24 {
		return "", &FormatError{Input: date, Hour: hour, Reason: "hour out of range"}
	}
	return NewDatehourKey(year, time.Month(month), day, hour), nil
}
