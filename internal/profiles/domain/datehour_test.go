package profiles

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDatehour(t *testing.T) {
	cases := []struct {
		date string
		hour int
		want DatehourKey
	}{
		{"1/2/13", 5, "2013010205"},
		{"12/31/18", 24, "2018123124"},
		{"2-Jan-13", 1, "2013010201"},
		{"15-SEPT-16", 0, "2016091500"},
		{"7-august-2017", 12, "2017080712"},
		{" 3/4/2015 ", 7, "2015030407"},
	}
	for _, tc := range cases {
		got, err := NormalizeDatehour(tc.date, tc.hour)
		require.NoError(t, err, tc.date)
		assert.Equal(t, tc.want, got, tc.date)
		assert.NoError(t, got.Validate())
	}
}

func TestNormalizeDatehour_FormatErrors(t *testing.T) {
	cases := []struct {
		date string
		hour int
	}{
		{"2015", 1},
		{"1/2", 1},
		{"13/2/15", 1},
		{"1/32/15", 1},
		{"1-Foo-13", 1},
		{"a/b/c", 1},
		{"1/2/13", 25},
		{"1/2/13", -1},
		{"", 0},
	}
	for _, tc := range cases {
		_, err := NormalizeDatehour(tc.date, tc.hour)
		require.Error(t, err, tc.date)
		assert.True(t, errors.Is(err, ErrInvalidDate), tc.date)
		var formatErr *FormatError
		require.True(t, errors.As(err, &formatErr), tc.date)
		assert.Equal(t, tc.date, formatErr.Input)
	}
}

func TestParseMonth_AllMonths(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		full := m.String()
		for _, name := range []string{full, full[:3], strings.ToUpper(full[:3]), strings.ToLower(full)} {
			got, ok := ParseMonth(name)
			require.True(t, ok, name)
			assert.Equal(t, m, got, name)
		}
	}
	got, ok := ParseMonth("Sept")
	require.True(t, ok)
	assert.Equal(t, time.September, got)

	for _, bad := range []string{"", "ja", "foo", "1"} {
		_, ok := ParseMonth(bad)
		assert.False(t, ok, bad)
	}
}

func TestNormalizeDatehour_KeysIncreaseForOrderedDates(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ts := time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)
	var prev DatehourKey
	for i := 0; i < 5000; i++ {
		ts = ts.Add(time.Duration(1+rng.Intn(48)) * time.Hour)
		var date string
		if rng.Intn(2) == 0 {
			date = fmt.Sprintf("%d/%d/%02d", int(ts.Month()), ts.Day(), ts.Year()%100)
		} else {
			date = fmt.Sprintf("%d-%s-%02d", ts.Day(), ts.Month().String()[:3], ts.Year()%100)
		}
		key, err := NormalizeDatehour(date, ts.Hour())
		require.NoError(t, err, date)
		if prev != "" {
			require.Greater(t, string(key), string(prev), "date %s", date)
		}
		prev = key
	}
}

func TestDatehourKeyYear(t *testing.T) {
	assert.Equal(t, 2013, DatehourKey("2013010101").Year())
	assert.Equal(t, 0, DatehourKey("20").Year())
	assert.Error(t, DatehourKey("2013-01-01").Validate())
}
