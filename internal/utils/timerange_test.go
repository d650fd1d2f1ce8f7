package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"9:30", 570, false},
		{"18:00", 1080, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12", 0, true},
		{"12:5", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
		{"12:30:00", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestFormatClockZeroPads(t *testing.T) {
	assert.Equal(t, "09:05", FormatClock(545))
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "23:59", FormatClock(1439))
}

func TestParseFormatRoundTrip(t *testing.T) {
	// "9:30" normalizes to "09:30" through parse and format.
	min, err := ParseClock("9:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", FormatClock(min))
}

func TestRangesOverlap(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd int
		want                       bool
	}{
		{"partial overlap", 1080, 1200, 1140, 1260, true},
		{"containment", 1080, 1320, 1140, 1200, true},
		{"identical", 1080, 1200, 1080, 1200, true},
		{"adjacent end-to-start", 1080, 1200, 1200, 1320, false},
		{"adjacent start-to-end", 1200, 1320, 1080, 1200, false},
		{"disjoint", 540, 600, 1080, 1200, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RangesOverlap(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			// The relation is symmetric.
			assert.Equal(t, tc.want, RangesOverlap(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}
