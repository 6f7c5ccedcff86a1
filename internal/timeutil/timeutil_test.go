package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

func TestParseTimeSpecKeywords(t *testing.T) {
	got, err := ParseTimeSpec("now", testNow)
	require.NoError(t, err)
	assert.Equal(t, testNow, got)

	got, err = ParseTimeSpec("today", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseTimeSpec("Yesterday", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), got)
}

func TestParseTimeSpecRelative(t *testing.T) {
	cases := map[string]time.Duration{
		"2h":  2 * time.Hour,
		"3d":  3 * 24 * time.Hour,
		"1w":  7 * 24 * time.Hour,
		"1m":  30 * 24 * time.Hour,
		"48h": 48 * time.Hour,
	}
	for spec, d := range cases {
		got, err := ParseTimeSpec(spec, testNow)
		require.NoError(t, err, spec)
		assert.Equal(t, testNow.Add(-d), got, spec)
	}
}

func TestParseTimeSpecISO(t *testing.T) {
	got, err := ParseTimeSpec("2026-01-02", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseTimeSpec("2026-01-02 13:45", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 13, 45, 0, 0, time.UTC), got)

	got, err = ParseTimeSpec("2026-01-02T13:45:10", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 13, 45, 10, 0, time.UTC), got)
}

func TestParseTimeSpecInvalid(t *testing.T) {
	for _, spec := range []string{"", "soon", "2x", "h2", "2026-13-40"} {
		_, err := ParseTimeSpec(spec, testNow)
		assert.Error(t, err, spec)
	}
}

func TestIsRelative(t *testing.T) {
	for _, spec := range []string{"2h", "3d", "1w", "1m", " 48H "} {
		assert.True(t, IsRelative(spec), spec)
	}
	for _, spec := range []string{"today", "2026-01-02", "2x", "h2", ""} {
		assert.False(t, IsRelative(spec), spec)
	}
}

func TestSlackTSRoundTrip(t *testing.T) {
	ts := ToSlackTS(time.Unix(1700000000, 123456000))
	assert.Equal(t, "1700000000.123456", ts)

	got, err := FromSlackTS("1700000000.123456")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), got.Unix())
}

func TestFromSlackTSInvalid(t *testing.T) {
	_, err := FromSlackTS("not-a-ts")
	assert.Error(t, err)
}

func TestHumanTS(t *testing.T) {
	assert.Equal(t, "garbage", HumanTS("garbage"))
	assert.NotEmpty(t, HumanTS("1700000000.000100"))
}
