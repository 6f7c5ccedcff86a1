package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostAt(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	t.Run("absolute future time", func(t *testing.T) {
		got, err := parsePostAt("2026-03-16 09:00", "", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("relative duration", func(t *testing.T) {
		got, err := parsePostAt("", "90m", now)
		require.NoError(t, err)
		assert.Equal(t, now.Add(90*time.Minute), got)
	})

	t.Run("relative spec for --at points at --in", func(t *testing.T) {
		_, err := parsePostAt("2h", "", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--in 2h")
	})

	t.Run("past time rejected", func(t *testing.T) {
		_, err := parsePostAt("2026-03-15 10:00", "", now)
		assert.ErrorContains(t, err, "in the past")

		_, err = parsePostAt("", "-1h", now)
		assert.ErrorContains(t, err, "in the past")
	})

	t.Run("exactly one flag required", func(t *testing.T) {
		_, err := parsePostAt("", "", now)
		assert.Error(t, err)
		_, err = parsePostAt("2026-03-16", "2h", now)
		assert.Error(t, err)
	})

	t.Run("bad inputs", func(t *testing.T) {
		_, err := parsePostAt("soon", "", now)
		assert.Error(t, err)
		_, err = parsePostAt("", "2 hours", now)
		assert.Error(t, err)
	})
}
