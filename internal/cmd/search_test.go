package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchQuery(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	query, err := buildSearchQuery([]string{"deploy", "failed"}, &searchScope{}, now)
	require.NoError(t, err)
	assert.Equal(t, "deploy failed", query)

	query, err = buildSearchQuery([]string{"deploy"}, &searchScope{
		in:   "#general",
		from: "@alice",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "deploy in:general from:alice", query)

	// Bare names work without sigils.
	query, err = buildSearchQuery([]string{"deploy"}, &searchScope{in: "general", from: "alice"}, now)
	require.NoError(t, err)
	assert.Equal(t, "deploy in:general from:alice", query)

	query, err = buildSearchQuery([]string{"deploy"}, &searchScope{
		after:  "7d",
		before: "2026-08-30",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "deploy after:2026-08-24 before:2026-08-30", query)

	query, err = buildSearchQuery([]string{"deploy"}, &searchScope{after: "today"}, now)
	require.NoError(t, err)
	assert.Equal(t, "deploy after:2026-08-31", query)

	_, err = buildSearchQuery([]string{"deploy"}, &searchScope{before: "someday"}, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--before")
}

func TestSearchCommandTree(t *testing.T) {
	cmd := newSearchCmd(&app{})
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "messages")
	assert.Contains(t, names, "files")
}
