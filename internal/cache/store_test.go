package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zap.NewNop())
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)

	type payload struct {
		Names []string `json:"names"`
		Count int      `json:"count"`
	}

	in := payload{Names: []string{"general", "random"}, Count: 2}
	path, err := s.Save("acme", "conversations", in)
	require.NoError(t, err)
	assert.FileExists(t, path)

	var out payload
	meta, err := s.Load("acme", "conversations", &out)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, 1, meta.Version)
	assert.WithinDuration(t, time.Now(), meta.UpdatedAt, 5*time.Second)
}

func TestStoreMiss(t *testing.T) {
	s := newTestStore(t)

	var out map[string]string
	_, err := s.Load("acme", "conversations", &out)
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok := s.Age("acme", "conversations")
	assert.False(t, ok)
}

func TestStoreCorruptionSelfHeals(t *testing.T) {
	s := newTestStore(t)

	path := s.Path("acme", "conversations")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var out map[string]string
	_, err := s.Load("acme", "conversations", &out)
	assert.ErrorIs(t, err, ErrNotFound)

	// The corrupt file must be gone, not merely ignored.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "corrupt cache file should be deleted")
}

func TestStoreCorruptPayloadInsideEnvelope(t *testing.T) {
	s := newTestStore(t)

	path := s.Path("acme", "conversations")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	// Valid envelope, payload of the wrong shape for the caller's type.
	blob := `{"metadata":{"updated_at":"2026-01-01T00:00:00Z","version":1},"data":"oops"}`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0o644))

	var out map[string]string
	_, err := s.Load("acme", "conversations", &out)
	assert.ErrorIs(t, err, ErrNotFound)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStoreAge(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	_, err := s.Save("acme", "conversations", map[string]int{"n": 1})
	require.NoError(t, err)

	age, ok := s.Age("acme", "conversations")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), age.UTC())
}

func TestStoreWriteAndReadEntityFiles(t *testing.T) {
	s := newTestStore(t)

	type user struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	_, err := s.WriteJSON("acme", filepath.Join("users", "U1"), user{ID: "U1", Name: "alice"})
	require.NoError(t, err)
	_, err = s.WriteJSON("acme", filepath.Join("users", "U2"), user{ID: "U2", Name: "bob"})
	require.NoError(t, err)

	var got user
	require.NoError(t, s.ReadJSON("acme", filepath.Join("users", "U1"), &got))
	assert.Equal(t, "alice", got.Name)

	keys, err := s.Entries("acme", "users")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"U1", "U2"}, keys)
}

func TestStoreEntriesMissingDir(t *testing.T) {
	s := newTestStore(t)
	keys, err := s.Entries("acme", "users")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStoreOrgsAreIsolated(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save("acme", "conversations", map[string]int{"n": 1})
	require.NoError(t, err)

	var out map[string]int
	_, err = s.Load("globex", "conversations", &out)
	assert.ErrorIs(t, err, ErrNotFound)
}
