package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fprochazka/slackcli/internal/cache"
	"github.com/fprochazka/slackcli/internal/directory"
)

type fakeUserAPI struct {
	users map[string]slack.User
}

func (f *fakeUserAPI) UserInfo(_ context.Context, userID string) (*slack.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, errors.New("user_not_found")
	}
	return &u, nil
}

func (f *fakeUserAPI) UserByEmail(_ context.Context, _ string) (*slack.User, error) {
	return nil, errors.New("users_not_found")
}

func (f *fakeUserAPI) ListUsers(_ context.Context) ([]slack.User, error) {
	var out []slack.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeDMOpener struct {
	channelID string
	err       error
}

func (f *fakeDMOpener) OpenDM(_ context.Context, _ string) (string, error) {
	return f.channelID, f.err
}

func newResolver(t *testing.T) (*Resolver, *directory.ConversationDirectory, *cache.Store) {
	t.Helper()
	store := cache.NewStore(t.TempDir(), zap.NewNop())
	users := directory.NewUserDirectory(store, zap.NewNop())
	convos := directory.NewConversationDirectory(store, users, zap.NewNop())
	return New(convos, users, zap.NewNop()), convos, store
}

func seedSnapshot(t *testing.T, store *cache.Store, org string, convos []directory.Conversation) {
	t.Helper()
	_, err := store.Save(org, "conversations", map[string]interface{}{"conversations": convos})
	require.NoError(t, err)
}

func TestResolveChannelByName(t *testing.T) {
	r, _, store := newResolver(t)
	seedSnapshot(t, store, "acme", []directory.Conversation{
		{ID: "C1", Name: "general"},
		{ID: "C2", Name: "random"},
	})

	id, name, err := r.ResolveChannel("acme", "#random")
	require.NoError(t, err)
	assert.Equal(t, "C2", id)
	assert.Equal(t, "random", name)

	id, _, err = r.ResolveChannel("acme", "general")
	require.NoError(t, err)
	assert.Equal(t, "C1", id)
}

func TestResolveChannelFirstMatchWins(t *testing.T) {
	r, _, store := newResolver(t)
	seedSnapshot(t, store, "acme", []directory.Conversation{
		{ID: "C1", Name: "general"},
		{ID: "C2", Name: "general"},
	})

	id, _, err := r.ResolveChannel("acme", "general")
	require.NoError(t, err)
	assert.Equal(t, "C1", id)
}

func TestResolveChannelCaseSensitive(t *testing.T) {
	r, _, store := newResolver(t)
	seedSnapshot(t, store, "acme", []directory.Conversation{{ID: "C1", Name: "general"}})

	_, _, err := r.ResolveChannel("acme", "General")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Hint, "--refresh")
}

func TestResolveChannelRawID(t *testing.T) {
	r, _, store := newResolver(t)
	seedSnapshot(t, store, "acme", []directory.Conversation{{ID: "C1", Name: "general"}})

	// A known ID picks up its cached name.
	id, name, err := r.ResolveChannel("acme", "C1")
	require.NoError(t, err)
	assert.Equal(t, "C1", id)
	assert.Equal(t, "general", name)

	// An unknown ID is accepted as-is when a snapshot exists.
	id, name, err = r.ResolveChannel("acme", "D0XYZ99")
	require.NoError(t, err)
	assert.Equal(t, "D0XYZ99", id)
	assert.Equal(t, "D0XYZ99", name)
}

func TestResolveChannelMissingSnapshot(t *testing.T) {
	r, _, _ := newResolver(t)

	// Without a snapshot every reference form is a hard error, raw IDs
	// included.
	for _, ref := range []string{"#general", "general", "C0MISSING"} {
		_, _, err := r.ResolveChannel("acme", ref)
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf, ref)
		assert.Contains(t, nf.Hint, "--refresh")
	}
}

func TestResolveChannelEmptyRef(t *testing.T) {
	r, _, _ := newResolver(t)
	_, _, err := r.ResolveChannel("acme", "")
	assert.Error(t, err)
}

func TestResolveTargetChannel(t *testing.T) {
	r, _, store := newResolver(t)
	seedSnapshot(t, store, "acme", []directory.Conversation{{ID: "C1", Name: "general"}})

	target, err := r.ResolveTarget(context.Background(), &fakeUserAPI{}, &fakeDMOpener{}, "acme", "#general")
	require.NoError(t, err)
	assert.Equal(t, "C1", target.ChannelID)
	assert.Equal(t, "#general", target.Label)
	assert.False(t, target.IsDM)
}

func TestResolveTargetUser(t *testing.T) {
	r, _, _ := newResolver(t)
	api := &fakeUserAPI{users: map[string]slack.User{
		"U123": {ID: "U123", Name: "alice"},
	}}
	dms := &fakeDMOpener{channelID: "D042"}

	target, err := r.ResolveTarget(context.Background(), api, dms, "acme", "@alice")
	require.NoError(t, err)
	assert.Equal(t, "D042", target.ChannelID)
	assert.Equal(t, "@alice", target.Label)
	assert.True(t, target.IsDM)
	assert.Equal(t, "U123", target.UserID)

	// A raw user ID also routes through the DM opener.
	target, err = r.ResolveTarget(context.Background(), api, dms, "acme", "U123")
	require.NoError(t, err)
	assert.Equal(t, "D042", target.ChannelID)
}

func TestResolveTargetDMOpenFailure(t *testing.T) {
	r, _, _ := newResolver(t)
	api := &fakeUserAPI{users: map[string]slack.User{
		"U123": {ID: "U123", Name: "alice"},
	}}
	dms := &fakeDMOpener{err: errors.New("cannot_dm_bot")}

	_, err := r.ResolveTarget(context.Background(), api, dms, "acme", "@alice")
	assert.ErrorContains(t, err, "open DM")
}
