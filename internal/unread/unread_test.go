package unread

import (
	"context"
	"errors"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	convos  []slack.Channel
	info    map[string]*slack.Channel
	history map[string][]slack.Message
	hasMore map[string]bool

	failInfo map[string]bool
	listErr  error
}

func (f *fakeAPI) ConversationsForUser(_ context.Context, _ string, _ []string) ([]slack.Channel, error) {
	return f.convos, f.listErr
}

func (f *fakeAPI) ConversationInfo(_ context.Context, channelID string) (*slack.Channel, error) {
	if f.failInfo[channelID] {
		return nil, errors.New("channel_not_found")
	}
	info, ok := f.info[channelID]
	if !ok {
		return nil, errors.New("channel_not_found")
	}
	return info, nil
}

func (f *fakeAPI) HistoryAfter(_ context.Context, channelID, _ string, _ int) ([]slack.Message, bool, error) {
	return f.history[channelID], f.hasMore[channelID], nil
}

func channelInfo(id, name, lastRead string) *slack.Channel {
	ch := &slack.Channel{}
	ch.ID = id
	ch.Name = name
	ch.LastRead = lastRead
	return ch
}

func imInfo(id, userID string, unread int) *slack.Channel {
	ch := &slack.Channel{}
	ch.ID = id
	ch.IsIM = true
	ch.User = userID
	ch.UnreadCountDisplay = unread
	return ch
}

func member(id, name string) slack.Channel {
	ch := slack.Channel{}
	ch.ID = id
	ch.Name = name
	return ch
}

func msgs(n int) []slack.Message {
	out := make([]slack.Message, n)
	return out
}

func TestScanCountsAndSorts(t *testing.T) {
	api := &fakeAPI{
		convos: []slack.Channel{member("C1", "general"), member("C2", "random"), member("D1", "")},
		info: map[string]*slack.Channel{
			"C1": channelInfo("C1", "general", "1700000000.000100"),
			"C2": channelInfo("C2", "random", "1700000000.000100"),
			"D1": imInfo("D1", "U123", 7),
		},
		history: map[string][]slack.Message{
			"C1": msgs(2),
			"C2": nil,
		},
	}

	results, err := NewScanner(zap.NewNop()).Scan(context.Background(), api, "U999", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "D1", results[0].ChannelID)
	assert.Equal(t, 7, results[0].UnreadCount)
	assert.Equal(t, "DM:U123", results[0].Name)
	assert.True(t, results[0].IsIM)

	assert.Equal(t, "C1", results[1].ChannelID)
	assert.Equal(t, 2, results[1].UnreadCount)
}

func TestScanNeverReadChannel(t *testing.T) {
	api := &fakeAPI{
		convos:  []slack.Channel{member("C1", "general")},
		info:    map[string]*slack.Channel{"C1": channelInfo("C1", "general", "")},
		history: map[string][]slack.Message{"C1": msgs(3)},
		hasMore: map[string]bool{"C1": true},
	}

	results, err := NewScanner(zap.NewNop()).Scan(context.Background(), api, "U999", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].UnreadCount)
	assert.True(t, results[0].HasMore)
}

func TestScanSkipsFailedConversations(t *testing.T) {
	api := &fakeAPI{
		convos: []slack.Channel{member("C1", "general"), member("C2", "random")},
		info: map[string]*slack.Channel{
			"C1": channelInfo("C1", "general", "1700000000.000100"),
		},
		history:  map[string][]slack.Message{"C1": msgs(1)},
		failInfo: map[string]bool{"C2": true},
	}

	results, err := NewScanner(zap.NewNop()).Scan(context.Background(), api, "U999", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "C1", results[0].ChannelID)
}

func TestScanListingFailureIsFatal(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("internal_error")}
	_, err := NewScanner(zap.NewNop()).Scan(context.Background(), api, "U999", nil)
	assert.Error(t, err)
}
