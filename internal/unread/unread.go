// Package unread scans the caller's conversations for unread messages.
package unread

import (
	"context"
	"sort"
	"sync"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentScans bounds parallel per-conversation lookups.
const maxConcurrentScans = 10

// neverReadTS is the last_read value of a conversation never opened.
const neverReadTS = "0000000000.000000"

// API is the slice of the gateway the scanner needs.
type API interface {
	ConversationsForUser(ctx context.Context, userID string, types []string) ([]slack.Channel, error)
	ConversationInfo(ctx context.Context, channelID string) (*slack.Channel, error)
	HistoryAfter(ctx context.Context, channelID, oldestTS string, limit int) ([]slack.Message, bool, error)
}

// Result is one conversation with unread messages.
type Result struct {
	ChannelID   string `json:"channel_id"`
	Name        string `json:"name"`
	IsIM        bool   `json:"is_im"`
	IsMpIM      bool   `json:"is_mpim"`
	UserID      string `json:"user_id,omitempty"`
	UnreadCount int    `json:"unread_count"`
	// HasMore marks channel counts truncated at the scan limit.
	HasMore bool `json:"has_more,omitempty"`
}

// Scanner finds conversations with unread messages for one user.
type Scanner struct {
	log *zap.Logger

	// countLimit caps how many unread messages are counted per channel.
	countLimit int
}

func NewScanner(log *zap.Logger) *Scanner {
	return &Scanner{log: log, countLimit: 100}
}

// Scan checks every conversation of the given types in parallel. Individual
// conversation failures are logged and skipped; results are sorted by
// unread count, highest first.
func (s *Scanner) Scan(ctx context.Context, api API, userID string, types []string) ([]Result, error) {
	convos, err := api.ConversationsForUser(ctx, userID, types)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results []Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScans)
	for _, ch := range convos {
		ch := ch
		g.Go(func() error {
			res, err := s.scanOne(gctx, api, ch)
			if err != nil {
				s.log.Debug("failed to scan conversation",
					zap.String("channel_id", ch.ID),
					zap.Error(err))
				return nil
			}
			if res != nil {
				mu.Lock()
				results = append(results, *res)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].UnreadCount > results[j].UnreadCount
	})
	return results, nil
}

// scanOne returns nil when the conversation has nothing unread. DMs and
// group DMs carry a server-side unread count; channels need the count
// derived from history past last_read.
func (s *Scanner) scanOne(ctx context.Context, api API, ch slack.Channel) (*Result, error) {
	info, err := api.ConversationInfo(ctx, ch.ID)
	if err != nil {
		return nil, err
	}

	res := Result{
		ChannelID: ch.ID,
		Name:      ch.Name,
		IsIM:      info.IsIM,
		IsMpIM:    info.IsMpIM,
		UserID:    info.User,
	}
	if res.Name == "" && info.IsIM {
		res.Name = "DM:" + info.User
	}

	if info.IsIM || info.IsMpIM {
		if info.UnreadCountDisplay == 0 {
			return nil, nil
		}
		res.UnreadCount = info.UnreadCountDisplay
		return &res, nil
	}

	lastRead := info.LastRead
	if lastRead == "" {
		lastRead = neverReadTS
	}
	msgs, hasMore, err := api.HistoryAfter(ctx, ch.ID, lastRead, s.countLimit)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	res.UnreadCount = len(msgs)
	res.HasMore = hasMore
	return &res, nil
}
