package directory

import (
	"context"
	"errors"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/fprochazka/slackcli/internal/cache"
)

// conversationCacheMaxAge is an absolute expiry: an expired snapshot is
// always replaced by a fresh fetch.
const conversationCacheMaxAge = 6 * time.Hour

const conversationsCacheName = "conversations"

// ConversationTypes covers every conversation kind a full snapshot includes.
var ConversationTypes = []string{"public_channel", "private_channel", "mpim", "im"}

// ConversationAPI is the slice of the gateway the conversation directory needs.
type ConversationAPI interface {
	ListConversations(ctx context.Context, types []string, cursor string) ([]slack.Channel, string, error)
	ConversationMembers(ctx context.Context, channelID string) ([]string, error)
}

// API combines everything a full snapshot refresh touches: the conversation
// listing plus the user lookups used to warm display names.
type API interface {
	ConversationAPI
	UserAPI
}

// Conversation is the cached record of one channel, group, DM, or group DM.
type Conversation struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	IsPrivate  bool     `json:"is_private"`
	IsChannel  bool     `json:"is_channel"`
	IsGroup    bool     `json:"is_group"`
	IsIM       bool     `json:"is_im"`
	IsMpIM     bool     `json:"is_mpim"`
	IsMember   bool     `json:"is_member"`
	IsArchived bool     `json:"is_archived"`
	Topic      string   `json:"topic"`
	Purpose    string   `json:"purpose"`
	NumMembers int      `json:"num_members"`
	Created    int64    `json:"created"`
	UserID     string   `json:"user_id,omitempty"`
	MemberIDs  []string `json:"member_ids,omitempty"`
}

// ConversationFromAPI converts a wire channel into a cache record. DMs carry
// no name on the wire, so one is synthesized from the counterpart user ID.
func ConversationFromAPI(ch slack.Channel) Conversation {
	c := Conversation{
		ID:         ch.ID,
		Name:       ch.Name,
		IsPrivate:  ch.IsPrivate,
		IsChannel:  ch.IsChannel,
		IsGroup:    ch.IsGroup,
		IsIM:       ch.IsIM,
		IsMpIM:     ch.IsMpIM,
		IsMember:   ch.IsMember,
		IsArchived: ch.IsArchived,
		Topic:      ch.Topic.Value,
		Purpose:    ch.Purpose.Value,
		NumMembers: ch.NumMembers,
		Created:    int64(ch.Created),
	}
	if ch.IsIM {
		c.UserID = ch.User
		if c.Name == "" {
			if c.UserID != "" {
				c.Name = "DM:" + c.UserID
			} else {
				c.Name = "DM:unknown"
			}
		}
	}
	return c
}

// IsDirect reports whether the conversation is a DM or group DM, both of
// which imply membership.
func (c Conversation) IsDirect() bool {
	return c.IsIM || c.IsMpIM
}

type conversationSnapshot struct {
	Conversations []Conversation `json:"conversations"`
}

// ConversationDirectory caches the full conversation listing for an org as
// one snapshot file.
type ConversationDirectory struct {
	store *cache.Store
	users *UserDirectory
	log   *zap.Logger
	now   func() time.Time
}

func NewConversationDirectory(store *cache.Store, users *UserDirectory, log *zap.Logger) *ConversationDirectory {
	return &ConversationDirectory{store: store, users: users, log: log, now: time.Now}
}

// LoadResult is a snapshot plus its provenance, so commands can report cache
// age or the fact of a refresh.
type LoadResult struct {
	Conversations []Conversation
	FromCache     bool
	CacheAge      time.Time
	Refreshed     bool
}

// IsExpired reports whether the snapshot is missing or has reached
// conversationCacheMaxAge. Fresh means strictly younger than the max age.
func (d *ConversationDirectory) IsExpired(org string) bool {
	age, ok := d.store.Age(org, conversationsCacheName)
	if !ok {
		return true
	}
	return d.now().Sub(age) >= conversationCacheMaxAge
}

// LoadCached returns the cached snapshot, or cache.ErrNotFound when no
// usable snapshot exists.
func (d *ConversationDirectory) LoadCached(org string) ([]Conversation, error) {
	var snap conversationSnapshot
	if _, err := d.store.Load(org, conversationsCacheName, &snap); err != nil {
		return nil, err
	}
	return snap.Conversations, nil
}

// LoadFresh fetches every conversation of every type in one paginated pass,
// enriches group DMs with their member lists, warms the user cache for DM
// counterparts, and replaces the snapshot wholesale. Enrichment and warming
// are best-effort; the listing and the final write are not.
func (d *ConversationDirectory) LoadFresh(ctx context.Context, api API, org string) ([]Conversation, error) {
	var convos []Conversation
	cursor := ""
	for {
		page, next, err := api.ListConversations(ctx, ConversationTypes, cursor)
		if err != nil {
			return nil, err
		}
		for _, ch := range page {
			convos = append(convos, ConversationFromAPI(ch))
		}
		if next == "" {
			break
		}
		cursor = next
	}

	seen := make(map[string]struct{})
	var warmIDs []string
	addWarm := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		warmIDs = append(warmIDs, id)
	}

	for i := range convos {
		c := &convos[i]
		switch {
		case c.IsMpIM:
			members, err := api.ConversationMembers(ctx, c.ID)
			if err != nil {
				d.log.Debug("failed to fetch group DM members",
					zap.String("channel_id", c.ID),
					zap.Error(err))
				continue
			}
			c.MemberIDs = members
			for _, id := range members {
				addWarm(id)
			}
		case c.IsIM:
			addWarm(c.UserID)
		}
	}

	if len(warmIDs) > 0 {
		d.users.DisplayNames(ctx, api, org, warmIDs)
	}

	if _, err := d.store.Save(org, conversationsCacheName, conversationSnapshot{Conversations: convos}); err != nil {
		return nil, err
	}
	d.log.Debug("refreshed conversation directory",
		zap.String("org", org),
		zap.Int("count", len(convos)))
	return convos, nil
}

// Load serves the cached snapshot when it is fresh and fetches otherwise.
func (d *ConversationDirectory) Load(ctx context.Context, api API, org string, fresh bool) (LoadResult, error) {
	if !fresh && !d.IsExpired(org) {
		convos, err := d.LoadCached(org)
		if err == nil {
			age, _ := d.store.Age(org, conversationsCacheName)
			return LoadResult{Conversations: convos, FromCache: true, CacheAge: age}, nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			return LoadResult{}, err
		}
	}
	convos, err := d.LoadFresh(ctx, api, org)
	if err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Conversations: convos, Refreshed: true}, nil
}

// CachedNames maps conversation IDs to names from the cached snapshot,
// returning an empty map when no snapshot exists.
func (d *ConversationDirectory) CachedNames(org string) map[string]string {
	names := make(map[string]string)
	convos, err := d.LoadCached(org)
	if err != nil {
		return names
	}
	for _, c := range convos {
		names[c.ID] = c.Name
	}
	return names
}

// FilterOptions selects conversations by kind and membership. Kind flags
// combine as a union; membership applies on top of it.
type FilterOptions struct {
	DMs       bool
	Private   bool
	Public    bool
	Member    bool
	NonMember bool
}

// Filter applies opts to a snapshot. DMs and group DMs always count as
// member conversations.
func Filter(convos []Conversation, opts FilterOptions) []Conversation {
	anyKind := opts.DMs || opts.Private || opts.Public
	var out []Conversation
	for _, c := range convos {
		if anyKind {
			keep := false
			if opts.DMs && c.IsDirect() {
				keep = true
			}
			if opts.Private && c.IsPrivate && !c.IsDirect() {
				keep = true
			}
			if opts.Public && !c.IsPrivate && !c.IsDirect() {
				keep = true
			}
			if !keep {
				continue
			}
		}
		member := c.IsMember || c.IsDirect()
		if opts.Member && !member {
			continue
		}
		if opts.NonMember && member {
			continue
		}
		out = append(out, c)
	}
	return out
}
