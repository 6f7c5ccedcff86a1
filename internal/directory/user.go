// Package directory implements the cached entity directories: the full
// conversation snapshot and the per-user lazy cache, plus the pure filter
// helpers commands apply to them.
package directory

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/fprochazka/slackcli/internal/cache"
)

// userCacheMaxAge is a soft expiry: an expired record is still served when
// the refresh fetch fails.
const userCacheMaxAge = 24 * time.Hour

const usersSubdir = "users"

// userIDPattern matches raw Slack user IDs (W-prefixed on Enterprise Grid).
var userIDPattern = regexp.MustCompile(`^[UW][A-Z0-9]+$`)

// UserAPI is the slice of the gateway the user directory needs.
type UserAPI interface {
	UserInfo(ctx context.Context, userID string) (*slack.User, error)
	UserByEmail(ctx context.Context, email string) (*slack.User, error)
	ListUsers(ctx context.Context) ([]slack.User, error)
}

// UserInfo is the cached record of one Slack user.
type UserInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RealName    string `json:"real_name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	IsBot       bool   `json:"is_bot"`
	IsAdmin     bool   `json:"is_admin"`
	Deleted     bool   `json:"deleted"`

	// UpdatedAt travels in the file's _meta block, not the record body.
	UpdatedAt time.Time `json:"-"`
}

// userRecord is the on-disk form: the record body with an inline _meta block.
type userRecord struct {
	Meta cache.Metadata `json:"_meta"`
	UserInfo
}

// UserFromAPI converts a wire user into a cache record, applying the
// display-name fallbacks in one place.
func UserFromAPI(u *slack.User, now time.Time) UserInfo {
	realName := u.RealName
	if realName == "" {
		realName = u.Profile.RealName
	}
	displayName := u.Profile.DisplayName
	if displayName == "" {
		displayName = u.Profile.RealName
	}
	if displayName == "" {
		displayName = u.Name
	}
	return UserInfo{
		ID:          u.ID,
		Name:        u.Name,
		RealName:    realName,
		DisplayName: displayName,
		Email:       u.Profile.Email,
		IsBot:       u.IsBot,
		IsAdmin:     u.IsAdmin,
		Deleted:     u.Deleted,
		UpdatedAt:   now,
	}
}

// BestDisplayName prefers display_name, then real_name, then name, then ID.
func (u UserInfo) BestDisplayName() string {
	for _, s := range []string{u.DisplayName, u.RealName, u.Name} {
		if s != "" {
			return s
		}
	}
	return u.ID
}

// Username prefers the @name handle, then display_name, real_name, and ID.
func (u UserInfo) Username() string {
	for _, s := range []string{u.Name, u.DisplayName, u.RealName} {
		if s != "" {
			return s
		}
	}
	return u.ID
}

func (u UserInfo) expired(now time.Time) bool {
	if u.UpdatedAt.IsZero() {
		return true
	}
	return now.Sub(u.UpdatedAt) >= userCacheMaxAge
}

// UserDirectory is the per-user lazy cache with soft expiry.
type UserDirectory struct {
	store *cache.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewUserDirectory(store *cache.Store, log *zap.Logger) *UserDirectory {
	return &UserDirectory{store: store, log: log, now: time.Now}
}

func userCacheName(userID string) string {
	return path.Join(usersSubdir, userID)
}

func (d *UserDirectory) loadCached(org, userID string) *UserInfo {
	var rec userRecord
	if err := d.store.ReadJSON(org, userCacheName(userID), &rec); err != nil {
		return nil
	}
	rec.UserInfo.UpdatedAt = rec.Meta.UpdatedAt
	return &rec.UserInfo
}

func (d *UserDirectory) save(org string, u UserInfo) {
	rec := userRecord{
		Meta:     cache.Metadata{UpdatedAt: u.UpdatedAt, Version: 1},
		UserInfo: u,
	}
	if _, err := d.store.WriteJSON(org, userCacheName(u.ID), rec); err != nil {
		d.log.Warn("failed to write user cache",
			zap.String("user_id", u.ID),
			zap.Error(err))
	}
}

func (d *UserDirectory) fetch(ctx context.Context, api UserAPI, org, userID string) *UserInfo {
	wire, err := api.UserInfo(ctx, userID)
	if err != nil {
		d.log.Debug("failed to fetch user",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil
	}
	u := UserFromAPI(wire, d.now())
	d.save(org, u)
	return &u
}

// Get returns user info, serving the cache unless it is expired or fresh is
// requested. When a refresh fetch fails and an expired cached record exists,
// the stale record is returned rather than nothing.
func (d *UserDirectory) Get(ctx context.Context, api UserAPI, org, userID string, fresh bool) *UserInfo {
	var cached *UserInfo
	if !fresh {
		cached = d.loadCached(org, userID)
	}

	if cached != nil && !cached.expired(d.now()) {
		d.log.Debug("using cached user info", zap.String("user_id", userID))
		return cached
	}

	if u := d.fetch(ctx, api, org, userID); u != nil {
		return u
	}

	if cached != nil {
		d.log.Debug("user fetch failed, serving expired cache", zap.String("user_id", userID))
		return cached
	}
	return nil
}

// GetMany applies Get to each ID sequentially, skipping empty IDs and
// omitting users that cannot be found.
func (d *UserDirectory) GetMany(ctx context.Context, api UserAPI, org string, userIDs []string) map[string]UserInfo {
	result := make(map[string]UserInfo, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if u := d.Get(ctx, api, org, id, false); u != nil {
			result[id] = *u
		}
	}
	return result
}

// DisplayNames maps user IDs to usernames for display.
func (d *UserDirectory) DisplayNames(ctx context.Context, api UserAPI, org string, userIDs []string) map[string]string {
	users := d.GetMany(ctx, api, org, userIDs)
	names := make(map[string]string, len(users))
	for id, u := range users {
		names[id] = u.Username()
	}
	return names
}

// Resolve turns a user reference into (id, username). Accepted forms: a raw
// user ID, "@handle", and an email address (with or without leading @).
// Raw IDs are answered from the per-user cache; handles and emails need the
// remote directory unless a prior full listing populated the local index.
func (d *UserDirectory) Resolve(ctx context.Context, api UserAPI, org, ref string) (string, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", fmt.Errorf("empty user reference")
	}

	if userIDPattern.MatchString(ref) {
		u := d.Get(ctx, api, org, ref, false)
		if u == nil {
			return "", "", fmt.Errorf("user not found: %s", ref)
		}
		return u.ID, u.Username(), nil
	}

	handle := strings.TrimPrefix(ref, "@")
	if handle == "" {
		return "", "", fmt.Errorf("empty user reference")
	}

	if strings.Contains(handle, "@") {
		wire, err := api.UserByEmail(ctx, handle)
		if err != nil {
			return "", "", fmt.Errorf("look up user by email %q: %w", handle, err)
		}
		u := UserFromAPI(wire, d.now())
		d.save(org, u)
		return u.ID, u.Username(), nil
	}

	// Handle lookup: the cache is keyed by ID, so try the locally indexed
	// users first and fall back to a full remote listing.
	if u := findByHandle(d.CachedAll(org), handle); u != nil {
		return u.ID, u.Username(), nil
	}

	users, err := d.RefreshAll(ctx, api, org)
	if err != nil {
		return "", "", fmt.Errorf("look up user %q: %w", ref, err)
	}
	if u := findByHandle(users, handle); u != nil {
		return u.ID, u.Username(), nil
	}
	return "", "", fmt.Errorf("user not found: %s", ref)
}

func findByHandle(users []UserInfo, handle string) *UserInfo {
	for i := range users {
		if users[i].Name == handle {
			return &users[i]
		}
	}
	for i := range users {
		if strings.EqualFold(users[i].Name, handle) {
			return &users[i]
		}
	}
	return nil
}

// RefreshAll fetches the entire user directory and persists every record,
// which also serves as the local index for handle resolution.
func (d *UserDirectory) RefreshAll(ctx context.Context, api UserAPI, org string) ([]UserInfo, error) {
	wire, err := api.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	now := d.now()
	users := make([]UserInfo, 0, len(wire))
	for i := range wire {
		u := UserFromAPI(&wire[i], now)
		d.save(org, u)
		users = append(users, u)
	}
	d.log.Debug("refreshed user directory",
		zap.String("org", org),
		zap.Int("count", len(users)))
	return users, nil
}

// CachedAll reads every per-user cache file for the org. Unreadable entries
// are skipped (and deleted by the store's corruption handling).
func (d *UserDirectory) CachedAll(org string) []UserInfo {
	ids, err := d.store.Entries(org, usersSubdir)
	if err != nil {
		d.log.Debug("failed to list user cache", zap.Error(err))
		return nil
	}
	users := make([]UserInfo, 0, len(ids))
	for _, id := range ids {
		if u := d.loadCached(org, id); u != nil {
			users = append(users, *u)
		}
	}
	return users
}
