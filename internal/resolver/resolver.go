// Package resolver turns human references (#channel, @user, raw IDs, and
// permalink URLs) into canonical Slack IDs.
package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fprochazka/slackcli/internal/directory"
)

// channelIDPattern matches raw conversation IDs of every kind.
var channelIDPattern = regexp.MustCompile(`^[CDG][A-Z0-9]+$`)

var userIDPattern = regexp.MustCompile(`^[UW][A-Z0-9]+$`)

// NotFoundError reports a channel reference that matched nothing in the
// cached directory.
type NotFoundError struct {
	Ref  string
	Hint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("channel not found: %s (%s)", e.Ref, e.Hint)
}

// DMOpener opens or reuses a DM conversation with a user.
type DMOpener interface {
	OpenDM(ctx context.Context, userID string) (string, error)
}

// Target is a resolved message destination.
type Target struct {
	ChannelID string
	Label     string
	IsDM      bool
	UserID    string
}

// Resolver answers reference lookups from the cached directories. Channel
// resolution never goes to the network; only user handle and email lookups
// may.
type Resolver struct {
	convos *directory.ConversationDirectory
	users  *directory.UserDirectory
	log    *zap.Logger
}

func New(convos *directory.ConversationDirectory, users *directory.UserDirectory, log *zap.Logger) *Resolver {
	return &Resolver{convos: convos, users: users, log: log}
}

// ResolveChannel maps a "#name", bare name, or raw ID to (id, name) using
// only the cached snapshot. A missing snapshot is a hard error for every
// reference form. With a snapshot present, a raw ID is accepted even when no
// row matches it; a name that matches nothing tells the user to refresh.
func (r *Resolver) ResolveChannel(org, ref string) (string, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", fmt.Errorf("empty channel reference")
	}

	convos, err := r.convos.LoadCached(org)
	if err != nil {
		return "", "", &NotFoundError{
			Ref:  ref,
			Hint: "run 'slackcli conversations list --refresh'",
		}
	}

	if channelIDPattern.MatchString(ref) {
		for _, c := range convos {
			if c.ID == ref {
				return c.ID, c.Name, nil
			}
		}
		return ref, ref, nil
	}

	name := strings.TrimPrefix(ref, "#")
	for _, c := range convos {
		if c.Name == name {
			return c.ID, c.Name, nil
		}
	}
	return "", "", &NotFoundError{
		Ref:  ref,
		Hint: "run 'slackcli conversations list --refresh'",
	}
}

// ResolveTarget maps a destination reference to a channel. User references
// (leading @ or a raw user ID) resolve through the user directory and open
// a DM; everything else is treated as a channel reference.
func (r *Resolver) ResolveTarget(ctx context.Context, api directory.UserAPI, dms DMOpener, org, ref string) (Target, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "@") || userIDPattern.MatchString(ref) {
		userID, username, err := r.users.Resolve(ctx, api, org, ref)
		if err != nil {
			return Target{}, err
		}
		channelID, err := dms.OpenDM(ctx, userID)
		if err != nil {
			return Target{}, fmt.Errorf("open DM with %s: %w", username, err)
		}
		return Target{ChannelID: channelID, Label: "@" + username, IsDM: true, UserID: userID}, nil
	}

	id, name, err := r.ResolveChannel(org, ref)
	if err != nil {
		return Target{}, err
	}
	return Target{ChannelID: id, Label: "#" + name}, nil
}
