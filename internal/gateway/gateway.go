// Package gateway wraps the Slack Web API client.
//
// All remote traffic goes through this package: it owns pagination draining,
// client-side request pacing, and HTTP-level retry with backoff (429
// Retry-After included, via retryablehttp). Callers receive slack-go wire
// types or plain values; transport error types never leave this package
// except as error strings plus an optional remediation hint (see hints.go).
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AllConversationTypes is the fixed filter set used for directory refreshes.
var AllConversationTypes = []string{"public_channel", "private_channel", "mpim", "im"}

const (
	listPageSize    = 1000
	historyPageMax  = 1000
	maxHTTPRetries  = 3
	requestTimeout  = 30 * time.Second
	membersPageSize = 100
)

// Client is the concrete Remote API Gateway.
type Client struct {
	api     *slack.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// Option configures the gateway client.
type Option func(*options)

type options struct {
	proxyURL   string
	httpClient *http.Client
}

// WithProxy routes all API traffic through the given HTTP proxy.
func WithProxy(proxyURL string) Option {
	return func(o *options) { o.proxyURL = proxyURL }
}

// WithHTTPClient replaces the default retrying HTTP client (tests).
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New builds a gateway for the given token.
func New(token string, log *zap.Logger, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = maxHTTPRetries
		rc.HTTPClient.Timeout = requestTimeout
		rc.Logger = nil
		if o.proxyURL != "" {
			proxy, err := url.Parse(o.proxyURL)
			if err != nil {
				return nil, fmt.Errorf("parse proxy URL: %w", err)
			}
			rc.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
		}
		httpClient = rc.StandardClient()
	}

	return &Client{
		api:     slack.New(token, slack.OptionHTTPClient(httpClient)),
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
		log:     log,
	}, nil
}

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// AuthTest verifies the token and reports the authenticated identity.
func (c *Client) AuthTest(ctx context.Context) (*slack.AuthTestResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.api.AuthTestContext(ctx)
}

// ListConversations returns one page of conversations of the given types
// along with the cursor for the next page ("" when drained).
func (c *Client) ListConversations(ctx context.Context, types []string, cursor string) ([]slack.Channel, string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, "", err
	}
	c.log.Debug("fetching conversations page",
		zap.Strings("types", types),
		zap.String("cursor", cursor))
	return c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Types:           types,
		Limit:           listPageSize,
		Cursor:          cursor,
		ExcludeArchived: false,
	})
}

// ConversationMembers returns the member IDs of a conversation, drained
// across pages.
func (c *Client) ConversationMembers(ctx context.Context, channelID string) ([]string, error) {
	var members []string
	cursor := ""
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		page, next, err := c.api.GetUsersInConversationContext(ctx, &slack.GetUsersInConversationParameters{
			ChannelID: channelID,
			Cursor:    cursor,
			Limit:     membersPageSize,
		})
		if err != nil {
			return nil, err
		}
		members = append(members, page...)
		if next == "" {
			return members, nil
		}
		cursor = next
	}
}

// ConversationInfo fetches a single conversation with unread counters.
func (c *Client) ConversationInfo(ctx context.Context, channelID string) (*slack.Channel, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID:         channelID,
		IncludeNumMembers: true,
	})
}

// ConversationsForUser returns all conversations a user is a member of,
// drained across pages. An empty userID means the authed user; nil types
// means every conversation type.
func (c *Client) ConversationsForUser(ctx context.Context, userID string, types []string) ([]slack.Channel, error) {
	if len(types) == 0 {
		types = AllConversationTypes
	}
	var channels []slack.Channel
	cursor := ""
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		page, next, err := c.api.GetConversationsForUserContext(ctx, &slack.GetConversationsForUserParameters{
			UserID:          userID,
			Types:           types,
			Cursor:          cursor,
			Limit:           200,
			ExcludeArchived: true,
		})
		if err != nil {
			return nil, err
		}
		channels = append(channels, page...)
		if next == "" {
			return channels, nil
		}
		cursor = next
	}
}

// UserInfo fetches a single user record.
func (c *Client) UserInfo(ctx context.Context, userID string) (*slack.User, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.log.Debug("fetching user", zap.String("user_id", userID))
	return c.api.GetUserInfoContext(ctx, userID)
}

// UserByEmail looks a user up by email address.
func (c *Client) UserByEmail(ctx context.Context, email string) (*slack.User, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.api.GetUserByEmailContext(ctx, email)
}

// ListUsers returns the full user directory (slack-go drains the pages).
func (c *Client) ListUsers(ctx context.Context) ([]slack.User, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.api.GetUsersContext(ctx, slack.GetUsersOptionLimit(listPageSize))
}

// OpenDM opens (or reuses) the 1:1 conversation with a user and returns its
// channel ID.
func (c *Client) OpenDM(ctx context.Context, userID string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	channel, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{userID},
		ReturnIM: true,
	})
	if err != nil {
		return "", err
	}
	return channel.ID, nil
}

// SendMessage posts text to a channel, optionally into a thread. It returns
// the timestamp of the new message.
func (c *Client) SendMessage(ctx context.Context, channelID, text, threadTS string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	_, ts, err := c.api.PostMessageContext(ctx, channelID, opts...)
	return ts, err
}

// ScheduleMessage schedules text for future delivery.
func (c *Client) ScheduleMessage(ctx context.Context, channelID, text string, postAt time.Time) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	_, ts, err := c.api.ScheduleMessageContext(ctx, channelID,
		fmt.Sprintf("%d", postAt.Unix()),
		slack.MsgOptionText(text, false))
	return ts, err
}

// ScheduledMessages lists pending scheduled messages, drained across pages.
// Channel may be empty to list across all channels.
func (c *Client) ScheduledMessages(ctx context.Context, channelID string) ([]slack.ScheduledMessage, error) {
	var all []slack.ScheduledMessage
	cursor := ""
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		page, next, err := c.api.GetScheduledMessagesContext(ctx, &slack.GetScheduledMessagesParameters{
			Channel: channelID,
			Cursor:  cursor,
			Limit:   100,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// DeleteScheduledMessage cancels a pending scheduled message.
func (c *Client) DeleteScheduledMessage(ctx context.Context, channelID, scheduledMessageID string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.api.DeleteScheduledMessageContext(ctx, &slack.DeleteScheduledMessageParameters{
		Channel:            channelID,
		ScheduledMessageID: scheduledMessageID,
	})
	return err
}

// EditMessage replaces the text of an existing message.
func (c *Client) EditMessage(ctx context.Context, channelID, ts, text string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	_, newTS, _, err := c.api.UpdateMessageContext(ctx, channelID, ts, slack.MsgOptionText(text, false))
	return newTS, err
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, channelID, ts string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, _, err := c.api.DeleteMessageContext(ctx, channelID, ts)
	return err
}

// AddReaction adds an emoji reaction to a message.
func (c *Client) AddReaction(ctx context.Context, channelID, ts, emoji string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.api.AddReactionContext(ctx, emoji, slack.NewRefToMessage(channelID, ts))
}

// RemoveReaction removes an emoji reaction from a message.
func (c *Client) RemoveReaction(ctx context.Context, channelID, ts, emoji string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.api.RemoveReactionContext(ctx, emoji, slack.NewRefToMessage(channelID, ts))
}

// Reactions lists the reactions currently on a message.
func (c *Client) Reactions(ctx context.Context, channelID, ts string) ([]slack.ItemReaction, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.api.GetReactionsContext(ctx, slack.NewRefToMessage(channelID, ts), slack.GetReactionsParameters{Full: true})
}

// AddPin pins a message to its channel.
func (c *Client) AddPin(ctx context.Context, channelID, ts string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.api.AddPinContext(ctx, channelID, slack.NewRefToMessage(channelID, ts))
}

// RemovePin unpins a message from its channel.
func (c *Client) RemovePin(ctx context.Context, channelID, ts string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.api.RemovePinContext(ctx, channelID, slack.NewRefToMessage(channelID, ts))
}

// Pins lists the pinned items of a channel.
func (c *Client) Pins(ctx context.Context, channelID string) ([]slack.Item, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	items, _, err := c.api.ListPinsContext(ctx, channelID)
	return items, err
}

// History fetches up to limit messages from a channel, newest first, drained
// across pages. Zero time bounds are ignored.
func (c *Client) History(ctx context.Context, channelID string, oldest, latest time.Time, limit int) ([]slack.Message, error) {
	var messages []slack.Message
	cursor := ""
	for len(messages) < limit {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		params := &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Cursor:    cursor,
			Limit:     min(limit-len(messages), historyPageMax),
		}
		if !oldest.IsZero() {
			params.Oldest = slackTS(oldest)
		}
		if !latest.IsZero() {
			params.Latest = slackTS(latest)
		}
		c.log.Debug("fetching history page",
			zap.String("channel", channelID),
			zap.String("cursor", cursor))
		resp, err := c.api.GetConversationHistoryContext(ctx, params)
		if err != nil {
			return nil, err
		}
		messages = append(messages, resp.Messages...)
		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = resp.ResponseMetaData.NextCursor
	}
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

// HistoryAfter fetches messages strictly after the given Slack timestamp.
func (c *Client) HistoryAfter(ctx context.Context, channelID, oldestTS string, limit int) ([]slack.Message, bool, error) {
	if err := c.wait(ctx); err != nil {
		return nil, false, err
	}
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Oldest:    oldestTS,
		Limit:     limit,
	})
	if err != nil {
		return nil, false, err
	}
	return resp.Messages, resp.HasMore, nil
}

// ThreadReplies fetches up to limit messages of a thread, parent first.
func (c *Client) ThreadReplies(ctx context.Context, channelID, threadTS string, limit int) ([]slack.Message, error) {
	var messages []slack.Message
	cursor := ""
	for len(messages) < limit {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		page, hasMore, next, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channelID,
			Timestamp: threadTS,
			Cursor:    cursor,
			Limit:     min(limit-len(messages), historyPageMax),
		})
		if err != nil {
			return nil, err
		}
		messages = append(messages, page...)
		if !hasMore || next == "" {
			break
		}
		cursor = next
	}
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

// Message fetches the single message at ts in a channel.
func (c *Client) Message(ctx context.Context, channelID, ts string) (*slack.Message, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Latest:    ts,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	return &resp.Messages[0], nil
}

// ThreadReply fetches one specific reply out of a thread.
func (c *Client) ThreadReply(ctx context.Context, channelID, threadTS, ts string) (*slack.Message, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	page, _, _, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Latest:    ts,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return nil, err
	}
	for i := range page {
		if page[i].Timestamp == ts {
			return &page[i], nil
		}
	}
	return nil, nil
}

// ListFiles returns one page of file metadata, newest first. Channel and
// user filters may be empty.
func (c *Client) ListFiles(ctx context.Context, channelID, userID string, count, page int) ([]slack.File, *slack.Paging, error) {
	if err := c.wait(ctx); err != nil {
		return nil, nil, err
	}
	params := slack.NewGetFilesParameters()
	params.Channel = channelID
	params.User = userID
	if count > 0 {
		params.Count = count
	}
	if page > 0 {
		params.Page = page
	}
	return c.api.GetFilesContext(ctx, params)
}

// FileInfo fetches the metadata of a single file.
func (c *Client) FileInfo(ctx context.Context, fileID string) (*slack.File, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	file, _, _, err := c.api.GetFileInfoContext(ctx, fileID, 0, 0)
	return file, err
}

// DownloadFile streams a file's content to w using the authed client. The
// URL must be the file's url_private or url_private_download.
func (c *Client) DownloadFile(ctx context.Context, downloadURL string, w io.Writer) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.api.GetFileContext(ctx, downloadURL, w)
}

// SearchFiles runs a workspace file search.
func (c *Client) SearchFiles(ctx context.Context, query string, count, page int) (*slack.SearchFiles, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	params := slack.NewSearchParameters()
	if count > 0 {
		params.Count = count
	}
	if page > 0 {
		params.Page = page
	}
	return c.api.SearchFilesContext(ctx, query, params)
}

// SearchMessages runs a workspace message search.
func (c *Client) SearchMessages(ctx context.Context, query string, count, page int) (*slack.SearchMessages, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	params := slack.NewSearchParameters()
	if count > 0 {
		params.Count = count
	}
	if page > 0 {
		params.Page = page
	}
	return c.api.SearchMessagesContext(ctx, query, params)
}

func slackTS(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}
