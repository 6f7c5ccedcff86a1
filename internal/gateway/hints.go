package gateway

import (
	"errors"
	"fmt"

	"github.com/slack-go/slack"
)

// errorHints maps Slack API error codes to actionable remediation text.
var errorHints = map[string]string{
	// Authentication
	"invalid_auth":     "Token is invalid or expired. Check your config at ~/.config/slackcli/config.toml.",
	"token_expired":    "Token has expired. Generate a new token and update your config.",
	"token_revoked":    "Token has been revoked. Generate a new token and update your config.",
	"not_authed":       "No authentication token provided. Check your config at ~/.config/slackcli/config.toml.",
	"account_inactive": "The user account associated with the token is deactivated.",

	// Channels
	"not_in_channel":    "You must be a member of this channel. Run /invite in Slack.",
	"channel_not_found": "Channel not found or you don't have access to it.",
	"is_archived":       "This channel is archived and cannot receive messages.",

	// Messages
	"message_not_found":                    "The message with this timestamp was not found.",
	"cant_update_message":                  "You can only edit your own messages.",
	"cant_delete_message":                  "You can only delete your own messages, or you need admin privileges.",
	"edit_window_closed":                   "The edit window for this message has expired.",
	"msg_too_long":                         "Message exceeds Slack's 40,000 character limit.",
	"no_text":                              "Message text cannot be empty.",
	"compliance_exports_prevent_deletion":  "Compliance exports are enabled, preventing message deletion.",
	"time_in_past":                         "The scheduled time is in the past.",
	"time_too_far":                         "Messages can only be scheduled up to 120 days in advance.",
	"invalid_scheduled_message_id":         "No pending scheduled message has this ID.",
	"scheduled_message_id_not_found":       "No pending scheduled message has this ID.",
	"bad_token_scheduled_message_id_query": "The scheduled message belongs to a different token.",

	// Reactions
	"already_reacted":    "You have already added this reaction to the message.",
	"no_reaction":        "You haven't added this reaction to the message.",
	"invalid_name":       "The emoji name is not valid.",
	"too_many_emoji":     "The message has too many reactions.",
	"too_many_reactions": "The message has too many reactions.",

	// Pins
	"already_pinned":    "This message is already pinned to the channel.",
	"no_pin":            "This message is not pinned to the channel.",
	"not_pinnable":      "This message type cannot be pinned.",
	"permission_denied": "You don't have permission to pin/unpin messages in this channel.",

	// Permissions
	"missing_scope":          "The token is missing required OAuth scopes. Update your Slack app permissions.",
	"restricted_action":      "This action is restricted by workspace admins.",
	"not_allowed_token_type": "This API method is not allowed for the token type.",
	"ekm_access_denied":      "Access denied due to Enterprise Key Management.",

	// Users
	"user_not_found":   "User not found.",
	"user_not_visible": "The user is not visible to you.",
	"users_not_found":  "User not found for that email address.",

	// General
	"request_timeout":     "The request timed out. Try again.",
	"service_unavailable": "Slack is temporarily unavailable. Try again later.",
	"fatal_error":         "A server error occurred. Try again later.",
	"internal_error":      "A server error occurred. Try again later.",
}

// ErrorCode extracts the Slack API error code from an error returned by the
// gateway, or the plain error text when it is not an API error.
func ErrorCode(err error) string {
	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		return apiErr.Err
	}
	return err.Error()
}

// Describe formats an error as a user-facing message plus an optional
// remediation hint. API errors get the code spelled out; anything else
// passes through as-is.
func Describe(err error) (string, string) {
	var rl *slack.RateLimitedError
	if errors.As(err, &rl) {
		return "Slack API error: rate_limited",
			fmt.Sprintf("Rate limit exceeded. Try again in %s.", rl.RetryAfter)
	}

	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		return "Slack API error: " + apiErr.Err, errorHints[apiErr.Err]
	}
	return err.Error(), errorHints[ErrorCode(err)]
}
