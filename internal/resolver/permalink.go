package resolver

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// archivePathPattern matches the permalink path: the conversation ID
// followed by a "p"-prefixed timestamp with the dot stripped.
var archivePathPattern = regexp.MustCompile(`^/archives/([A-Z0-9]+)/p(\d+)$`)

// Permalink is a parsed Slack message URL.
type Permalink struct {
	Workspace     string
	ChannelID     string
	MessageTS     string
	ThreadTS      string
	IsThreadReply bool
}

// ParsePermalink parses a Slack archive URL of the form
// https://<workspace>.slack.com/archives/<channel>/p<ts>, including the
// optional thread_ts query parameter. The timestamp digits carry an implied
// dot before the last six digits.
func ParsePermalink(raw string) (Permalink, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Permalink{}, fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	host := u.Hostname()
	if !strings.HasSuffix(host, "slack.com") {
		return Permalink{}, fmt.Errorf("invalid Slack URL %q: hostname must end with slack.com", raw)
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return Permalink{}, fmt.Errorf("invalid Slack URL %q: missing workspace subdomain", raw)
	}
	workspace := labels[0]

	m := archivePathPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return Permalink{}, fmt.Errorf("invalid Slack URL %q: expected /archives/<channel>/p<timestamp>", raw)
	}
	channelID, digits := m[1], m[2]

	if len(digits) < 7 {
		return Permalink{}, fmt.Errorf("invalid Slack URL %q: timestamp too short", raw)
	}
	messageTS := digits[:len(digits)-6] + "." + digits[len(digits)-6:]

	threadTS := u.Query().Get("thread_ts")
	return Permalink{
		Workspace:     workspace,
		ChannelID:     channelID,
		MessageTS:     messageTS,
		ThreadTS:      threadTS,
		IsThreadReply: threadTS != "" && threadTS != messageTS,
	}, nil
}
