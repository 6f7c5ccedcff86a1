// Package message converts wire messages into display records: Slack mrkdwn
// mention tokens become readable names and rich text blocks become plain
// text.
package message

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/slack-go/slack"
)

// Reaction is one emoji reaction with the users who added it.
type Reaction struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Users []string `json:"users,omitempty"`
}

// FileAttachment is the subset of file metadata worth showing.
type FileAttachment struct {
	Name     string `json:"name"`
	Mimetype string `json:"mimetype,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Message is a display-ready message record.
type Message struct {
	TS         string           `json:"ts"`
	ThreadTS   string           `json:"thread_ts,omitempty"`
	UserID     string           `json:"user_id,omitempty"`
	Username   string           `json:"username"`
	Text       string           `json:"text"`
	ReplyCount int              `json:"reply_count,omitempty"`
	Reactions  []Reaction       `json:"reactions,omitempty"`
	Files      []FileAttachment `json:"files,omitempty"`
}

// Names supplies display names for the IDs mention rendering encounters.
// Missing entries fall back to the raw ID.
type Names struct {
	Users    map[string]string
	Channels map[string]string
}

func (n Names) user(id string) string {
	if name, ok := n.Users[id]; ok && name != "" {
		return name
	}
	return id
}

func (n Names) channel(id string) string {
	if name, ok := n.Channels[id]; ok && name != "" {
		return name
	}
	return id
}

var (
	userMentionPattern    = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]*)?>`)
	channelMentionPattern = regexp.MustCompile(`<#([A-Z0-9]+)(?:\|([^>]*))?>`)
	subteamPattern        = regexp.MustCompile(`<!subteam\^([A-Z0-9]+)(?:\|([^>]*))?>`)
	broadcastPattern      = regexp.MustCompile(`<!(here|channel|everyone)>`)
	linkPattern           = regexp.MustCompile(`<(https?://[^|>]+)(?:\|([^>]*))?>`)
)

// ResolveMentions rewrites Slack mrkdwn tokens into readable text.
func ResolveMentions(text string, names Names) string {
	text = userMentionPattern.ReplaceAllStringFunc(text, func(m string) string {
		id := userMentionPattern.FindStringSubmatch(m)[1]
		return "@" + names.user(id)
	})
	text = channelMentionPattern.ReplaceAllStringFunc(text, func(m string) string {
		groups := channelMentionPattern.FindStringSubmatch(m)
		if groups[2] != "" {
			return "#" + groups[2]
		}
		return "#" + names.channel(groups[1])
	})
	text = subteamPattern.ReplaceAllStringFunc(text, func(m string) string {
		groups := subteamPattern.FindStringSubmatch(m)
		if groups[2] != "" {
			return "@" + groups[2]
		}
		return "@group"
	})
	text = broadcastPattern.ReplaceAllString(text, "@$1")
	text = linkPattern.ReplaceAllStringFunc(text, func(m string) string {
		groups := linkPattern.FindStringSubmatch(m)
		url, label := groups[1], groups[2]
		if label != "" && label != url {
			return fmt.Sprintf("%s (%s)", label, url)
		}
		return url
	})
	return text
}

// FromAPI converts a wire message into a display record.
func FromAPI(m slack.Message, names Names) Message {
	text := m.Text
	if text == "" {
		text = BlockText(m.Blocks.BlockSet)
	}
	out := Message{
		TS:         m.Timestamp,
		ThreadTS:   m.ThreadTimestamp,
		UserID:     m.User,
		Username:   names.user(m.User),
		Text:       ResolveMentions(text, names),
		ReplyCount: m.ReplyCount,
	}
	if m.User == "" && m.Username != "" {
		out.Username = m.Username
	}
	for _, r := range m.Reactions {
		out.Reactions = append(out.Reactions, Reaction{Name: r.Name, Count: r.Count, Users: r.Users})
	}
	for _, f := range m.Files {
		out.Files = append(out.Files, FileAttachment{
			Name:     f.Name,
			Mimetype: f.Mimetype,
			URL:      f.URLPrivate,
		})
	}
	return out
}

// FromAPIAll converts a message page, oldest first as Slack returns them.
func FromAPIAll(msgs []slack.Message, names Names) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, FromAPI(m, names))
	}
	return out
}

// UserIDs collects the distinct author and reaction user IDs of a message
// page, for warming the user cache in one pass.
func UserIDs(msgs []slack.Message) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, m := range msgs {
		add(m.User)
		for _, r := range m.Reactions {
			for _, u := range r.Users {
				add(u)
			}
		}
	}
	return ids
}

// BlockText flattens rich text blocks into plain text, for messages whose
// top-level text field is empty.
func BlockText(blocks []slack.Block) string {
	var b strings.Builder
	for _, block := range blocks {
		rt, ok := block.(*slack.RichTextBlock)
		if !ok {
			continue
		}
		for _, el := range rt.Elements {
			writeRichTextElement(&b, el)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeRichTextElement(b *strings.Builder, el slack.RichTextElement) {
	switch v := el.(type) {
	case *slack.RichTextSection:
		writeSectionElements(b, v.Elements)
	case *slack.RichTextList:
		for _, item := range v.Elements {
			section, ok := item.(*slack.RichTextSection)
			if !ok {
				continue
			}
			b.WriteString("- ")
			writeSectionElements(b, section.Elements)
			b.WriteString("\n")
		}
	case *slack.RichTextQuote:
		b.WriteString("> ")
		writeSectionElements(b, v.Elements)
		b.WriteString("\n")
	case *slack.RichTextPreformatted:
		writeSectionElements(b, v.Elements)
		b.WriteString("\n")
	}
}

func writeSectionElements(b *strings.Builder, elements []slack.RichTextSectionElement) {
	for _, el := range elements {
		switch v := el.(type) {
		case *slack.RichTextSectionTextElement:
			b.WriteString(v.Text)
		case *slack.RichTextSectionUserElement:
			fmt.Fprintf(b, "<@%s>", v.UserID)
		case *slack.RichTextSectionChannelElement:
			fmt.Fprintf(b, "<#%s>", v.ChannelID)
		case *slack.RichTextSectionLinkElement:
			if v.Text != "" {
				b.WriteString(v.Text)
			} else {
				b.WriteString(v.URL)
			}
		case *slack.RichTextSectionEmojiElement:
			fmt.Fprintf(b, ":%s:", v.Name)
		case *slack.RichTextSectionBroadcastElement:
			fmt.Fprintf(b, "<!%s>", v.Range)
		}
	}
}
