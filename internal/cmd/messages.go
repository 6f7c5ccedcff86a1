package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/fprochazka/slackcli/internal/message"
	"github.com/fprochazka/slackcli/internal/timeutil"
)

func newMessagesCmd(a *app) *cobra.Command {
	var (
		since       string
		until       string
		limit       int
		asJSON      bool
		withThreads bool
	)
	cmd := &cobra.Command{
		Use:   "messages <channel> [thread-ts]",
		Short: "Read channel history or a thread",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID, _, err := a.res.ResolveChannel(a.org.Name, args[0])
			if err != nil {
				return err
			}

			var msgs []slack.Message
			if len(args) == 2 {
				msgs, err = a.gw.ThreadReplies(cmd.Context(), channelID, args[1], limit)
			} else {
				var oldest, latest time.Time
				now := time.Now()
				if since != "" {
					if oldest, err = timeutil.ParseTimeSpec(since, now); err != nil {
						return err
					}
				}
				if until != "" {
					if latest, err = timeutil.ParseTimeSpec(until, now); err != nil {
						return err
					}
				}
				msgs, err = a.gw.History(cmd.Context(), channelID, oldest, latest, limit)
			}
			if err != nil {
				return err
			}

			records := a.renderMessages(cmd.Context(), msgs)
			if withThreads && len(args) == 1 {
				if err := a.appendThreads(cmd.Context(), channelID, msgs, &records, limit); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, records)
			}
			for _, m := range records {
				printMessage(cmd, m)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "oldest message ('today', '2h', '3d', or ISO date)")
	cmd.Flags().StringVar(&until, "until", "", "newest message (same formats as --since)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum messages to fetch")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.Flags().BoolVar(&withThreads, "with-threads", false, "inline thread replies after their parents")
	return cmd
}

// renderMessages warms the user cache for everyone appearing in the page
// and converts the wire messages to display records.
func (a *app) renderMessages(ctx context.Context, msgs []slack.Message) []message.Message {
	names := message.Names{
		Users:    a.users.DisplayNames(ctx, a.gw, a.org.Name, message.UserIDs(msgs)),
		Channels: a.convos.CachedNames(a.org.Name),
	}
	return message.FromAPIAll(msgs, names)
}

func (a *app) appendThreads(ctx context.Context, channelID string, msgs []slack.Message, records *[]message.Message, limit int) error {
	// Rebuild the record list with each thread's replies inlined after its
	// parent. Replies repeat the parent as the first element.
	var out []message.Message
	for i, m := range msgs {
		out = append(out, (*records)[i])
		if m.ReplyCount == 0 || m.ThreadTimestamp != m.Timestamp {
			continue
		}
		replies, err := a.gw.ThreadReplies(ctx, channelID, m.ThreadTimestamp, limit)
		if err != nil {
			return err
		}
		rendered := a.renderMessages(ctx, replies)
		for j := range rendered {
			if rendered[j].TS == m.Timestamp {
				continue
			}
			rendered[j].Text = "  ↳ " + rendered[j].Text
			out = append(out, rendered[j])
		}
	}
	*records = out
	return nil
}

func printMessage(cmd *cobra.Command, m message.Message) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %s: %s\n", timeutil.HumanTS(m.TS), m.Username, m.Text)
	if m.ReplyCount > 0 {
		fmt.Fprintf(out, "    (%d replies in thread %s)\n", m.ReplyCount, m.TS)
	}
	for _, r := range m.Reactions {
		fmt.Fprintf(out, "    :%s: %d\n", r.Name, r.Count)
	}
	for _, f := range m.Files {
		fmt.Fprintf(out, "    file: %s\n", f.Name)
	}
}

func newEditCmd(a *app) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "edit <channel> <ts> [text...]",
		Short: "Edit a message you sent",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID, _, err := a.res.ResolveChannel(a.org.Name, args[0])
			if err != nil {
				return err
			}
			text, err := messageBody(cmd, args[2:], fromStdin)
			if err != nil {
				return err
			}
			ts, err := a.gw.EditMessage(cmd.Context(), channelID, args[1], text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Edited %s\n", ts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the new body from stdin")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <channel> <ts>",
		Short: "Delete a message you sent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID, _, err := a.res.ResolveChannel(a.org.Name, args[0])
			if err != nil {
				return err
			}
			if err := a.gw.DeleteMessage(cmd.Context(), channelID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[1])
			return nil
		},
	}
	return cmd
}
