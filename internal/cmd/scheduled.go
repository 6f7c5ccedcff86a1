package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fprochazka/slackcli/internal/timeutil"
)

func newScheduledCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduled",
		Short: "Manage scheduled messages",
	}
	cmd.AddCommand(newScheduledListCmd(a), newScheduledCreateCmd(a), newScheduledDeleteCmd(a))
	return cmd
}

func newScheduledListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list [channel]",
		Short: "List scheduled messages, optionally for one channel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID := ""
			if len(args) == 1 {
				var err error
				channelID, _, err = a.res.ResolveChannel(a.org.Name, args[0])
				if err != nil {
					return err
				}
			}
			msgs, err := a.gw.ScheduledMessages(cmd.Context(), channelID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, msgs)
			}
			if len(msgs) == 0 {
				fmt.Fprintln(out, "No scheduled messages")
				return nil
			}
			names := a.convos.CachedNames(a.org.Name)
			for _, m := range msgs {
				channel := m.Channel
				if name := names[channel]; name != "" {
					channel = "#" + name
				}
				fmt.Fprintf(out, "%-24s  %s  %s  %s\n",
					m.ID, timeutil.HumanTime(int64(m.PostAt)), channel, m.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func newScheduledCreateCmd(a *app) *cobra.Command {
	var (
		at        string
		in        string
		fromStdin bool
	)
	cmd := &cobra.Command{
		Use:   "create <channel> [text...]",
		Short: "Schedule a message for later",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			postAt, err := parsePostAt(at, in, time.Now())
			if err != nil {
				return err
			}

			text, err := messageBody(cmd, args[1:], fromStdin)
			if err != nil {
				return err
			}
			target, err := a.res.ResolveTarget(cmd.Context(), a.gw, a.gw, a.org.Name, args[0])
			if err != nil {
				return err
			}
			id, err := a.gw.ScheduleMessage(cmd.Context(), target.ChannelID, text, postAt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s for %s (id %s)\n",
				target.Label, postAt.Format("2006-01-02 15:04"), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "absolute post time ('2026-01-02 13:45')")
	cmd.Flags().StringVar(&in, "in", "", "post after a duration ('90m', '2h')")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the message body from stdin")
	return cmd
}

// parsePostAt validates the scheduling flags. Relative specs are rejected
// for --at because ParseTimeSpec points them into the past; --in is the
// forward-looking form.
func parsePostAt(at, in string, now time.Time) (time.Time, error) {
	if (at == "") == (in == "") {
		return time.Time{}, fmt.Errorf("pass exactly one of --at or --in")
	}
	var postAt time.Time
	if at != "" {
		if timeutil.IsRelative(at) {
			return time.Time{}, fmt.Errorf("--at takes an absolute time; use --in %s to schedule %s from now", at, at)
		}
		t, err := timeutil.ParseTimeSpec(at, now)
		if err != nil {
			return time.Time{}, err
		}
		postAt = t
	} else {
		d, err := time.ParseDuration(in)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --in duration %q: %w", in, err)
		}
		postAt = now.Add(d)
	}
	if !postAt.After(now) {
		return time.Time{}, fmt.Errorf("scheduled time %s is in the past", postAt.Format(time.RFC3339))
	}
	return postAt, nil
}

func newScheduledDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <channel> <scheduled-message-id>",
		Short: "Cancel a scheduled message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID, _, err := a.res.ResolveChannel(a.org.Name, args[0])
			if err != nil {
				return err
			}
			if err := a.gw.DeleteScheduledMessage(cmd.Context(), channelID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", args[1])
			return nil
		},
	}
	return cmd
}
