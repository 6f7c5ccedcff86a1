package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSendCmd(a *app) *cobra.Command {
	var (
		threadTS  string
		fromStdin bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "send <channel> [text...]",
		Short: "Send a message to a channel, @user, or conversation ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
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
			ts, err := a.gw.SendMessage(cmd.Context(), target.ChannelID, text, threadTS)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"channel_id": target.ChannelID,
					"ts":         ts,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent to %s (ts %s)\n", target.Label, ts)
			return nil
		},
	}
	cmd.Flags().StringVar(&threadTS, "thread", "", "reply in the thread with this timestamp")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the message body from stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func newDMCmd(a *app) *cobra.Command {
	var (
		fromStdin bool
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "dm <user> [text...]",
		Short: "Send a direct message (user ID, @handle, or email)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			text, err := messageBody(cmd, args[1:], fromStdin)
			if err != nil {
				return err
			}
			userID, username, err := a.users.Resolve(cmd.Context(), a.gw, a.org.Name, args[0])
			if err != nil {
				return err
			}
			channelID, err := a.gw.OpenDM(cmd.Context(), userID)
			if err != nil {
				return err
			}
			ts, err := a.gw.SendMessage(cmd.Context(), channelID, text, "")
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"channel_id": channelID,
					"user_id":    userID,
					"ts":         ts,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent to @%s (ts %s)\n", username, ts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the message body from stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

// messageBody assembles the message text from args or stdin and rejects an
// empty body.
func messageBody(cmd *cobra.Command, args []string, fromStdin bool) (string, error) {
	var text string
	if fromStdin {
		var err error
		text, err = readStdin(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		text = strings.TrimRight(text, "\n")
	} else {
		text = strings.Join(args, " ")
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty message (pass text or use --stdin)")
	}
	return text, nil
}
