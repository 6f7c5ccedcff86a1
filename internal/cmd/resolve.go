package cmd

import (
	"fmt"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/fprochazka/slackcli/internal/message"
	"github.com/fprochazka/slackcli/internal/resolver"
	"github.com/fprochazka/slackcli/internal/timeutil"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		asJSON   bool
		withText bool
	)
	cmd := &cobra.Command{
		Use:   "resolve <permalink>",
		Short: "Resolve a Slack message URL to its channel and message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := resolver.ParsePermalink(args[0])
			if err != nil {
				return err
			}
			// The URL's workspace subdomain picks the org when --org is not
			// given and the config knows that workspace.
			if a.orgName == "" {
				a.orgName = link.Workspace
			}
			if err := a.session(); err != nil {
				return err
			}

			name := link.ChannelID
			if cached := a.convos.CachedNames(a.org.Name)[link.ChannelID]; cached != "" {
				name = cached
			}

			result := map[string]interface{}{
				"workspace":       link.Workspace,
				"channel_id":      link.ChannelID,
				"channel_name":    name,
				"message_ts":      link.MessageTS,
				"is_thread_reply": link.IsThreadReply,
			}
			if link.ThreadTS != "" {
				result["thread_ts"] = link.ThreadTS
			}

			if withText {
				var m *slack.Message
				if link.IsThreadReply {
					m, err = a.gw.ThreadReply(cmd.Context(), link.ChannelID, link.ThreadTS, link.MessageTS)
				} else {
					m, err = a.gw.Message(cmd.Context(), link.ChannelID, link.MessageTS)
				}
				if err != nil {
					return err
				}
				if m == nil {
					return fmt.Errorf("message %s not found in %s", link.MessageTS, link.ChannelID)
				}
				result["message"] = a.renderMessages(cmd.Context(), []slack.Message{*m})[0]
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, result)
			}
			fmt.Fprintf(out, "Workspace: %s\n", link.Workspace)
			fmt.Fprintf(out, "Channel:   #%s (%s)\n", name, link.ChannelID)
			fmt.Fprintf(out, "Message:   %s (%s)\n", link.MessageTS, timeutil.HumanTS(link.MessageTS))
			if link.IsThreadReply {
				fmt.Fprintf(out, "Thread:    reply in %s\n", link.ThreadTS)
			}
			if m, ok := result["message"]; ok {
				fmt.Fprintln(out)
				printMessage(cmd, m.(message.Message))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.Flags().BoolVar(&withText, "fetch", false, "fetch the message body as well")
	return cmd
}
