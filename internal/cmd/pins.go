package cmd

import (
	"fmt"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
)

func newPinsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pins",
		Short: "Pin, unpin, and list pinned messages",
	}
	cmd.AddCommand(newPinsAddCmd(a), newPinsRemoveCmd(a), newPinsListCmd(a))
	return cmd
}

func newPinsAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <channel> <ts>",
		Short: "Pin a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID, _, err := a.res.ResolveChannel(a.org.Name, args[0])
			if err != nil {
				return err
			}
			if err := a.gw.AddPin(cmd.Context(), channelID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pinned %s\n", args[1])
			return nil
		},
	}
	return cmd
}

func newPinsRemoveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <channel> <ts>",
		Short: "Unpin a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID, _, err := a.res.ResolveChannel(a.org.Name, args[0])
			if err != nil {
				return err
			}
			if err := a.gw.RemovePin(cmd.Context(), channelID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unpinned %s\n", args[1])
			return nil
		},
	}
	return cmd
}

func newPinsListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list <channel>",
		Short: "List pinned messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID, name, err := a.res.ResolveChannel(a.org.Name, args[0])
			if err != nil {
				return err
			}
			items, err := a.gw.Pins(cmd.Context(), channelID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, items)
			}
			if len(items) == 0 {
				fmt.Fprintf(out, "No pins in #%s\n", name)
				return nil
			}
			var msgs []slack.Message
			for _, item := range items {
				if item.Message != nil {
					msgs = append(msgs, *item.Message)
				}
			}
			for _, m := range a.renderMessages(cmd.Context(), msgs) {
				printMessage(cmd, m)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}
