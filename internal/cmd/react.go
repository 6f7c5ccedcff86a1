package cmd

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
)

func reactionUserIDs(reactions []slack.ItemReaction) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, r := range reactions {
		for _, id := range r.Users {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func newReactCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "react",
		Short: "Add, remove, or list emoji reactions",
	}
	cmd.AddCommand(newReactAddCmd(a), newReactRemoveCmd(a), newReactListCmd(a))
	return cmd
}

// trimEmoji accepts both "tada" and ":tada:".
func trimEmoji(name string) string {
	return strings.Trim(name, ":")
}

func newReactAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <channel> <ts> <emoji>",
		Short: "Add a reaction to a message",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID, _, err := a.res.ResolveChannel(a.org.Name, args[0])
			if err != nil {
				return err
			}
			emoji := trimEmoji(args[2])
			if err := a.gw.AddReaction(cmd.Context(), channelID, args[1], emoji); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added :%s:\n", emoji)
			return nil
		},
	}
	return cmd
}

func newReactRemoveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <channel> <ts> <emoji>",
		Short: "Remove your reaction from a message",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID, _, err := a.res.ResolveChannel(a.org.Name, args[0])
			if err != nil {
				return err
			}
			emoji := trimEmoji(args[2])
			if err := a.gw.RemoveReaction(cmd.Context(), channelID, args[1], emoji); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed :%s:\n", emoji)
			return nil
		},
	}
	return cmd
}

func newReactListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list <channel> <ts>",
		Short: "List reactions on a message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			channelID, _, err := a.res.ResolveChannel(a.org.Name, args[0])
			if err != nil {
				return err
			}
			reactions, err := a.gw.Reactions(cmd.Context(), channelID, args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, reactions)
			}
			if len(reactions) == 0 {
				fmt.Fprintln(out, "No reactions")
				return nil
			}
			names := a.users.DisplayNames(cmd.Context(), a.gw, a.org.Name, reactionUserIDs(reactions))
			for _, r := range reactions {
				users := make([]string, 0, len(r.Users))
				for _, id := range r.Users {
					if name, ok := names[id]; ok {
						users = append(users, "@"+name)
					} else {
						users = append(users, id)
					}
				}
				fmt.Fprintf(out, ":%s: %d  %s\n", r.Name, r.Count, strings.Join(users, " "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}
