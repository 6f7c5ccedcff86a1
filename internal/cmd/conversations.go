package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fprochazka/slackcli/internal/directory"
)

func newConversationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "Work with the conversation directory",
	}
	cmd.AddCommand(newConversationsListCmd(a))
	return cmd
}

func newConversationsListCmd(a *app) *cobra.Command {
	var (
		refresh  bool
		asJSON   bool
		filter   directory.FilterOptions
		archived bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List channels, groups, and DMs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session(); err != nil {
				return err
			}
			res, err := a.convos.Load(cmd.Context(), a.gw, a.org.Name, refresh)
			if err != nil {
				return err
			}
			convos := res.Conversations
			if !archived {
				kept := convos[:0:0]
				for _, c := range convos {
					if !c.IsArchived {
						kept = append(kept, c)
					}
				}
				convos = kept
			}
			convos = directory.Filter(convos, filter)

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, convos)
			}
			if res.FromCache {
				fmt.Fprintf(out, "From cache (%s old); use --refresh to update.\n\n",
					time.Since(res.CacheAge).Round(time.Minute))
			}
			for _, c := range convos {
				fmt.Fprintf(out, "%-12s  %s%s\n", c.ID, conversationSigil(c), c.Name)
			}
			fmt.Fprintf(out, "\n%d conversations\n", len(convos))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch a fresh listing instead of the cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.Flags().BoolVar(&filter.DMs, "dms", false, "only DMs and group DMs")
	cmd.Flags().BoolVar(&filter.Private, "private", false, "only private channels")
	cmd.Flags().BoolVar(&filter.Public, "public", false, "only public channels")
	cmd.Flags().BoolVar(&filter.Member, "member", false, "only conversations you are in")
	cmd.Flags().BoolVar(&filter.NonMember, "non-member", false, "only channels you are not in")
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived conversations")
	return cmd
}

func conversationSigil(c directory.Conversation) string {
	switch {
	case c.IsIM:
		return "@"
	case c.IsMpIM:
		return "&"
	case c.IsPrivate:
		return "🔒"
	default:
		return "#"
	}
}
