package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fprochazka/slackcli/internal/unread"
)

func newUnreadCmd(a *app) *cobra.Command {
	var (
		asJSON  bool
		dmsOnly bool
	)
	cmd := &cobra.Command{
		Use:   "unread",
		Short: "List conversations with unread messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session(); err != nil {
				return err
			}
			auth, err := a.gw.AuthTest(cmd.Context())
			if err != nil {
				return err
			}
			var types []string
			if dmsOnly {
				types = []string{"im", "mpim"}
			}
			results, err := unread.NewScanner(a.log).Scan(cmd.Context(), a.gw, auth.UserID, types)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "Nothing unread")
				return nil
			}
			names := a.users.DisplayNames(cmd.Context(), a.gw, a.org.Name, unreadUserIDs(results))
			for _, r := range results {
				label := r.Name
				switch {
				case r.IsIM:
					if name := names[r.UserID]; name != "" {
						label = "@" + name
					}
				case r.IsMpIM:
					label = "&" + r.Name
				default:
					label = "#" + r.Name
				}
				suffix := ""
				if r.HasMore {
					suffix = "+"
				}
				fmt.Fprintf(out, "%-40s %d%s unread\n", label, r.UnreadCount, suffix)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.Flags().BoolVar(&dmsOnly, "dms", false, "only DMs and group DMs")
	return cmd
}

func unreadUserIDs(results []unread.Result) []string {
	var ids []string
	for _, r := range results {
		if r.UserID != "" {
			ids = append(ids, r.UserID)
		}
	}
	return ids
}

func newWhoamiCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the authed user and workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session(); err != nil {
				return err
			}
			auth, err := a.gw.AuthTest(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, auth)
			}
			fmt.Fprintf(out, "User:      %s (%s)\n", auth.User, auth.UserID)
			fmt.Fprintf(out, "Workspace: %s (%s)\n", auth.Team, auth.TeamID)
			fmt.Fprintf(out, "URL:       %s\n", auth.URL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}
