package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fprochazka/slackcli/internal/directory"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Work with the user directory",
	}
	cmd.AddCommand(newUsersListCmd(a), newUsersSearchCmd(a), newUsersGetCmd(a))
	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	var (
		refresh     bool
		asJSON      bool
		withDeleted bool
		withBots    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspace users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session(); err != nil {
				return err
			}
			var users []directory.UserInfo
			if !refresh {
				users = a.users.CachedAll(a.org.Name)
			}
			if len(users) == 0 {
				var err error
				users, err = a.users.RefreshAll(cmd.Context(), a.gw, a.org.Name)
				if err != nil {
					return err
				}
			}
			kept := users[:0:0]
			for _, u := range users {
				if u.Deleted && !withDeleted {
					continue
				}
				if u.IsBot && !withBots {
					continue
				}
				kept = append(kept, u)
			}
			users = kept
			sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, users)
			}
			for _, u := range users {
				printUserLine(cmd, u)
			}
			fmt.Fprintf(out, "\n%d users\n", len(users))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch a fresh listing instead of the cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.Flags().BoolVar(&withDeleted, "deleted", false, "include deactivated users")
	cmd.Flags().BoolVar(&withBots, "bots", false, "include bot users")
	return cmd
}

func newUsersSearchCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search users by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			query := strings.ToLower(args[0])
			users := a.users.CachedAll(a.org.Name)
			if len(users) == 0 {
				var err error
				users, err = a.users.RefreshAll(cmd.Context(), a.gw, a.org.Name)
				if err != nil {
					return err
				}
			}
			var matches []directory.UserInfo
			for _, u := range users {
				if u.Deleted {
					continue
				}
				haystack := strings.ToLower(strings.Join([]string{u.Name, u.RealName, u.DisplayName, u.Email}, " "))
				if strings.Contains(haystack, query) {
					matches = append(matches, u)
				}
			}
			sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

			if asJSON {
				return printJSON(cmd.OutOrStdout(), matches)
			}
			for _, u := range matches {
				printUserLine(cmd, u)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func newUsersGetCmd(a *app) *cobra.Command {
	var (
		asJSON  bool
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "get <user>",
		Short: "Show one user (ID, @handle, or email)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session(); err != nil {
				return err
			}
			id, _, err := a.users.Resolve(cmd.Context(), a.gw, a.org.Name, args[0])
			if err != nil {
				return err
			}
			u := a.users.Get(cmd.Context(), a.gw, a.org.Name, id, refresh)
			if u == nil {
				return fmt.Errorf("user not found: %s", args[0])
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, u)
			}
			fmt.Fprintf(out, "ID:           %s\n", u.ID)
			fmt.Fprintf(out, "Name:         @%s\n", u.Name)
			fmt.Fprintf(out, "Real name:    %s\n", u.RealName)
			fmt.Fprintf(out, "Display name: %s\n", u.DisplayName)
			if u.Email != "" {
				fmt.Fprintf(out, "Email:        %s\n", u.Email)
			}
			fmt.Fprintf(out, "Bot:          %v\n", u.IsBot)
			fmt.Fprintf(out, "Admin:        %v\n", u.IsAdmin)
			fmt.Fprintf(out, "Deleted:      %v\n", u.Deleted)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the user cache")
	return cmd
}

func printUserLine(cmd *cobra.Command, u directory.UserInfo) {
	flags := ""
	if u.IsBot {
		flags += " [bot]"
	}
	if u.Deleted {
		flags += " [deleted]"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%-12s  @%-24s %s%s\n", u.ID, u.Name, u.BestDisplayName(), flags)
}
