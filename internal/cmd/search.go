package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fprochazka/slackcli/internal/timeutil"
)

// searchScope holds the flags shared by both search subcommands.
type searchScope struct {
	in     string
	from   string
	after  string
	before string
	count  int
	page   int
	asJSON bool
}

func (s *searchScope) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.in, "in", "", "restrict to a channel (in:#channel)")
	cmd.Flags().StringVar(&s.from, "from", "", "restrict to a sender (from:@user)")
	cmd.Flags().StringVar(&s.after, "after", "", "only results after this date (today, 7d, 2026-01-02)")
	cmd.Flags().StringVar(&s.before, "before", "", "only results before this date")
	cmd.Flags().IntVar(&s.count, "count", 20, "matches per page")
	cmd.Flags().IntVar(&s.page, "page", 1, "result page")
	cmd.Flags().BoolVar(&s.asJSON, "json", false, "emit JSON")
}

// buildSearchQuery appends Slack search modifiers to the free-text terms.
// Channel and user values have their #/@ sigils stripped; date specs accept
// the same forms as message history flags and render as YYYY-MM-DD.
func buildSearchQuery(terms []string, s *searchScope, now time.Time) (string, error) {
	parts := []string{strings.Join(terms, " ")}
	if s.in != "" {
		parts = append(parts, "in:"+strings.TrimPrefix(s.in, "#"))
	}
	if s.from != "" {
		parts = append(parts, "from:"+strings.TrimPrefix(s.from, "@"))
	}
	for _, mod := range []struct{ op, spec string }{
		{"after", s.after},
		{"before", s.before},
	} {
		if mod.spec == "" {
			continue
		}
		t, err := timeutil.ParseTimeSpec(mod.spec, now)
		if err != nil {
			return "", fmt.Errorf("invalid --%s date: %w", mod.op, err)
		}
		parts = append(parts, mod.op+":"+t.Format("2006-01-02"))
	}
	return strings.Join(parts, " "), nil
}

func newSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the workspace",
	}
	cmd.AddCommand(newSearchMessagesCmd(a), newSearchFilesCmd(a))
	return cmd
}

func newSearchMessagesCmd(a *app) *cobra.Command {
	var scope searchScope
	cmd := &cobra.Command{
		Use:   "messages <query...>",
		Short: "Search messages (supports raw Slack operators too)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := buildSearchQuery(args, &scope, time.Now())
			if err != nil {
				return err
			}
			if err := a.session(); err != nil {
				return err
			}
			result, err := a.gw.SearchMessages(cmd.Context(), query, scope.count, scope.page)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if scope.asJSON {
				return printJSON(out, result)
			}
			if result.Total == 0 {
				fmt.Fprintln(out, "No matches")
				return nil
			}
			for _, m := range result.Matches {
				fmt.Fprintf(out, "[%s] #%s %s: %s\n",
					timeutil.HumanTS(m.Timestamp), m.Channel.Name, m.Username, m.Text)
				if m.Permalink != "" {
					fmt.Fprintf(out, "    %s\n", m.Permalink)
				}
			}
			fmt.Fprintf(out, "\n%d of %d matches (page %d/%d)\n",
				len(result.Matches), result.Total, result.Paging.Page, result.Paging.Pages)
			return nil
		},
	}
	scope.register(cmd)
	return cmd
}

func newSearchFilesCmd(a *app) *cobra.Command {
	var scope searchScope
	cmd := &cobra.Command{
		Use:   "files <query...>",
		Short: "Search files by name and content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := buildSearchQuery(args, &scope, time.Now())
			if err != nil {
				return err
			}
			if err := a.session(); err != nil {
				return err
			}
			result, err := a.gw.SearchFiles(cmd.Context(), query, scope.count, scope.page)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if scope.asJSON {
				return printJSON(out, result)
			}
			if result.Total == 0 {
				fmt.Fprintln(out, "No matches")
				return nil
			}
			for _, f := range result.Matches {
				fmt.Fprintf(out, "%-14s  %-12s %9s  %s  %s\n",
					f.ID, f.PrettyType, formatSize(f.Size), f.User, f.Name)
				if f.Permalink != "" {
					fmt.Fprintf(out, "    %s\n", f.Permalink)
				}
			}
			fmt.Fprintf(out, "\n%d of %d matches (page %d/%d)\n",
				len(result.Matches), result.Total, result.Paging.Page, result.Paging.Pages)
			return nil
		},
	}
	scope.register(cmd)
	return cmd
}
