// Package cmd wires the CLI: flag parsing, session setup, and the command
// tree.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fprochazka/slackcli/internal/cache"
	"github.com/fprochazka/slackcli/internal/config"
	"github.com/fprochazka/slackcli/internal/directory"
	"github.com/fprochazka/slackcli/internal/gateway"
	"github.com/fprochazka/slackcli/internal/logging"
	"github.com/fprochazka/slackcli/internal/resolver"
)

// app carries the lazily built session shared by all commands.
type app struct {
	cfgPath string
	orgName string
	verbose bool

	log    *zap.Logger
	cfg    *config.Config
	org    config.Org
	gw     *gateway.Client
	store  *cache.Store
	users  *directory.UserDirectory
	convos *directory.ConversationDirectory
	res    *resolver.Resolver
}

// session builds the config, gateway, and directories on first use, so
// commands that fail flag validation never touch the config file.
func (a *app) session() error {
	if a.gw != nil {
		return nil
	}
	a.log = logging.New(a.verbose)

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	org, err := cfg.GetOrg(a.orgName)
	if err != nil {
		return err
	}
	a.org = org

	root := cfg.CacheRoot
	if root == "" {
		root, err = cache.DefaultRoot()
		if err != nil {
			return err
		}
	}
	a.store = cache.NewStore(root, a.log)
	a.users = directory.NewUserDirectory(a.store, a.log)
	a.convos = directory.NewConversationDirectory(a.store, a.users, a.log)
	a.res = resolver.New(a.convos, a.users, a.log)

	gw, err := gateway.New(org.Token, a.log)
	if err != nil {
		return err
	}
	a.gw = gw
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "slackcli",
		Short:         "Slack from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.orgName, "org", "", "workspace from the config file (default: default_org)")
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file path (default: ~/.config/slackcli/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newConversationsCmd(a),
		newUsersCmd(a),
		newSendCmd(a),
		newDMCmd(a),
		newMessagesCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newReactCmd(a),
		newPinsCmd(a),
		newScheduledCmd(a),
		newSearchCmd(a),
		newFilesCmd(a),
		newDownloadCmd(a),
		newResolveCmd(a),
		newUnreadCmd(a),
		newWhoamiCmd(a),
	)
	return root
}

// Execute runs the CLI and turns API errors into readable messages with a
// hint when one is known.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		msg, hint := gateway.Describe(err)
		fmt.Fprintln(os.Stderr, "Error:", msg)
		if hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		return 1
	}
	return 0
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readStdin reads the whole of standard input, for message bodies piped in.
func readStdin(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
