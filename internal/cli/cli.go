// Package cli implements the dbl command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/dbl-go/internal/config"
	"github.com/samvad-hq/dbl-go/internal/logger"
	"github.com/samvad-hq/dbl-go/pkg/dbl"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion records build information shown by --version.
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
}

// CLI holds global flags shared by every command.
type CLI struct {
	token   string
	baseURL string
	timeout time.Duration
	asJSON  bool
	verbose bool

	out    io.Writer
	errOut io.Writer
	log    logger.Logger
}

// New returns a CLI writing command output to out and diagnostics to errOut.
func New(out, errOut io.Writer) *CLI {
	return &CLI{out: out, errOut: errOut, log: logger.NopLogger{}}
}

// Execute runs the dbl CLI against os.Args.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return New(os.Stdout, os.Stderr).Root().ExecuteContext(ctx)
}

// Root builds the command tree.
func (c *CLI) Root() *cobra.Command {
	root := &cobra.Command{
		Use:          "dbl",
		Short:        "Query and update the top.gg bot list",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.configure(cmd)
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.SetVersionTemplate(fmt.Sprintf("dbl %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	flags := root.PersistentFlags()
	flags.StringVar(&c.token, "token", "", "top.gg API token (default $DBL_TOKEN)")
	flags.StringVar(&c.baseURL, "base-url", "", "API root (default $DBL_BASE_URL or "+dbl.DefaultBaseURL+")")
	flags.DurationVar(&c.timeout, "timeout", 0, "HTTP timeout (default $HTTP_TIMEOUT_SECONDS)")
	flags.BoolVar(&c.asJSON, "json", false, "print raw JSON")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(c.botCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.postStatsCommand())
	root.AddCommand(c.votesCommand())
	root.AddCommand(c.votedCommand())
	root.AddCommand(c.userCommand())
	root.AddCommand(c.widgetCommand())
	root.AddCommand(c.webhookCommand())
	return root
}

// configure fills flags left unset from the environment and configs/.env.
func (c *CLI) configure(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cmd.Flags().Changed("token") {
		c.token = cfg.Token
	}
	if !cmd.Flags().Changed("base-url") {
		c.baseURL = cfg.BaseURL
	}
	if !cmd.Flags().Changed("timeout") {
		c.timeout = cfg.HTTPTimeout
	}
	if c.verbose {
		cfg.LogLevel = "debug"
		if _, err := logger.InitTo(cfg, c.errOut); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		c.log = logger.Default()
	}
	return nil
}

func (c *CLI) client() (*dbl.Client, error) {
	client, err := dbl.New(c.token,
		dbl.WithBaseURL(c.baseURL),
		dbl.WithTimeout(c.timeout),
		dbl.WithLogger(c.log),
	)
	if err != nil {
		return nil, fmt.Errorf("%w (use --token or DBL_TOKEN)", err)
	}
	return client, nil
}

// print renders v as JSON when --json is set, else through text.
func (c *CLI) print(v any, text func(io.Writer) error) error {
	if c.asJSON {
		return renderJSON(c.out, v)
	}
	return text(c.out)
}

func parseBot(arg string) (dbl.BotID, error) {
	id, err := dbl.ParseBotID(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("bot id %q: %w", arg, err)
	}
	return id, nil
}

func parseUser(arg string) (dbl.UserID, error) {
	id, err := dbl.ParseUserID(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("user id %q: %w", arg, err)
	}
	return id, nil
}
