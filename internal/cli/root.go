// Package cli is the command-line view: cobra commands that forward user
// intents to the session manager and the todo list.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-remote/internal/config"
	"github.com/Makepad-fr/tada-remote/internal/ui"
)

// Exit codes: 0 ok, 1 error, 2 usage.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// reportedError wraps a failure that was already shown to the user.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

type rootOptions struct {
	configFile string
	apiURL     string
	verbose    bool
	noColor    bool
	theme      string

	cfg       *config.Config
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "tada",
		Short: "tada - your todo list, from the terminal",
		Long: `tada manages a personal todo list stored on a remote API.

Log in once; the token is kept in ~/.tada/credentials.json
(or provided through TADA_TOKEN and TADA_USERNAME).`,
		Example: `  tada register
  tada login -u alice
  tada add "Buy milk"
  tada ls
  tada edit 2 "Buy oat milk"
  tada rm 3`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if opts.logCloser != nil {
				_ = opts.logCloser.Close()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configFile, "config", "", "config file (default ./config.yaml or ~/.tada/config.yaml)")
	f.StringVar(&opts.apiURL, "api-url", "", "base URL of the todo API (overrides TADA_API_URL)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	f.StringVar(&opts.theme, "theme", "", "color theme: classic, neon or mono")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})

	root.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newWhoAmICmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newRemoveCmd(opts),
	)
	return root
}

func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	if o.apiURL != "" {
		cfg.API.URL = o.apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if o.verbose {
		cfg.Logging.Level = logrus.DebugLevel.String()
	}
	if o.theme != "" {
		cfg.UI.Theme = o.theme
	}
	if o.noColor {
		cfg.UI.NoColor = true
	}

	if err := ui.SetTheme(cfg.UI.Theme); err != nil {
		return usageError{msg: err.Error()}
	}
	if cfg.UI.NoColor {
		ui.SetColorForcing(false, true)
	}

	closer, err := cfg.SetupLogging(false)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logCloser = closer
	return nil
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		err = usageError{msg: err.Error()}
	}
	var usage usageError
	if errors.As(err, &usage) {
		ui.Fail(usage.msg)
		return exitUsage
	}
	var reported reportedError
	if !errors.As(err, &reported) {
		ui.Fail(err.Error())
	}
	return exitError
}
