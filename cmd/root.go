package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teemow/schedule/internal/calendar"
	"github.com/teemow/schedule/internal/config"
	"github.com/teemow/schedule/internal/google"
	"github.com/teemow/schedule/internal/instrumentation"
	"github.com/teemow/schedule/internal/logging"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI
func SetVersion(v string) {
	version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd := newRootCmd()
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "schedule version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configFile string
	debug      bool
	viper      *viper.Viper
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{viper: config.New()}
	var week, next, free bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Prints your Google Calendar agenda and free time",
		Long: `schedule prints a plain-text view of a Google Calendar.

Without flags it prints today's agenda. Flags select other reports, which are
printed in this order when combined:
  -w, --week   events of the coming week
  -n, --next   the next 10 events
  -f, --free   free half-hour runs within working hours over the next 15 days`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReports(cmd.Context(), opts, cmd.OutOrStdout(), selectModes(week, next, free))
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default: schedule.yaml next to the executable)")
	pf.String("calendar", "primary", "calendar ID to report on")
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging on stderr")
	_ = opts.viper.BindPFlag("calendar_id", pf.Lookup("calendar"))

	cmd.Flags().BoolVarP(&week, "week", "w", false, "print the events of the coming week")
	cmd.Flags().BoolVarP(&next, "next", "n", false, "print the next events")
	cmd.Flags().BoolVarP(&free, "free", "f", false, "print free times")

	cmd.AddCommand(newAuthCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func runReports(ctx context.Context, opts *rootOptions, out io.Writer, modes []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := opts.setup(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	auth, _, err := env.authenticator()
	if err != nil {
		return err
	}
	session, err := auth.Authenticate(ctx)
	if err != nil {
		return err
	}

	client, err := calendar.NewClient(ctx, calendar.ClientConfig{
		HTTPClient: session.Client,
		Metrics:    env.provider.Metrics(),
		Logger:     env.logger,
	})
	if err != nil {
		return err
	}

	r, err := newReporter(env.cfg, client, out, env.provider.Metrics(), env.logger)
	if err != nil {
		return err
	}
	return r.run(ctx, modes)
}

// environment is the loaded configuration and the services built from it
type environment struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
}

// setup loads the configuration, installs the logger and starts instrumentation.
// Callers must close the returned environment.
func (o *rootOptions) setup(ctx context.Context) (*environment, error) {
	baseDir, err := config.ExecutableDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(o.viper, o.configFile, baseDir)
	if err != nil {
		return nil, err
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if o.debug {
		level = slog.LevelDebug
	}
	logger := logging.Setup(os.Stderr, level)
	logger.Debug("configuration loaded",
		logging.Calendar(cfg.CalendarID),
		logging.Path(cfg.TokenFile))

	provider, err := instrumentation.NewProvider(ctx, cfg.Instrumentation(version), os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	return &environment{cfg: cfg, logger: logger, provider: provider}, nil
}

func (e *environment) close() {
	// The run context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.provider.Shutdown(ctx); err != nil {
		e.logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
}

func (e *environment) authenticator() (*google.Authenticator, google.TokenStore, error) {
	store := google.NewFileTokenStore(e.cfg.TokenFile)
	auth, err := google.NewAuthenticator(google.AuthConfig{
		CredentialsFile: e.cfg.CredentialsFile,
		Store:           store,
		Prompter:        &google.LoopbackPrompter{Out: os.Stderr, Logger: e.logger},
		Metrics:         e.provider.Metrics(),
		Logger:          e.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return auth, store, nil
}
