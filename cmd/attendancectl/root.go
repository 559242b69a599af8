package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	attendance "github.com/goliatone/go-attendance"
	"github.com/goliatone/go-attendance/adapters/gocommand"
	"github.com/goliatone/go-attendance/core"
	"github.com/goliatone/go-attendance/metrics"
	sqlstore "github.com/goliatone/go-attendance/store/sql"
	glog "github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	baseURL     string
	apiKey      string
	authURL     string
	tokenURL    string
	timeout     time.Duration
	output      string
	stateDriver string
	stateDSN    string
	ephemeral   bool
	debug       bool
	showMetrics bool
}

// cliRuntime owns the wired application for one command invocation.
type cliRuntime struct {
	env          cliEnv
	opts         rootOptions
	app          *attendance.App
	registration *gocommand.Registration
	db           *persistence.Client
	metrics      *metrics.PrometheusRecorder
}

func newRootCommand(env cliEnv) *cobra.Command {
	rt := &cliRuntime{env: env}
	cmd := &cobra.Command{
		Use:           "attendancectl",
		Short:         "Command line client for the attendance API",
		Long:          `attendancectl signs in against the identity provider and calls the attendance API on your behalf.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.close()
		},
	}
	cmd.SetIn(env.stdin)
	cmd.SetOut(env.stdout)
	cmd.SetErr(env.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&rt.opts.baseURL, "base-url", "", "Attendance API base URL (ATTENDANCE_BASE_URL)")
	flags.StringVar(&rt.opts.apiKey, "api-key", "", "Identity provider API key (ATTENDANCE_API_KEY)")
	flags.StringVar(&rt.opts.authURL, "auth-url", "", "Identity provider accounts endpoint")
	flags.StringVar(&rt.opts.tokenURL, "token-url", "", "Identity provider token endpoint")
	flags.DurationVar(&rt.opts.timeout, "timeout", 0, "API request timeout")
	flags.StringVarP(&rt.opts.output, "output", "o", outputJSON, "Output format: json or yaml")
	flags.StringVar(&rt.opts.stateDriver, "state-driver", "sqlite3", "Session state database driver: sqlite3 or postgres")
	flags.StringVar(&rt.opts.stateDSN, "state-dsn", "", "Session state database DSN (defaults to a sqlite file in the user config dir)")
	flags.BoolVar(&rt.opts.ephemeral, "ephemeral", false, "Do not persist the session between runs")
	flags.BoolVar(&rt.opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&rt.opts.showMetrics, "metrics", false, "Print API call metrics to stderr after the command")

	cmd.AddCommand(
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newWhoAmICommand(rt),
		newRegisterCommand(rt),
		newResetPasswordCommand(rt),
		newUsersCommand(rt),
		newCoursesCommand(rt),
		newAttendanceCommand(rt),
		newStatsCommand(rt),
		newActivitiesCommand(rt),
		newDashboardCommand(rt),
		newHealthCommand(rt),
	)
	closeOnError(cmd, rt)
	return cmd
}

// closeOnError releases the runtime when a command fails, since cobra skips
// the post-run hooks in that case.
func closeOnError(cmd *cobra.Command, rt *cliRuntime) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if err != nil {
				_ = rt.close()
			}
			return err
		}
	}
	for _, child := range cmd.Commands() {
		closeOnError(child, rt)
	}
}

func (rt *cliRuntime) printer() (printer, error) {
	return newPrinter(rt.opts.output, rt.env.stdout)
}

func (rt *cliRuntime) runtimeConfig() attendance.Config {
	var cfg attendance.Config
	cfg.API.BaseURL = rt.opts.baseURL
	cfg.API.Timeout = rt.opts.timeout
	cfg.Identity.APIKey = rt.opts.apiKey
	cfg.Identity.AuthURL = rt.opts.authURL
	cfg.Identity.TokenURL = rt.opts.tokenURL
	return cfg
}

// open wires the app and restores any persisted session.
func (rt *cliRuntime) open(ctx context.Context) (*attendance.App, error) {
	if rt.app != nil {
		return rt.app, nil
	}
	logger := newLogger(rt.env.stderr, rt.opts.debug)
	opts := []attendance.Option{
		attendance.WithLogger(logger),
		attendance.WithNotifier(newTermNotifier(rt.env.stderr)),
		attendance.WithConfigProvider(core.NewCfgxConfigProvider(envConfigLoader{})),
	}
	if rt.opts.showMetrics {
		rt.metrics = metrics.NewPrometheusRecorder()
		opts = append(opts, attendance.WithMetricsRecorder(rt.metrics))
	}
	if !rt.opts.ephemeral {
		store, err := rt.openStore(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, attendance.WithSessionStore(store))
	}

	app, err := attendance.Setup(rt.runtimeConfig(), opts...)
	if err != nil {
		_ = rt.close()
		return nil, err
	}
	if _, err := app.Restore(ctx); err != nil {
		_ = rt.close()
		return nil, err
	}
	registration, err := gocommand.RegisterFacade(
		gocommand.NewRegistryAdapter(nil),
		app.Facade(),
		gocommand.WithRunnerLogger(logger),
	)
	if err != nil {
		_ = rt.close()
		return nil, err
	}
	rt.registration = registration
	rt.app = app
	return app, nil
}

// newLogger writes console formatted records to w. Only warnings and errors
// are shown unless debug is set.
func newLogger(w io.Writer, debug bool) *glog.BaseLogger {
	level := glog.Warn
	if debug {
		level = glog.Debug
	}
	return glog.NewLogger(
		glog.WithName("attendancectl"),
		glog.WithWriter(w),
		glog.WithLevel(level),
		glog.WithLoggerTypeConsole(),
		glog.WithFatalBehavior(glog.FatalBehaviorLogOnly),
	)
}

func (rt *cliRuntime) openStore(ctx context.Context) (*sqlstore.SessionStore, error) {
	dsn := strings.TrimSpace(rt.opts.stateDSN)
	if dsn == "" {
		path := rt.env.defaultStatePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
		dsn = "file:" + path + "?_busy_timeout=5000"
	}
	client, err := sqlstore.Open(ctx, sqlstore.OpenConfig{
		Driver: rt.opts.stateDriver,
		DSN:    dsn,
		Debug:  rt.opts.debug,
	})
	if err != nil {
		return nil, err
	}
	rt.db = client
	return sqlstore.NewSessionStoreFromPersistence(client)
}

func (rt *cliRuntime) close() error {
	if rt.registration != nil {
		rt.registration.Unsubscribe()
		rt.registration = nil
	}
	if rt.metrics != nil {
		rt.printMetrics()
	}
	if rt.db == nil {
		return nil
	}
	err := rt.db.Close()
	rt.db = nil
	return err
}

func (rt *cliRuntime) printMetrics() {
	samples, err := rt.metrics.Snapshot()
	if err != nil {
		fmt.Fprintf(rt.env.stderr, "metrics: %v\n", err)
		return
	}
	for _, sample := range samples {
		keys := make([]string, 0, len(sample.Labels))
		for key := range sample.Labels {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, key := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%q", key, sample.Labels[key]))
		}
		if sample.Count > 0 {
			fmt.Fprintf(rt.env.stderr, "%s{%s} count=%d sum=%g\n", sample.Name, strings.Join(pairs, ","), sample.Count, sample.Value)
			continue
		}
		fmt.Fprintf(rt.env.stderr, "%s{%s} %g\n", sample.Name, strings.Join(pairs, ","), sample.Value)
	}
	rt.metrics = nil
}
