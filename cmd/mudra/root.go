package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/predict"
	"github.com/ayusman/mudra/internal/store"
)

// Version is the application version.
const Version = "0.1.0"

var errHistoryDisabled = errors.New("prediction history is disabled (" + config.EnvDBPath + "=" + config.HistoryOff + ")")

// env is the state shared by every subcommand once the root pre-run has
// loaded configuration.
type env struct {
	envFile  string
	endpoint string
	encoders string
	timeout  time.Duration
	logLevel string
	dbPath   string

	cfg   config.Config
	log   *logrus.Logger
	store *store.Store
}

// newRootCmd returns the root command and the env its subcommands share.
// Run it through execute so the env is released even when a command fails.
func newRootCmd() (*cobra.Command, *env) {
	e := &env{}

	root := &cobra.Command{
		Use:           "mudra",
		Short:         "Hand landmark direction classifier",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&e.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flags.StringVar(&e.endpoint, "endpoint", "", "classifier URL (overrides "+config.EnvEndpoint+")")
	flags.StringVar(&e.encoders, "encoders", "", "comma separated encoders tried in order (overrides "+config.EnvEncoders+")")
	flags.DurationVar(&e.timeout, "timeout", 0, "per-request timeout (overrides "+config.EnvTimeout+")")
	flags.StringVar(&e.logLevel, "log-level", "", "log level (overrides "+config.EnvLogLevel+")")
	flags.StringVar(&e.dbPath, "db", "", "history database path, or \"off\" (overrides "+config.EnvDBPath+")")

	root.AddCommand(predictCmd(e), watchCmd(e), serveCmd(e), historyCmd(e), pluginsCmd(e))
	return root, e
}

// execute runs root and closes the history afterwards. Cobra skips post-run
// hooks when RunE fails, so the cleanup cannot live there.
func execute(ctx context.Context, root *cobra.Command, e *env) error {
	defer e.close()
	return root.ExecuteContext(ctx)
}

// setup loads config, applies flag overrides and opens the logger and history.
func (e *env) setup(cmd *cobra.Command) error {
	// The default .env is optional; a file named on the command line is not.
	cfg, err := config.Load(e.envFile, cmd.Flags().Changed("env-file"))
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = e.endpoint
	}
	if flags.Changed("encoders") {
		cfg.Encoders = config.SplitList(e.encoders)
	}
	if flags.Changed("timeout") {
		cfg.Timeout = e.timeout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = e.logLevel
	}
	if flags.Changed("db") {
		cfg.DBPath = e.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Output: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	e.log = log

	if cfg.HistoryEnabled() {
		st, err := store.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		e.store = st
	}
	return nil
}

func (e *env) close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.WithError(err).Warn("closing history")
		}
		e.store = nil
	}
}

// client builds a predictor that reports to the log, the history when
// enabled, and any extra observers.
func (e *env) client(extra ...predict.Observer) (*predict.Client, error) {
	pc, err := e.cfg.ClientConfig()
	if err != nil {
		return nil, err
	}

	observers := predict.MultiObserver{predict.LogObserver(e.log)}
	if e.store != nil {
		observers = append(observers, store.NewRecorder(e.store, e.log))
	}
	observers = append(observers, extra...)
	pc.Observer = observers

	return predict.New(pc)
}

// dispatcher loads the label bindings and returns nil when there are none.
func (e *env) dispatcher() (*plugin.Dispatcher, error) {
	bindings, err := plugin.LoadBindings(e.cfg.Bindings)
	if err != nil || len(bindings) == 0 {
		return nil, err
	}

	m := plugin.NewManager(e.cfg.PluginDir, e.log)
	if err := m.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}

	d, err := plugin.NewDispatcher(m, plugin.NewExecutor(plugin.DefaultTimeout), bindings, e.log)
	if err != nil {
		return nil, err
	}
	e.log.WithField("bindings", d.Bound()).Info("Direction bindings active")
	return d, nil
}
