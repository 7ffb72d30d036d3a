// Package cli wires the session store to a command line: login, register,
// logout and status against the diary auth API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alexandernizov/moodiary/internal/authapi"
	"github.com/alexandernizov/moodiary/internal/config"
	"github.com/alexandernizov/moodiary/internal/pkg/logger/sl"
	"github.com/alexandernizov/moodiary/internal/session"
	"github.com/alexandernizov/moodiary/internal/storage/file"
	"github.com/alexandernizov/moodiary/internal/storage/inmemory"
	"github.com/alexandernizov/moodiary/internal/storage/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const (
	envLocal = "local"
	envProd  = "prod"

	passwordEnv = "MOODIARY_PASSWORD"
)

var ErrMissingPassword = errors.New("password is required: use --password or " + passwordEnv)

// app is the state shared by every subcommand of one invocation.
type app struct {
	configPath string

	log     *slog.Logger
	reg     *prometheus.Registry
	store   *session.Store
	closers []func() error
}

// Run executes one command line and releases what it opened.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.teardown()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "diary",
		Short:         "Mood diary client",
		Long:          "diary keeps a login session for the mood diary API on this machine.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (default is $CONFIG_PATH or configs/local.yaml)")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.ResolvePath(a.configPath))
	if err != nil {
		return err
	}

	log, err := setupLogger(cfg.Env, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = log

	durable, closeStorage, err := newStorage(cmd.Context(), log, cfg.Storage)
	if err != nil {
		return err
	}
	if closeStorage != nil {
		a.closers = append(a.closers, closeStorage)
	}

	api := authapi.New(cfg.API.BaseURL, authapi.WithLogger(log), authapi.WithTimeout(cfg.API.Timeout))

	a.reg = prometheus.NewRegistry()
	store, err := session.New(cmd.Context(), log, api, durable, session.WithRegisterer(a.reg))
	if err != nil {
		return err
	}
	a.store = store

	return nil
}

func (a *app) teardown() {
	if a.log != nil && a.reg != nil {
		a.logMetrics()
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.log.Error("can't close storage", sl.Err(err))
		}
	}
	a.closers = nil
}

func (a *app) logMetrics() {
	families, err := a.reg.Gather()
	if err != nil {
		a.log.Debug("can't gather metrics", sl.Err(err))
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			attrs := []any{slog.String("name", family.GetName()), slog.Float64("value", metric.GetCounter().GetValue())}
			for _, label := range metric.GetLabel() {
				attrs = append(attrs, slog.String(label.GetName(), label.GetValue()))
			}
			a.log.Debug("metric", attrs...)
		}
	}
}

func newStorage(ctx context.Context, log *slog.Logger, cfg config.StorageConfig) (session.Storage, func() error, error) {
	switch cfg.Kind {
	case "memory":
		return inmemory.New(log), nil, nil
	case "file":
		return file.New(log, cfg.Path), nil, nil
	case "redis":
		r, err := redis.NewRedis(ctx, log, redis.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
	}
}

func setupLogger(env string, w io.Writer) (*slog.Logger, error) {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})), nil
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})), nil
	default:
		return nil, fmt.Errorf("unknown enviroment %q", env)
	}
}

func password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}
	return "", ErrMissingPassword
}
