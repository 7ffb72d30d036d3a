package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexandernizov/moodiary/internal/bootstrap"
	"github.com/alexandernizov/moodiary/internal/config"
	"github.com/alexandernizov/moodiary/internal/pkg/logger/sl"
)

const (
	envLocal = "local"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting database bootstrap", slog.String("env", cfg.Env))

	dialect, err := bootstrap.DialectByName(cfg.Database.Driver)
	if err != nil {
		log.Error("can't select database dialect", sl.Err(err))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	b := bootstrap.New(log, bootstrap.Options{
		Dialect:    dialect,
		Connect:    connectOptions(cfg.Database),
		SchemaPath: cfg.Database.SchemaPath,
	})

	// Failures are reported in the log only, the exit status stays 0.
	if _, err := b.Run(ctx); err != nil {
		log.Error("database bootstrap failed", sl.Err(err))
		return
	}

	log.Info("database bootstrap finished")
}

func connectOptions(db config.DatabaseConfig) bootstrap.ConnectOptions {
	return bootstrap.ConnectOptions{
		Host:            db.Host,
		Port:            db.Port,
		User:            db.User,
		Password:        db.Password,
		DBname:          db.Name,
		Charset:         db.Charset,
		Collation:       db.Collation,
		MultiStatements: db.MultiStatements,
		ParseTime:       db.ParseTime,
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		panic("unknown enviroment")
	}

	return log
}
