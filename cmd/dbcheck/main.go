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

	dialect, err := bootstrap.DialectByName(cfg.Database.Driver)
	if err != nil {
		log.Error("can't select database dialect", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	b := bootstrap.New(log, bootstrap.Options{
		Dialect: dialect,
		Connect: bootstrap.ConnectOptions{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBname:   cfg.Database.Name,
			Charset:  cfg.Database.Charset,
		},
	})

	if _, err := b.Inspect(ctx); err != nil {
		log.Error("connection failed", sl.Err(err))
		stop()
		os.Exit(1)
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
