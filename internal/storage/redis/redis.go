package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alexandernizov/moodiary/internal/pkg/logger/sl"
	"github.com/alexandernizov/moodiary/internal/storage"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	log    *slog.Logger
	db     *redis.Client
	prefix string
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func New(log *slog.Logger, db *redis.Client, prefix string) *Redis {
	return &Redis{log: log, db: db, prefix: prefix}
}

func NewRedis(ctx context.Context, log *slog.Logger, opt RedisOptions) (*Redis, error) {
	db := redis.NewClient(&redis.Options{Addr: opt.Addr, Password: opt.Password, DB: opt.DB})

	r := New(log, db, opt.Prefix)
	if err := r.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if _, err := r.db.Ping(ctx).Result(); err != nil {
		r.log.Error("can't ping redis", sl.Err(err))
		return fmt.Errorf("can't ping Redis DB: %w", storage.ErrNoConnection)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.db.Close()
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	const op = "redis.Get"
	log := r.log.With(slog.String("op", op))

	value, err := r.db.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrKeyNotFound
	}
	if err != nil {
		log.Error("can't get key", slog.String("key", key), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, storage.ErrInternal)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	const op = "redis.Set"
	log := r.log.With(slog.String("op", op))

	if err := r.db.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		log.Error("can't set key", slog.String("key", key), sl.Err(err))
		return fmt.Errorf("%s: %w", op, storage.ErrInternal)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	const op = "redis.Remove"
	log := r.log.With(slog.String("op", op))

	if err := r.db.Del(ctx, r.key(key)).Err(); err != nil {
		log.Error("can't delete key", slog.String("key", key), sl.Err(err))
		return fmt.Errorf("%s: %w", op, storage.ErrInternal)
	}
	return nil
}
