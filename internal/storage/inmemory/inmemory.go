package inmemory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alexandernizov/moodiary/internal/storage"
)

// Inmemory is a process-local key-value store. Values do not survive a
// restart, so it only stands in for durable storage in tests and with
// storage.kind "memory".
type Inmemory struct {
	log *slog.Logger

	mu     sync.RWMutex
	values map[string]string
}

func New(log *slog.Logger) *Inmemory {
	return &Inmemory{log: log, values: make(map[string]string)}
}

// NewWithValues returns a store pre-filled with values.
func NewWithValues(log *slog.Logger, values map[string]string) *Inmemory {
	i := New(log)
	for k, v := range values {
		i.values[k] = v
	}
	return i
}

func (i *Inmemory) Get(ctx context.Context, key string) (string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	value, ok := i.values[key]
	if !ok {
		return "", storage.ErrKeyNotFound
	}
	return value, nil
}

func (i *Inmemory) Set(ctx context.Context, key, value string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.values[key] = value
	i.log.Debug("key stored", slog.String("key", key))
	return nil
}

func (i *Inmemory) Remove(ctx context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.values, key)
	return nil
}

// Len reports the number of stored keys.
func (i *Inmemory) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.values)
}
