// Package file keeps client key-value pairs in a single JSON document on
// disk, the CLI counterpart of browser local storage.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/alexandernizov/moodiary/internal/pkg/logger/sl"
	"github.com/alexandernizov/moodiary/internal/storage"
)

type File struct {
	log  *slog.Logger
	path string

	mu sync.Mutex
}

func New(log *slog.Logger, path string) *File {
	return &File{log: log, path: path}
}

func (f *File) Get(ctx context.Context, key string) (string, error) {
	const op = "file.Get"

	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	value, ok := values[key]
	if !ok {
		return "", storage.ErrKeyNotFound
	}
	return value, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	const op = "file.Set"

	f.mu.Lock()
	defer f.mu.Unlock()

	values, _, err := f.readOrReset(op)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	values[key] = value

	if err := f.write(values); err != nil {
		f.log.Error("can't write storage file", slog.String("op", op), slog.String("path", f.path), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (f *File) Remove(ctx context.Context, key string) error {
	const op = "file.Remove"

	f.mu.Lock()
	defer f.mu.Unlock()

	values, reset, err := f.readOrReset(op)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := values[key]; !ok && !reset {
		return nil
	}
	delete(values, key)

	if err := f.write(values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// read returns an empty map when the file does not exist yet.
func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", storage.ErrCorrupted, f.path, err)
	}
	return values, nil
}

// readOrReset treats an undecodable file as empty and reports it, so the
// caller rewrites the file.
func (f *File) readOrReset(op string) (map[string]string, bool, error) {
	values, err := f.read()
	if errors.Is(err, storage.ErrCorrupted) {
		f.log.Warn("discarding corrupted storage file", slog.String("op", op), slog.String("path", f.path), sl.Err(err))
		return make(map[string]string), true, nil
	}
	return values, false, err
}

func (f *File) write(values map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
