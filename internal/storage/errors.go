package storage

import "errors"

var (
	ErrNoConnection = errors.New("can't establish connection to storage")

	ErrInternal = errors.New("internal error")

	ErrKeyNotFound = errors.New("key is not found")

	// ErrCorrupted means the stored data exists but can't be decoded.
	ErrCorrupted = errors.New("stored data is corrupted")
)
