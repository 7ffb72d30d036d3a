package session

import (
	"context"
	"errors"

	"github.com/alexandernizov/moodiary/internal/authapi"
)

// Outcome classifies how a network operation of the store ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeNetworkError: no answer from the auth API (refused, timeout, DNS).
	OutcomeNetworkError
	// OutcomeRejected: the auth API answered with a failure status or an
	// unusable body.
	OutcomeRejected
	// OutcomeStorageError: credentials were accepted but could not be
	// mirrored to durable storage.
	OutcomeStorageError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeRejected:
		return "rejected"
	case OutcomeStorageError:
		return "storage_error"
	default:
		return "unknown"
	}
}

// Result is the detailed form of Login and Register. OK collapses it to the
// boolean those methods return.
type Result struct {
	Outcome Outcome
	// StatusCode is set for rejections that carried an HTTP status.
	StatusCode int
	Err        error
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

func success() Result {
	return Result{Outcome: OutcomeSuccess}
}

func storageFailure(err error) Result {
	return Result{Outcome: OutcomeStorageError, Err: err}
}

// apiFailure maps an auth API error onto an outcome. Errors that are not an
// explicit server answer count as network failures.
func apiFailure(err error) Result {
	res := Result{Outcome: OutcomeNetworkError, Err: err}

	var statusErr *authapi.StatusError
	switch {
	case errors.As(err, &statusErr):
		res.Outcome = OutcomeRejected
		res.StatusCode = statusErr.StatusCode
	case errors.Is(err, authapi.ErrRejected), errors.Is(err, authapi.ErrMalformedResponse), errors.Is(err, ErrEmptyToken):
		res.Outcome = OutcomeRejected
	case errors.Is(err, authapi.ErrTransport), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		res.Outcome = OutcomeNetworkError
	}
	return res
}
