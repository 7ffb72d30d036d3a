package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alexandernizov/moodiary/internal/authapi"
	"github.com/alexandernizov/moodiary/internal/domain"
	"github.com/alexandernizov/moodiary/internal/pkg/logger/sl"
	"github.com/alexandernizov/moodiary/internal/session"
	"github.com/alexandernizov/moodiary/internal/session/mocks"
	"github.com/alexandernizov/moodiary/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockArgs struct {
	methodName string
	arguments  []any
	returning  []any
}

func newMockStore(t *testing.T, apiMocks, storageMocks []mockArgs) (*session.Store, error) {
	api := mocks.NewAuthAPI(t)
	for _, m := range apiMocks {
		api.On(m.methodName, m.arguments...).Return(m.returning...).Once()
	}
	durable := mocks.NewStorage(t)
	for _, m := range storageMocks {
		durable.On(m.methodName, m.arguments...).Return(m.returning...).Once()
	}
	return session.New(context.Background(), sl.Discard(), api, durable)
}

func TestNew_StorageError(t *testing.T) {
	someErr := errors.New("disk failure")

	testTable := []struct {
		name         string
		storageMocks []mockArgs
	}{
		{
			name: "token_read_failed",
			storageMocks: []mockArgs{
				{methodName: "Get", arguments: []any{mock.Anything, "token"}, returning: []any{"", someErr}},
			},
		},
		{
			name: "user_read_failed",
			storageMocks: []mockArgs{
				{methodName: "Get", arguments: []any{mock.Anything, "token"}, returning: []any{"tok", nil}},
				{methodName: "Get", arguments: []any{mock.Anything, "user"}, returning: []any{"", someErr}},
			},
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			store, err := newMockStore(t, nil, testCase.storageMocks)

			assert.ErrorIs(t, err, someErr)
			assert.Nil(t, store)
		})
	}
}

func TestLogin_StorageFailureRollsBack(t *testing.T) {
	someErr := errors.New("disk failure")
	creds := domain.Credentials{Username: "alice", Password: "correct-pw"}
	login := mockArgs{
		methodName: "Login",
		arguments:  []any{mock.Anything, creds},
		returning:  []any{authapi.LoginResponse{AccessToken: "tok123", Username: "alice"}, nil},
	}

	testTable := []struct {
		name         string
		storageMocks []mockArgs
		expectBefore domain.Session
	}{
		{
			name: "token_write_failed_from_logged_out",
			storageMocks: []mockArgs{
				{methodName: "Get", arguments: []any{mock.Anything, "token"}, returning: []any{"", storage.ErrKeyNotFound}},
				{methodName: "Set", arguments: []any{mock.Anything, "token", "tok123"}, returning: []any{someErr}},
				{methodName: "Remove", arguments: []any{mock.Anything, "token"}, returning: []any{nil}},
				{methodName: "Remove", arguments: []any{mock.Anything, "user"}, returning: []any{nil}},
			},
		},
		{
			name: "user_write_failed_from_logged_out",
			storageMocks: []mockArgs{
				{methodName: "Get", arguments: []any{mock.Anything, "token"}, returning: []any{"", storage.ErrKeyNotFound}},
				{methodName: "Set", arguments: []any{mock.Anything, "token", "tok123"}, returning: []any{nil}},
				{methodName: "Set", arguments: []any{mock.Anything, "user", "alice"}, returning: []any{someErr}},
				{methodName: "Remove", arguments: []any{mock.Anything, "token"}, returning: []any{nil}},
				{methodName: "Remove", arguments: []any{mock.Anything, "user"}, returning: []any{nil}},
			},
		},
		{
			name: "user_write_failed_with_previous_session",
			storageMocks: []mockArgs{
				{methodName: "Get", arguments: []any{mock.Anything, "token"}, returning: []any{"old", nil}},
				{methodName: "Get", arguments: []any{mock.Anything, "user"}, returning: []any{"bob", nil}},
				{methodName: "Set", arguments: []any{mock.Anything, "token", "tok123"}, returning: []any{nil}},
				{methodName: "Set", arguments: []any{mock.Anything, "user", "alice"}, returning: []any{someErr}},
				{methodName: "Set", arguments: []any{mock.Anything, "token", "old"}, returning: []any{nil}},
				{methodName: "Set", arguments: []any{mock.Anything, "user", "bob"}, returning: []any{nil}},
			},
			expectBefore: domain.Session{Token: ptr("old"), Username: ptr("bob")},
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			store, err := newMockStore(t, []mockArgs{login}, testCase.storageMocks)
			require.NoError(t, err)

			res := store.LoginResult(context.Background(), creds.Username, creds.Password)

			assert.Equal(t, session.OutcomeStorageError, res.Outcome)
			assert.ErrorIs(t, res.Err, someErr)
			assert.Equal(t, testCase.expectBefore, store.Snapshot())
		})
	}
}

func TestLogin_EmptyToken(t *testing.T) {
	creds := domain.Credentials{Username: "alice", Password: "pw"}
	store, err := newMockStore(t,
		[]mockArgs{{methodName: "Login", arguments: []any{mock.Anything, creds}, returning: []any{authapi.LoginResponse{Username: "alice"}, nil}}},
		[]mockArgs{{methodName: "Get", arguments: []any{mock.Anything, "token"}, returning: []any{"", storage.ErrKeyNotFound}}},
	)
	require.NoError(t, err)

	res := store.LoginResult(context.Background(), creds.Username, creds.Password)

	assert.Equal(t, session.OutcomeRejected, res.Outcome)
	assert.ErrorIs(t, res.Err, session.ErrEmptyToken)
	assert.False(t, store.IsAuthenticated())
}

func TestLogin_Outcomes(t *testing.T) {
	creds := domain.Credentials{Username: "alice", Password: "pw"}

	testTable := []struct {
		name          string
		apiErr        error
		expectOutcome session.Outcome
		expectStatus  int
	}{
		{name: "transport", apiErr: authapi.ErrTransport, expectOutcome: session.OutcomeNetworkError},
		{name: "deadline", apiErr: context.DeadlineExceeded, expectOutcome: session.OutcomeNetworkError},
		{name: "status", apiErr: &authapi.StatusError{StatusCode: 401}, expectOutcome: session.OutcomeRejected, expectStatus: 401},
		{name: "malformed", apiErr: authapi.ErrMalformedResponse, expectOutcome: session.OutcomeRejected},
		{name: "unknown", apiErr: errors.New("something"), expectOutcome: session.OutcomeNetworkError},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			store, err := newMockStore(t,
				[]mockArgs{{methodName: "Login", arguments: []any{mock.Anything, creds}, returning: []any{authapi.LoginResponse{}, testCase.apiErr}}},
				[]mockArgs{{methodName: "Get", arguments: []any{mock.Anything, "token"}, returning: []any{"", storage.ErrKeyNotFound}}},
			)
			require.NoError(t, err)

			res := store.LoginResult(context.Background(), creds.Username, creds.Password)

			assert.False(t, res.OK())
			assert.Equal(t, testCase.expectOutcome, res.Outcome)
			assert.Equal(t, testCase.expectStatus, res.StatusCode)
		})
	}
}

func TestLogout_StorageErrorStillClears(t *testing.T) {
	store, err := newMockStore(t, nil, []mockArgs{
		{methodName: "Get", arguments: []any{mock.Anything, "token"}, returning: []any{"old", nil}},
		{methodName: "Get", arguments: []any{mock.Anything, "user"}, returning: []any{"bob", nil}},
		{methodName: "Remove", arguments: []any{mock.Anything, "token"}, returning: []any{errors.New("disk failure")}},
		{methodName: "Remove", arguments: []any{mock.Anything, "user"}, returning: []any{nil}},
	})
	require.NoError(t, err)

	res := store.LogoutResult(context.Background())

	assert.Equal(t, session.OutcomeStorageError, res.Outcome)
	assert.ErrorContains(t, res.Err, "disk failure")
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, domain.Session{}, store.Snapshot())
}

func TestNew_CorruptedStorage(t *testing.T) {
	corrupted := fmt.Errorf("file.Get: %w", storage.ErrCorrupted)

	testTable := []struct {
		name         string
		storageMocks []mockArgs
	}{
		{
			name: "token_corrupted",
			storageMocks: []mockArgs{
				{methodName: "Get", arguments: []any{mock.Anything, "token"}, returning: []any{"", corrupted}},
			},
		},
		{
			name: "user_corrupted",
			storageMocks: []mockArgs{
				{methodName: "Get", arguments: []any{mock.Anything, "token"}, returning: []any{"tok", nil}},
				{methodName: "Get", arguments: []any{mock.Anything, "user"}, returning: []any{"", corrupted}},
			},
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			store, err := newMockStore(t, nil, testCase.storageMocks)

			require.NoError(t, err)
			assert.False(t, store.IsAuthenticated())
			assert.Equal(t, domain.Session{}, store.Snapshot())
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", session.OutcomeSuccess.String())
	assert.Equal(t, "network_error", session.OutcomeNetworkError.String())
	assert.Equal(t, "rejected", session.OutcomeRejected.String())
	assert.Equal(t, "storage_error", session.OutcomeStorageError.String())
	assert.Equal(t, "unknown", session.Outcome(99).String())
}

func ptr(s string) *string {
	return &s
}
