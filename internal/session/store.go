// Package session keeps track of who is logged in on this client.
//
// A Store holds the bearer token and username in memory and mirrors them to
// durable storage under the "token" and "user" keys, so the session survives
// a restart. Storage is read once, at construction; afterwards every write
// originates from Login or Logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alexandernizov/moodiary/internal/authapi"
	"github.com/alexandernizov/moodiary/internal/domain"
	"github.com/alexandernizov/moodiary/internal/pkg/logger/sl"
	"github.com/alexandernizov/moodiary/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

//go:generate mockery --name=AuthAPI
//go:generate mockery --name=Storage

var (
	ErrEmptyToken = errors.New("login response has no access token")
)

type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (authapi.LoginResponse, error)
	Register(ctx context.Context, creds domain.Credentials) error
}

// Storage is durable client key-value storage. Get returns
// storage.ErrKeyNotFound for absent keys; Remove of an absent key succeeds.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type Store struct {
	log *slog.Logger

	api     AuthAPI
	durable Storage

	registerer prometheus.Registerer
	metrics    *metrics

	mu      sync.RWMutex
	session domain.Session
	// version grows with every change of session.
	version uint64

	subMu   sync.Mutex
	subs    map[int]func(domain.Session)
	nextSub int

	// notifyMu orders deliveries; delivered is the last version sent.
	notifyMu  sync.Mutex
	delivered uint64
}

func WithRegisterer(reg prometheus.Registerer) func(*Store) {
	return func(s *Store) {
		s.registerer = reg
	}
}

// New restores the session persisted in durable and returns a Store that
// owns it from now on.
func New(ctx context.Context, log *slog.Logger, api AuthAPI, durable Storage, options ...func(*Store)) (*Store, error) {
	const op = "session.New"

	s := &Store{
		log:     log,
		api:     api,
		durable: durable,
		subs:    make(map[int]func(domain.Session)),
	}
	for _, option := range options {
		option(s)
	}

	m, err := newMetrics(s.registerer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics = m

	restored, err := load(ctx, log.With(slog.String("op", op)), durable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.session = restored

	log.Debug("session restored", slog.String("op", op), slog.Bool("authenticated", restored.IsAuthenticated()))

	return s, nil
}

// load reads the persisted session. Unreadable stored data counts as no
// session; the next Login or Logout overwrites it.
func load(ctx context.Context, log *slog.Logger, durable Storage) (domain.Session, error) {
	token, err := durable.Get(ctx, domain.TokenKey)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return domain.Session{}, nil
	case errors.Is(err, storage.ErrCorrupted):
		log.Warn("persisted session is corrupted, starting logged out", slog.String("key", domain.TokenKey), sl.Err(err))
		return domain.Session{}, nil
	case err != nil:
		return domain.Session{}, fmt.Errorf("read %q: %w", domain.TokenKey, err)
	}

	username, err := durable.Get(ctx, domain.UserKey)
	switch {
	case errors.Is(err, storage.ErrCorrupted):
		log.Warn("persisted session is corrupted, starting logged out", slog.String("key", domain.UserKey), sl.Err(err))
		return domain.Session{}, nil
	case err != nil && !errors.Is(err, storage.ErrKeyNotFound):
		return domain.Session{}, fmt.Errorf("read %q: %w", domain.UserKey, err)
	}

	return domain.Session{Token: &token, Username: &username}, nil
}

func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session.Token == nil {
		return "", false
	}
	return *s.session.Token, true
}

func (s *Store) Username() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session.Username == nil {
		return "", false
	}
	return *s.session.Username, true
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.IsAuthenticated()
}

func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.Clone()
}

// Subscribe registers fn to be called with a snapshot after every change of
// the session. fn runs on the goroutine that made the change and must not
// call Login or Logout. Deliveries never go back in time: a snapshot older
// than one already delivered is dropped, so the last delivered snapshot
// matches Snapshot once changes settle.
func (s *Store) Subscribe(fn func(domain.Session)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(version uint64, snapshot domain.Session) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if version <= s.delivered {
		return
	}
	s.delivered = version

	s.subMu.Lock()
	fns := make([]func(domain.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snapshot.Clone())
	}
}

// Login reports whether the credentials were accepted and the session
// stored. Failures are logged, never returned.
func (s *Store) Login(ctx context.Context, username, password string) bool {
	return s.LoginResult(ctx, username, password).OK()
}

func (s *Store) LoginResult(ctx context.Context, username, password string) Result {
	const op = "session.Login"
	log := s.log.With(slog.String("op", op), slog.String("username", username))

	res := s.login(ctx, username, password)
	s.metrics.observe("login", res.Outcome)

	if !res.OK() {
		log.Error("login failed", slog.String("outcome", res.Outcome.String()), slog.Int("status", res.StatusCode), sl.Err(res.Err))
		return res
	}
	log.Info("logged in")
	return res
}

func (s *Store) login(ctx context.Context, username, password string) Result {
	resp, err := s.api.Login(ctx, domain.Credentials{Username: username, Password: password})
	if err != nil {
		return apiFailure(err)
	}
	if resp.AccessToken == "" {
		return apiFailure(ErrEmptyToken)
	}

	token := resp.AccessToken
	canonical := resp.Username

	s.mu.Lock()
	if err := s.persist(ctx, token, canonical); err != nil {
		s.mu.Unlock()
		return storageFailure(err)
	}
	s.session = domain.Session{Token: &token, Username: &canonical}
	s.version++
	version, snapshot := s.version, s.session.Clone()
	s.mu.Unlock()

	s.notify(version, snapshot)
	return success()
}

// persist mirrors token and username to durable storage. If a write fails
// the keys are put back to match the current in-memory session. Caller
// holds s.mu.
func (s *Store) persist(ctx context.Context, token, username string) error {
	if err := s.durable.Set(ctx, domain.TokenKey, token); err != nil {
		s.restore(ctx)
		return fmt.Errorf("write %q: %w", domain.TokenKey, err)
	}
	if err := s.durable.Set(ctx, domain.UserKey, username); err != nil {
		s.restore(ctx)
		return fmt.Errorf("write %q: %w", domain.UserKey, err)
	}
	return nil
}

func (s *Store) restore(ctx context.Context) {
	const op = "session.restore"
	log := s.log.With(slog.String("op", op))

	mirror := func(key string, value *string) {
		var err error
		if value == nil {
			err = s.durable.Remove(ctx, key)
		} else {
			err = s.durable.Set(ctx, key, *value)
		}
		if err != nil {
			log.Error("can't restore durable session", slog.String("key", key), sl.Err(err))
		}
	}

	mirror(domain.TokenKey, s.session.Token)
	mirror(domain.UserKey, s.session.Username)
}

// Register reports whether the account was created. It never changes the
// session: registering does not log in.
func (s *Store) Register(ctx context.Context, username, password string) bool {
	return s.RegisterResult(ctx, username, password).OK()
}

func (s *Store) RegisterResult(ctx context.Context, username, password string) Result {
	const op = "session.Register"
	log := s.log.With(slog.String("op", op), slog.String("username", username))

	res := success()
	if err := s.api.Register(ctx, domain.Credentials{Username: username, Password: password}); err != nil {
		res = apiFailure(err)
	}
	s.metrics.observe("register", res.Outcome)

	if !res.OK() {
		log.Error("registration failed", slog.String("outcome", res.Outcome.String()), slog.Int("status", res.StatusCode), sl.Err(res.Err))
		return res
	}
	log.Info("registered")
	return res
}

// Logout clears the session and both storage keys. It is safe to call when
// already logged out. Storage failures are logged, see LogoutResult.
func (s *Store) Logout(ctx context.Context) {
	s.LogoutResult(ctx)
}

// LogoutResult always clears the in-memory session. It reports
// OutcomeStorageError when a key could not be removed, in which case the
// session would be restored on the next start.
func (s *Store) LogoutResult(ctx context.Context) Result {
	const op = "session.Logout"
	log := s.log.With(slog.String("op", op))

	var failed []error

	s.mu.Lock()
	changed := s.session.Token != nil || s.session.Username != nil
	s.session = domain.Session{}
	if changed {
		s.version++
	}
	version := s.version
	for _, key := range []string{domain.TokenKey, domain.UserKey} {
		if err := s.durable.Remove(ctx, key); err != nil {
			log.Error("can't remove key", slog.String("key", key), sl.Err(err))
			failed = append(failed, fmt.Errorf("remove %q: %w", key, err))
		}
	}
	s.mu.Unlock()

	res := success()
	if len(failed) > 0 {
		res = storageFailure(errors.Join(failed...))
	}
	s.metrics.observe("logout", res.Outcome)

	if changed {
		log.Info("logged out")
		s.notify(version, domain.Session{})
	}
	return res
}
