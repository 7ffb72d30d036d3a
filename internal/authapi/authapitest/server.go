// Package authapitest runs an in-process stand-in for the diary backend's
// /login and /register endpoints.
package authapitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexandernizov/moodiary/internal/domain"
	"github.com/alexandernizov/moodiary/internal/domain/errs"
	"github.com/alexandernizov/moodiary/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	Secret   = "test-secret"
	TokenTTL = 24 * time.Hour
)

type Server struct {
	*httptest.Server

	mu    sync.RWMutex
	users map[string]domain.User

	// OmitUsername drops "username" from login responses.
	OmitUsername atomic.Bool
	// FixedToken, when set, is returned instead of a freshly signed JWT.
	FixedToken atomic.Value
	// Status, when non-zero, is returned by every endpoint.
	Status atomic.Int32

	logins    atomic.Int32
	registers atomic.Int32
}

func New() *Server {
	s := &Server{users: make(map[string]domain.User)}
	s.Server = httptest.NewServer(s.Routes())
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.forcedStatus)
	r.Post("/login", s.login)
	r.Post("/register", s.register)
	return r
}

// AddUser registers login/password directly, bypassing HTTP.
func (s *Server) AddUser(login, password string) error {
	_, err := s.newUser(login, password)
	return err
}

func (s *Server) Logins() int    { return int(s.logins.Load()) }
func (s *Server) Registers() int { return int(s.registers.Load()) }

func (s *Server) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Server) forcedStatus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status := int(s.Status.Load()); status != 0 {
			switch r.URL.Path {
			case "/login":
				s.logins.Add(1)
			case "/register":
				s.registers.Add(1)
			}
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.logins.Add(1)

	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	user, err := s.authenticate(creds)
	if errors.Is(err, errs.ErrUserNotFound) || errors.Is(err, errs.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}

	token, _ := s.FixedToken.Load().(string)
	if token == "" {
		token, err = jwt.NewToken(user, TokenTTL, []byte(Secret))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
			return
		}
	}

	resp := map[string]string{"access_token": token}
	if !s.OmitUsername.Load() {
		resp["username"] = user.Login
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	s.registers.Add(1)

	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	_, err := s.newUser(creds.Username, creds.Password)
	if errors.Is(err, errs.ErrUserAlreadyExists) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Username already exists"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) authenticate(creds domain.Credentials) (domain.User, error) {
	s.mu.RLock()
	user, ok := s.users[creds.Username]
	s.mu.RUnlock()
	if !ok {
		return domain.User{}, errs.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return domain.User{}, errs.ErrInvalidCredentials
	}
	return user, nil
}

func (s *Server) newUser(login, password string) (domain.User, error) {
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[login]; ok {
		return domain.User{}, errs.ErrUserAlreadyExists
	}
	user := domain.User{Uuid: uuid.New(), Login: login, PasswordHash: passHash}
	s.users[login] = user
	return user, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
