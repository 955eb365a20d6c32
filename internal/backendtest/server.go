// Package backendtest runs an in-process stand-in for the translation
// backend's REST API. It keeps accounts in memory, hashes passwords with
// bcrypt and issues HS256 tokens.
package backendtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"giantylive-web/internal/model"
)

const tokenTTL = time.Hour

type account struct {
	user model.User
	hash []byte
}

type failure struct {
	status  int
	message string
}

type Server struct {
	*httptest.Server

	secret []byte

	mu         sync.Mutex
	nextID     int
	accounts   map[string]*account // by email
	revoked    bool
	workspaces []model.Workspace
	glossaries []model.Glossary
	stats      model.ConferenceStats
	failures   map[string]failure
	calls      []string
}

// New starts a backend that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:   []byte("backendtest-secret"),
		accounts: map[string]*account{},
		failures: map[string]failure{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/api/v1/auth/signin", s.signIn)
	r.Post("/api/v1/auth/signup", s.signUp)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/api/v1/auth/me", s.me)
		r.Get("/users/me", s.me)
		r.Get("/users", s.listUsers)
		r.Put("/users/update-profile", s.updateProfile)
		r.Put("/users/update-password", s.updatePassword)
		r.Put("/users/update-locale", s.updateLocale)
		r.Get("/workspaces", s.listWorkspaces)
		r.Get("/glossaries", s.listGlossaries)
		r.Get("/api/v1/conferences/stats", s.conferenceStats)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	return r
}

// AddUser registers an account and returns the stored user.
func (s *Server) AddUser(email string, password string, user model.User) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("hash password: %v", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	user.ID = model.ID(strconv.Itoa(s.nextID))
	user.Email = email
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	user.IsActive = true
	s.accounts[strings.ToLower(email)] = &account{user: user, hash: hash}
	return user
}

// Token signs a token for user the way the backend does after sign-in.
func (s *Server) Token(user model.User) string {
	claims := jwt.MapClaims{
		"sub":    user.ID.String(),
		"email":  user.Email,
		"role":   user.Role,
		"name":   user.DisplayName(),
		"locale": user.PreferredLocale(),
		"exp":    time.Now().Add(tokenTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	return signed
}

// RevokeTokens makes every token issued so far answer 401.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = true
}

func (s *Server) SetWorkspaces(workspaces ...model.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces = workspaces
}

func (s *Server) SetGlossaries(glossaries ...model.Glossary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.glossaries = glossaries
}

func (s *Server) SetConferenceStats(stats model.ConferenceStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

// Fail makes "METHOD /path" answer status with message until cleared by a
// zero status.
func (s *Server) Fail(method string, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = failure{status: status, message: message}
}

// Calls lists "METHOD /path" for every request received.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) User(email string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return model.User{}, false
	}
	return acc.user, true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.calls = append(s.calls, key)
		fail, failing := s.failures[key]
		s.mu.Unlock()

		if failing {
			writeDetail(w, fail.status, fail.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userContextKey struct{}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		email, _ := claims["email"].(string)
		s.mu.Lock()
		acc, found := s.accounts[strings.ToLower(email)]
		revoked := s.revoked
		s.mu.Unlock()
		if !found || revoked {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, acc)))
	})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(req.Email)]
	var (
		hash []byte
		user model.User
	)
	if ok {
		hash, user = acc.hash, acc.user
	}
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	s.writeAuth(w, http.StatusOK, user)
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	if _, exists := s.User(req.Email); exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}

	user := s.AddUser(req.Email, req.Password, model.User{FullName: req.FullName})
	s.writeAuth(w, http.StatusCreated, user)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r)
	s.mu.Lock()
	user := acc.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	admin := accountFrom(r).user.IsAdmin()
	s.mu.Unlock()
	if !admin {
		writeDetail(w, http.StatusForbidden, "Not enough permissions")
		return
	}

	s.mu.Lock()
	users := make([]model.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		users = append(users, acc.user)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	acc := accountFrom(r)
	s.mu.Lock()
	acc.user.Name = req.Name
	acc.user.FullName = req.Name
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	acc := accountFrom(r)
	s.mu.Lock()
	current := acc.hash
	s.mu.Unlock()
	if bcrypt.CompareHashAndPassword(current, []byte(req.CurrentPassword)) != nil {
		writeDetail(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not hash password")
		return
	}

	s.mu.Lock()
	acc.hash = hash
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateLocale(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateLocaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	acc := accountFrom(r)
	s.mu.Lock()
	acc.user.Locale = req.Locale
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listWorkspaces(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	workspaces := append([]model.Workspace{}, s.workspaces...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, workspaces)
}

func (s *Server) listGlossaries(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	glossaries := append([]model.Glossary{}, s.glossaries...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, glossaries)
}

func (s *Server) conferenceStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	stats := s.stats
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeAuth(w http.ResponseWriter, status int, user model.User) {
	writeJSON(w, status, model.AuthResponse{
		AccessToken: s.Token(user),
		TokenType:   "bearer",
		User:        user,
	})
}

func accountFrom(r *http.Request) *account {
	acc, _ := r.Context().Value(userContextKey{}).(*account)
	if acc == nil {
		panic(errors.New("backendtest: handler reached without an account"))
	}
	return acc
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
