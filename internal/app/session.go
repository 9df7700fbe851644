package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/inbound"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Session owns the bearer token and the authenticated user. It is passed
// explicitly to every view-model that needs identity.
type Session struct {
	users  outbound.UserAPI
	store  outbound.SessionStore
	clock  func() time.Time
	logger zerolog.Logger

	mu        sync.RWMutex
	token     string
	user      *shared.User
	expiresAt time.Time

	viewState
}

type SessionParams struct {
	Users  outbound.UserAPI
	Store  outbound.SessionStore
	Clock  func() time.Time
	Logger zerolog.Logger

	// Token and User seed an already authenticated session
	Token string
	User  *shared.User
}

// NewSession creates a session, optionally pre-authenticated
func NewSession(params SessionParams) *Session {
	s := &Session{
		users:  params.Users,
		store:  params.Store,
		clock:  clockOrNow(params.Clock),
		logger: params.Logger.With().Str("component", "session").Logger(),
	}
	if params.Token != "" && params.User != nil {
		s.set(params.Token, *params.User)
	}
	return s
}

// Login exchanges credentials for a token and persists the result
func (s *Session) Login(ctx context.Context, email, password string) (*shared.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, s.fail(shared.NewValidationError("email", shared.ErrCredentialsRequired))
	}

	s.begin()
	s.logger.Info().Str("email", email).Msg("Logging in")

	result, err := s.users.Login(ctx, inbound.LoginRequest{Email: email, Password: password})
	if err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("Login failed")
		return nil, s.finish(err)
	}

	s.set(result.Token, result.User)
	s.persist(ctx)
	s.logger.Info().Str("user_id", result.User.ID).Msg("Logged in")

	user := result.User
	return &user, s.finish(nil)
}

// Register creates an account. The confirmation must match before any
// request is sent.
func (s *Session) Register(ctx context.Context, req inbound.RegisterRequest) (*shared.User, error) {
	switch {
	case strings.TrimSpace(req.Email) == "" || req.Password == "":
		return nil, s.fail(shared.NewValidationError("email", shared.ErrCredentialsRequired))
	case req.Password != req.ConfirmPassword:
		return nil, s.fail(shared.NewValidationError("confirmPassword", shared.ErrPasswordMismatch))
	}

	s.begin()
	result, err := s.users.Register(ctx, req)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", req.Email).Msg("Registration failed")
		return nil, s.finish(err)
	}

	s.set(result.Token, result.User)
	s.persist(ctx)
	s.logger.Info().Str("user_id", result.User.ID).Msg("Registered")

	user := result.User
	return &user, s.finish(nil)
}

// Logout drops the local session. No server request is involved.
func (s *Session) Logout(ctx context.Context) error {
	s.clear()
	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear stored session")
		return err
	}
	s.logger.Info().Msg("Logged out")
	return nil
}

// Restore loads a persisted session and confirms it with the server. An
// expired or rejected token is discarded. When the server is unreachable the
// stored user is kept and the network error returned.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	stored, err := s.store.Load(ctx)
	if errors.Is(err, shared.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	if exp := tokenExpiry(stored.Token); !exp.IsZero() && !s.clock().Before(exp) {
		s.logger.Info().Time("expired_at", exp).Msg("Stored session expired")
		_ = s.store.Clear(ctx)
		return &shared.AuthError{Err: shared.ErrSessionExpired}
	}

	s.set(stored.Token, stored.User)
	if err := s.Reload(ctx); err != nil {
		if errors.Is(err, shared.ErrAuth) || errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("Stored session rejected by server")
			s.clear()
			_ = s.store.Clear(ctx)
		}
		return err
	}

	s.logger.Info().Str("user_id", stored.User.ID).Msg("Session restored")
	return nil
}

// Reload re-reads the current user from the server
func (s *Session) Reload(ctx context.Context) error {
	if !s.IsAuthenticated() {
		return &shared.AuthError{Err: shared.ErrNoSession}
	}

	s.begin()
	user, err := s.users.Me(ctx)
	if err != nil {
		return s.finish(err)
	}
	s.setUser(*user)
	s.persist(ctx)
	return s.finish(nil)
}

// UpdateProfile sends only the changed fields and adopts the returned user
func (s *Session) UpdateProfile(ctx context.Context, req inbound.ProfileUpdate) (*shared.User, error) {
	if _, err := s.RequireUser(); err != nil {
		return nil, s.fail(err)
	}

	s.begin()
	user, err := s.users.UpdateProfile(ctx, req)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Profile update failed")
		return nil, s.finish(err)
	}
	s.setUser(*user)
	s.persist(ctx)
	return user, s.finish(nil)
}

// Token is the bearer credential, empty when logged out or expired
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.expiredLocked() {
		return ""
	}
	return s.token
}

// ExpiresAt is the token's exp claim, zero when unknown
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// User returns a copy of the authenticated user
func (s *Session) User() (shared.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return shared.User{}, false
	}
	return *s.user, true
}

// UserID is empty when logged out
func (s *Session) UserID() string {
	u, ok := s.User()
	if !ok {
		return ""
	}
	return u.ID
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil && !s.expiredLocked()
}

func (s *Session) CanBid() bool {
	u, ok := s.User()
	return ok && u.Permissions.CanBid
}

func (s *Session) CanCreateAuction() bool {
	u, ok := s.User()
	return ok && u.Permissions.CanCreateAuction
}

func (s *Session) IsAdmin() bool {
	u, ok := s.User()
	return ok && u.IsAdmin()
}

// RequireUser returns the user or an AuthError
func (s *Session) RequireUser() (shared.User, error) {
	if !s.IsAuthenticated() {
		return shared.User{}, &shared.AuthError{Err: shared.ErrNoSession}
	}
	u, _ := s.User()
	return u, nil
}

func (s *Session) set(token string, user shared.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = &user
	s.expiresAt = tokenExpiry(token)
}

func (s *Session) setUser(user shared.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.expiresAt = time.Time{}
}

func (s *Session) expiredLocked() bool {
	return !s.expiresAt.IsZero() && !s.clock().Before(s.expiresAt)
}

func (s *Session) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	s.mu.RLock()
	if s.user == nil {
		s.mu.RUnlock()
		return
	}
	stored := outbound.StoredSession{Token: s.token, User: *s.user}
	s.mu.RUnlock()

	if err := s.store.Save(ctx, stored); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist session")
	}
}

// tokenExpiry reads the exp claim without verifying the signature. The
// server is the one that verifies; the client only avoids sending a token it
// knows is dead.
func tokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
