package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"aucto-auction-client/internal/domain/shared"
	"aucto-auction-client/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultSessionKey = "aucto:auth-storage"

var _ outbound.SessionStore = (*SessionStore)(nil)

// SessionStore persists the token and user as one JSON value. The key has
// no TTL; token expiry is checked on restore.
type SessionStore struct {
	client *redis.Client
	key    string
	logger zerolog.Logger
}

type SessionStoreParams struct {
	RedisClient *redis.Client
	Key         string
	Logger      zerolog.Logger
}

// NewSessionStore creates a new Redis-backed session store
func NewSessionStore(params SessionStoreParams) *SessionStore {
	key := params.Key
	if key == "" {
		key = defaultSessionKey
	}
	return &SessionStore{
		client: params.RedisClient,
		key:    key,
		logger: params.Logger.With().Str("component", "session_store").Logger(),
	}
}

// Load returns shared.ErrNoSession when nothing is stored
func (s *SessionStore) Load(ctx context.Context) (*outbound.StoredSession, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session outbound.StoredSession
	if err := json.Unmarshal(raw, &session); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("Discarding unreadable stored session")
		if delErr := s.client.Del(ctx, s.key).Err(); delErr != nil {
			s.logger.Error().Err(delErr).Msg("Failed to remove unreadable session")
		}
		return nil, shared.ErrNoSession
	}
	if session.Token == "" {
		return nil, shared.ErrNoSession
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session outbound.StoredSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.logger.Debug().Str("user_id", session.User.ID).Msg("Session saved")
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
