package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when no auto-login token exists for a
// session, either because the webhook has not landed yet or because the
// token expired or was already consumed.
var ErrTokenNotFound = errors.New("auto-login token not found")

// TokenStore holds one-time auto-login tokens. A token is readable any
// number of times by session id (the polling endpoint) but redeemable
// exactly once.
type TokenStore interface {
	Save(ctx context.Context, sessionID, token, userID string, ttl time.Duration) error
	Peek(ctx context.Context, sessionID string) (string, error)
	Consume(ctx context.Context, token, sessionID string) (string, error)
}

type redisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) TokenStore {
	return &redisTokenStore{rdb: rdb}
}

func sessionKey(sessionID string) string {
	return "autologin:session:" + sessionID
}

func tokenKey(token string) string {
	return "autologin:token:" + token
}

func (s *redisTokenStore) Save(ctx context.Context, sessionID, token, userID string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, sessionKey(sessionID), token, ttl).Err(); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	if err := s.rdb.Set(ctx, tokenKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store token owner: %w", err)
	}

	return nil
}

func (s *redisTokenStore) Peek(ctx context.Context, sessionID string) (string, error) {
	token, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read session token: %w", err)
	}

	return token, nil
}

// Consume redeems the token atomically via GETDEL so a replayed exchange
// request cannot mint a second session.
func (s *redisTokenStore) Consume(ctx context.Context, token, sessionID string) (string, error) {
	userID, err := s.rdb.GetDel(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume token: %w", err)
	}

	s.rdb.Del(ctx, sessionKey(sessionID))

	return userID, nil
}
