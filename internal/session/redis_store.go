package session

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/retentionai/internal/utils"
)

const tokenBytes = 16

// RedisStore keeps sessions server-side under <prefix><token> with a TTL
// matching the session expiry. The client only ever holds the random token.
// Replace relies on KEEPTTL, so the server must be Redis 6.0 or newer.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a store using keys prefixed with prefix
// (default "session:").
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *RedisStore) Create(ctx context.Context, sess Session) (string, error) {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return "", errors.New("session already expired")
	}
	token, err := utils.RandomHex(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	ok, err := s.rdb.SetNX(ctx, s.prefix+token, b, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("session token collision")
	}
	return token, nil
}

func (s *RedisStore) Load(ctx context.Context, token string) (Session, error) {
	if !validToken(token) {
		return Session{}, ErrNoSession
	}
	b, err := s.rdb.Get(ctx, s.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return Session{}, ErrNoSession
	}
	if !sess.ExpiresAt.IsZero() && s.now().After(sess.ExpiresAt) {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *RedisStore) Replace(ctx context.Context, token string, sess Session) (string, error) {
	if !validToken(token) {
		return "", ErrNoSession
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	ok, err := s.rdb.SetXX(ctx, s.prefix+token, b, redis.KeepTTL).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoSession
	}
	return token, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if !validToken(token) {
		return nil
	}
	return s.rdb.Del(ctx, s.prefix+token).Err()
}

func validToken(token string) bool {
	if len(token) != 2*tokenBytes {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
