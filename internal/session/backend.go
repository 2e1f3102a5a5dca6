package session

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/retentionai/internal/config"
)

// NewStore returns the store selected by cfg.Backend. The redis backend
// needs a connected client and the mysql backend a session repository.
func NewStore(cfg config.SessionConfig, rdb *redis.Client, sessions SessionRepository) (Store, error) {
	switch cfg.Backend {
	case config.SessionBackendMySQL:
		if sessions == nil {
			return nil, errors.New("session: mysql backend needs a session repository")
		}
		return NewSQLStore(sessions), nil
	case config.SessionBackendJWT:
		if len(cfg.Secret) < 32 {
			return nil, errors.New("session: jwt backend needs a secret of at least 32 bytes")
		}
		return NewJWTStore(cfg.Secret), nil
	case config.SessionBackendMemory:
		return NewMemoryStore(), nil
	default:
		if rdb == nil {
			return nil, errors.New("session: redis backend needs a redis client")
		}
		return NewRedisStore(rdb, cfg.KeyPrefix), nil
	}
}
