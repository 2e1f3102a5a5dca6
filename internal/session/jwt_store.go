package session

import (
	"context"
	"time"

	"github.com/iliyamo/retentionai/internal/utils"
)

// JWTStore keeps nothing server-side: the session is an HS256-signed token
// held in the cookie itself. Delete cannot revoke an issued token; logout
// relies on the cookie being cleared and on the exp claim.
type JWTStore struct {
	secret string
}

func NewJWTStore(secret string) *JWTStore { return &JWTStore{secret: secret} }

func (s *JWTStore) Create(_ context.Context, sess Session) (string, error) {
	return utils.SignSessionToken(s.secret, sess.AccountID, sess.Name, sess.Email, sess.Role, sess.IssuedAt, sess.ExpiresAt)
}

func (s *JWTStore) Load(_ context.Context, token string) (Session, error) {
	claims, err := utils.ParseSessionToken(s.secret, token)
	if err != nil || claims.Subject == "" {
		return Session{}, ErrNoSession
	}
	sess := Session{
		AccountID:     claims.Subject,
		Name:          claims.Name,
		Email:         claims.Email,
		Role:          claims.Role,
		Authenticated: true,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// Replace re-signs the session with the expiry of the token it replaces.
func (s *JWTStore) Replace(ctx context.Context, token string, sess Session) (string, error) {
	prev, err := s.Load(ctx, token)
	if err != nil {
		return "", err
	}
	sess.IssuedAt = time.Now()
	sess.ExpiresAt = prev.ExpiresAt
	return s.Create(ctx, sess)
}

func (s *JWTStore) Delete(context.Context, string) error { return nil }
