package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/retentionai/internal/repository"
	"github.com/iliyamo/retentionai/internal/utils"
)

// SessionRepository is the persistence behind SQLStore.
// *repository.SessionRepo implements it.
type SessionRepository interface {
	Insert(ctx context.Context, tokenHash, accountID string, payload []byte, exp time.Time) error
	Get(ctx context.Context, tokenHash string) ([]byte, time.Time, error)
	UpdatePayload(ctx context.Context, tokenHash string, payload []byte) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForAccount(ctx context.Context, accountID string) error
}

// SQLStore keeps sessions in the sessions table. Unlike the other stores it
// can revoke every session of one account.
type SQLStore struct {
	repo SessionRepository
}

func NewSQLStore(repo SessionRepository) *SQLStore { return &SQLStore{repo: repo} }

func (s *SQLStore) Create(ctx context.Context, sess Session) (string, error) {
	b, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	for attempt := 0; attempt < 3; attempt++ {
		token, err := utils.RandomHex(tokenBytes)
		if err != nil {
			return "", fmt.Errorf("rand: %w", err)
		}
		err = s.repo.Insert(ctx, utils.HashToken(token), sess.AccountID, b, sess.ExpiresAt)
		if errors.Is(err, repository.ErrTokenExists) {
			continue
		}
		if err != nil {
			return "", err
		}
		return token, nil
	}
	return "", errors.New("session token collision")
}

func (s *SQLStore) Load(ctx context.Context, token string) (Session, error) {
	if !validToken(token) {
		return Session{}, ErrNoSession
	}
	b, exp, err := s.repo.Get(ctx, utils.HashToken(token))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return Session{}, ErrNoSession
	}
	sess.ExpiresAt = exp
	return sess, nil
}

func (s *SQLStore) Replace(ctx context.Context, token string, sess Session) (string, error) {
	if !validToken(token) {
		return "", ErrNoSession
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	err = s.repo.UpdatePayload(ctx, utils.HashToken(token), b)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *SQLStore) Delete(ctx context.Context, token string) error {
	if !validToken(token) {
		return nil
	}
	return s.repo.RevokeByHash(ctx, utils.HashToken(token))
}

// RevokeAccount revokes every live session of accountID.
func (s *SQLStore) RevokeAccount(ctx context.Context, accountID string) error {
	return s.repo.RevokeAllForAccount(ctx, accountID)
}
