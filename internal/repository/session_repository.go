package repository

import (
	"context"
	"database/sql"
	"time"
)

// SessionRepo persists server-side sessions for the mysql session backend.
// Rows are keyed by the SHA-256 hash of the cookie token; the raw token is
// never stored.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Insert stores a session payload.
func (r *SessionRepo) Insert(ctx context.Context, tokenHash, accountID string, payload []byte, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (token_hash, account_id, payload, expires_at) VALUES (?,?,?,?)",
		tokenHash, accountID, payload, exp.UTC())
	if isDuplicateEntry(err) {
		return ErrTokenExists
	}
	return err
}

// Get returns the payload and expiry of a non-revoked, non-expired session,
// or sql.ErrNoRows.
func (r *SessionRepo) Get(ctx context.Context, tokenHash string) ([]byte, time.Time, error) {
	var (
		payload   []byte
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT payload, expires_at, revoked_at FROM sessions WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&payload, &expiresAt, &revokedAt)
	if err != nil {
		return nil, time.Time{}, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return nil, time.Time{}, sql.ErrNoRows
	}
	return payload, expiresAt, nil
}

// UpdatePayload rewrites a live session's payload, keeping its expiry.
// It returns sql.ErrNoRows when no live session matched.
func (r *SessionRepo) UpdatePayload(ctx context.Context, tokenHash string, payload []byte) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET payload=? WHERE token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()",
		payload, tokenHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RevokeByHash marks a session as revoked.
func (r *SessionRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForAccount revokes every live session of an account.
func (r *SessionRepo) RevokeAllForAccount(ctx context.Context, accountID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE account_id=? AND revoked_at IS NULL",
		accountID)
	return err
}

// PurgeExpired deletes sessions that expired or were revoked before cutoff.
func (r *SessionRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)",
		cutoff.UTC(), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
