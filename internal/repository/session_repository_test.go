package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRepoWithMock(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSessionRepo(db), mock
}

func TestSessionInsert(t *testing.T) {
	repo, mock := newSessionRepoWithMock(t)
	exp := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	q := regexp.QuoteMeta("INSERT INTO sessions (token_hash, account_id, payload, expires_at) VALUES (?,?,?,?)")

	mock.ExpectExec(q).WithArgs("h1", "7", []byte(`{}`), exp).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Insert(context.Background(), "h1", "7", []byte(`{}`), exp))

	mock.ExpectExec(q).WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry})
	assert.ErrorIs(t, repo.Insert(context.Background(), "h1", "7", []byte(`{}`), exp), ErrTokenExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGet(t *testing.T) {
	repo, mock := newSessionRepoWithMock(t)
	q := regexp.QuoteMeta("SELECT payload, expires_at, revoked_at FROM sessions WHERE token_hash=? LIMIT 1")
	future := time.Now().UTC().Add(time.Hour)
	cols := []string{"payload", "expires_at", "revoked_at"}

	mock.ExpectQuery(q).WithArgs("live").WillReturnRows(sqlmock.NewRows(cols).AddRow([]byte(`{"a":1}`), future, nil))
	payload, exp, err := repo.Get(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(payload))
	assert.True(t, exp.Equal(future))

	mock.ExpectQuery(q).WithArgs("revoked").WillReturnRows(sqlmock.NewRows(cols).AddRow([]byte(`{}`), future, time.Now()))
	_, _, err = repo.Get(context.Background(), "revoked")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectQuery(q).WithArgs("old").WillReturnRows(sqlmock.NewRows(cols).AddRow([]byte(`{}`), time.Now().Add(-time.Minute), nil))
	_, _, err = repo.Get(context.Background(), "old")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectQuery(q).WithArgs("missing").WillReturnRows(sqlmock.NewRows(cols))
	_, _, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionUpdatePayload(t *testing.T) {
	repo, mock := newSessionRepoWithMock(t)
	q := regexp.QuoteMeta("UPDATE sessions SET payload=? WHERE token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()")

	mock.ExpectExec(q).WithArgs([]byte(`{}`), "h").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePayload(context.Background(), "h", []byte(`{}`)))

	mock.ExpectExec(q).WithArgs([]byte(`{}`), "gone").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdatePayload(context.Background(), "gone", []byte(`{}`)), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRevokeAndPurge(t *testing.T) {
	repo, mock := newSessionRepoWithMock(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=?")).
		WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeByHash(ctx, "h"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE account_id=?")).
		WithArgs("7").WillReturnResult(sqlmock.NewResult(0, 3))
	require.NoError(t, repo.RevokeAllForAccount(ctx, "7"))

	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at < ?")).
		WithArgs(cutoff, cutoff).WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := repo.PurgeExpired(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
