package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/retentionai/internal/model"
	"github.com/iliyamo/retentionai/internal/queue"
	"github.com/iliyamo/retentionai/internal/repository"
)

// memRepo mimics the users table, including the UNIQUE index on email.
type memRepo struct {
	mu      sync.Mutex
	nextID  uint64
	byID    map[uint64]model.Account
	byEmail map[string]uint64

	failWith error
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[uint64]model.Account{}, byEmail: map[string]uint64{}}
}

func (r *memRepo) Create(_ context.Context, name, email, hash string) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return model.Account{}, r.failWith
	}
	if _, ok := r.byEmail[email]; ok {
		return model.Account{}, repository.ErrEmailExists
	}
	r.nextID++
	acc := model.Account{ID: r.nextID, Name: name, Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC(), IsActive: true}
	r.byID[acc.ID] = acc
	r.byEmail[email] = acc.ID
	return acc, nil
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return model.Account{}, r.failWith
	}
	id, ok := r.byEmail[email]
	if !ok {
		return model.Account{}, sql.ErrNoRows
	}
	return r.byID[id], nil
}

func (r *memRepo) GetByID(_ context.Context, id uint64) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.byID[id]
	if !ok {
		return model.Account{}, sql.ErrNoRows
	}
	return acc, nil
}

func (r *memRepo) TouchLastLogin(_ context.Context, id uint64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc := r.byID[id]
	acc.LastLogin = &at
	r.byID[id] = acc
	return nil
}

func (r *memRepo) SetActive(_ context.Context, id uint64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	acc.IsActive = active
	r.byID[id] = acc
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AccountEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func newStore(t *testing.T) (*CredentialStore, *memRepo, *recordingPublisher) {
	t.Helper()
	repo := newMemRepo()
	pub := &recordingPublisher{}
	return NewCredentialStore(repo, bcrypt.MinCost, WithPublisher(pub)), repo, pub
}

func TestRegisterThenAuthenticate(t *testing.T) {
	ctx := context.Background()
	cases := []struct{ name, email, password string }{
		{"Alice", "alice@example.com", "Abcdefg1"},
		{"Bob Smith", "bob.smith+tag@mail.example.org", "Sup3rSecret"},
		{"  Carol  ", "CAROL@EXAMPLE.IO", "xY9xY9xY9"},
		{"Long", "long@example.com", "Abcdefg1" + strings.Repeat("x", 70)},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			store, _, _ := newStore(t)
			acc, err := store.Register(ctx, tc.name, tc.email, tc.password)
			require.NoError(t, err)
			assert.NotEqual(t, tc.password, acc.PasswordHash)

			got, err := store.Authenticate(ctx, tc.email, tc.password)
			require.NoError(t, err)
			assert.Equal(t, acc.ID, got.ID)
			assert.Equal(t, repository.NormalizeEmail(tc.email), got.Email)
			assert.NotNil(t, got.LastLogin)
		})
	}
}

func TestRegister_TrimsName(t *testing.T) {
	store, _, _ := newStore(t)
	acc, err := store.Register(context.Background(), "  Carol  ", "carol@example.com", "Abcdefg1")
	require.NoError(t, err)
	assert.Equal(t, "Carol", acc.Name)
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newStore(t)

	_, err := store.Register(ctx, "Jane", "jane@example.com", "Secret123")
	require.NoError(t, err)

	_, err = store.Register(ctx, "Someone Else", "JANE@Example.COM", "Different9X")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAuthenticate_FailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newStore(t)
	_, err := store.Register(ctx, "Jane", "jane@example.com", "Secret123")
	require.NoError(t, err)

	_, wrongPassword := store.Authenticate(ctx, "jane@example.com", "Secret124")
	_, unknownEmail := store.Authenticate(ctx, "nobody@example.com", "Secret123")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthenticate_InactiveAccount(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newStore(t)
	acc, err := store.Register(ctx, "Jane", "jane@example.com", "Secret123")
	require.NoError(t, err)
	require.NoError(t, store.SetActive(ctx, acc.ID, false))

	_, err = store.Authenticate(ctx, "jane@example.com", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, store.SetActive(ctx, acc.ID, true))
	_, err = store.Authenticate(ctx, "jane@example.com", "Secret123")
	assert.NoError(t, err)
}

func TestAuthenticate_MissingInput(t *testing.T) {
	store, _, _ := newStore(t)
	_, err := store.Authenticate(context.Background(), "  ", "x")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestPasswordPolicy(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		password string
		rule     string
	}{
		{"abcdefgh", RuleUpper},
		{"ABCDEFG1", RuleLower},
		{"Abcdefgh", RuleDigit},
		{"Abc1", RuleMinLength},
		{"Abcdefg1", ""},
		{"Ébcdefg1", RuleUpper},
		{"ABCDEFÉ1", RuleLower},
		{"Abcdéfg1", ""},
		{"Abcdefg١", ""},
	}
	for _, tc := range cases {
		t.Run(tc.password, func(t *testing.T) {
			store, _, _ := newStore(t)
			_, err := store.Register(ctx, "Policy", "policy@example.com", tc.password)
			if tc.rule == "" {
				assert.NoError(t, err)
				return
			}
			var wp *WeakPasswordError
			require.ErrorAs(t, err, &wp)
			assert.Equal(t, tc.rule, wp.Rule)
			assert.NotEmpty(t, wp.Message)
		})
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	cases := []struct{ name, email, password, field string }{
		{"", "a@example.com", "Abcdefg1", "name"},
		{"A", "", "Abcdefg1", "email"},
		{"A", "not-an-email", "Abcdefg1", "email"},
		{"A", "a@example", "Abcdefg1", "email"},
		{"A", "a@example.com", "", "password"},
	}
	for _, tc := range cases {
		store, repo, _ := newStore(t)
		_, err := store.Register(ctx, tc.name, tc.email, tc.password)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "input %+v", tc)
		assert.Equal(t, tc.field, ve.Field)
		assert.Empty(t, repo.byID, "nothing stored for invalid input")
	}
}

func TestRegister_ConcurrentDuplicate(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			email := "race@example.com"
			if i%2 == 1 {
				email = "RACE@example.com"
			}
			_, errs[i] = store.Register(ctx, "Racer", email, "Abcdefg1")
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateEmail):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dup)
}

func TestJaneDoeScenario(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newStore(t)

	acc, err := store.Register(ctx, "Jane Doe", "Jane@Example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", acc.Email)

	got, err := store.Authenticate(ctx, "jane@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	store, repo, _ := newStore(t)
	cause := errors.New("connection refused")
	repo.failWith = cause

	_, err := store.Register(ctx, "Jane", "jane@example.com", "Secret123")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create account", se.Op)
	assert.ErrorIs(t, err, cause)

	_, err = store.Authenticate(ctx, "jane@example.com", "Secret123")
	require.ErrorAs(t, err, &se)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestFindByIDAndEmail(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newStore(t)
	acc, err := store.Register(ctx, "Jane", "jane@example.com", "Secret123")
	require.NoError(t, err)

	byID, err := store.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.Email, byID.Email)

	byEmail, err := store.FindByEmail(ctx, " JANE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byEmail.ID)

	_, err = store.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.SetActive(ctx, 999, false), ErrNotFound)
}

func TestActivityEvents(t *testing.T) {
	ctx := context.Background()
	store, _, pub := newStore(t)
	pub.err = errors.New("broker down")

	acc, err := store.Register(ctx, "Jane", "jane@example.com", "Secret123")
	require.NoError(t, err, "publisher failures do not fail registration")
	store.Wait()
	_, err = store.Authenticate(ctx, "jane@example.com", "Secret123")
	require.NoError(t, err)
	_, _ = store.Authenticate(ctx, "jane@example.com", "wrong")
	store.Wait()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.events, 2)
	assert.Equal(t, queue.EventRegistered, pub.events[0].Type)
	assert.Equal(t, queue.EventLoggedIn, pub.events[1].Type)
	assert.Equal(t, acc.ID, pub.events[1].AccountID)
	assert.False(t, pub.events[0].OccurredAt.IsZero())
}

type blockingPublisher struct {
	release chan struct{}
	done    chan error
}

func (p *blockingPublisher) Publish(ctx context.Context, _ queue.AccountEvent) error {
	select {
	case <-p.release:
	case <-ctx.Done():
	}
	err := ctx.Err()
	p.done <- err
	return err
}

func TestActivityEvents_SlowBrokerDoesNotDelayRequests(t *testing.T) {
	pub := &blockingPublisher{release: make(chan struct{}), done: make(chan error, 1)}
	store := NewCredentialStore(newMemRepo(), bcrypt.MinCost, WithPublisher(pub))

	reqCtx, cancel := context.WithCancel(context.Background())
	finished := make(chan error, 1)
	go func() {
		_, err := store.Register(reqCtx, "Jane", "jane@example.com", "Secret123")
		finished <- err
	}()

	select {
	case err := <-finished:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Register waited for the publisher")
	}

	// The request is over; the event must still go out.
	cancel()
	close(pub.release)
	store.Wait()
	assert.NoError(t, <-pub.done)
}
