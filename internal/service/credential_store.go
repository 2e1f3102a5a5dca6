package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/retentionai/internal/model"
	"github.com/iliyamo/retentionai/internal/queue"
	"github.com/iliyamo/retentionai/internal/repository"
	"github.com/iliyamo/retentionai/internal/utils"
)

// AccountRepository is the persistence the credential store needs.
// Lookups report a missing row as sql.ErrNoRows; Create reports a UNIQUE
// violation on email as repository.ErrEmailExists.
type AccountRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (model.Account, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
	TouchLastLogin(ctx context.Context, id uint64, at time.Time) error
	SetActive(ctx context.Context, id uint64, active bool) error
}

// CredentialStore registers and verifies accounts. It knows nothing about
// sessions.
type CredentialStore struct {
	repo   AccountRepository
	cost   int
	events ActivityPublisher
	logger echo.Logger
	now    func() time.Time

	inflight sync.WaitGroup
}

// Option customizes a CredentialStore.
type Option func(*CredentialStore)

// WithPublisher sends account events to p.
func WithPublisher(p ActivityPublisher) Option {
	return func(s *CredentialStore) {
		if p != nil {
			s.events = p
		}
	}
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l echo.Logger) Option {
	return func(s *CredentialStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *CredentialStore) { s.now = now }
}

// NewCredentialStore returns a store hashing passwords with the given bcrypt
// cost.
func NewCredentialStore(repo AccountRepository, bcryptCost int, opts ...Option) *CredentialStore {
	s := &CredentialStore{
		repo:   repo,
		cost:   bcryptCost,
		events: noopPublisher{},
		logger: log.New("credentials"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register validates input, hashes the password and inserts the account.
// Duplicate emails are detected by the storage layer's UNIQUE index, so two
// concurrent registrations for one address yield one account and one
// ErrDuplicateEmail.
func (s *CredentialStore) Register(ctx context.Context, name, email, password string) (model.Account, error) {
	if err := ValidateRegistration(name, email, password); err != nil {
		return model.Account{}, err
	}
	name = strings.TrimSpace(name)
	email = repository.NormalizeEmail(email)

	hash, err := utils.HashPassword(password, s.cost)
	if err != nil {
		return model.Account{}, storageErr("hash password", err)
	}
	acc, err := s.repo.Create(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.Account{}, ErrDuplicateEmail
		}
		return model.Account{}, storageErr("create account", err)
	}
	s.publish(ctx, queue.AccountEvent{Type: queue.EventRegistered, AccountID: acc.ID, Email: acc.Email})
	return acc, nil
}

// Authenticate verifies the credentials of an active account and records
// the login time. Unknown email, wrong password and inactive account all
// fail with ErrInvalidCredentials.
func (s *CredentialStore) Authenticate(ctx context.Context, email, password string) (model.Account, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return model.Account{}, &ValidationError{Field: "credentials", Message: "Email and password are required"}
	}

	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.BurnVerify(password, s.cost)
			return model.Account{}, ErrInvalidCredentials
		}
		return model.Account{}, storageErr("get account by email", err)
	}
	if !utils.VerifyPassword(acc.PasswordHash, password) || !acc.IsActive {
		return model.Account{}, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.TouchLastLogin(ctx, acc.ID, now); err != nil {
		return model.Account{}, storageErr("touch last login", err)
	}
	acc.LastLogin = &now
	s.publish(ctx, queue.AccountEvent{Type: queue.EventLoggedIn, AccountID: acc.ID, Email: acc.Email})
	return acc, nil
}

// FindByID returns the account with the given id or ErrNotFound.
func (s *CredentialStore) FindByID(ctx context.Context, id uint64) (model.Account, error) {
	acc, err := s.repo.GetByID(ctx, id)
	return s.lookupResult(acc, err, "get account by id")
}

// FindByEmail returns the account for the normalized email or ErrNotFound.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (model.Account, error) {
	acc, err := s.repo.GetByEmail(ctx, repository.NormalizeEmail(email))
	return s.lookupResult(acc, err, "get account by email")
}

// SetActive soft-(de)activates an account. Inactive accounts can no longer
// authenticate. Sessions are left alone here; ending them is the session
// gate's job.
func (s *CredentialStore) SetActive(ctx context.Context, id uint64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return storageErr("set active", err)
	}
	s.publish(ctx, queue.AccountEvent{Type: queue.EventActivityChanged, AccountID: id, Active: &active})
	return nil
}

func (s *CredentialStore) lookupResult(acc model.Account, err error, op string) (model.Account, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, ErrNotFound
		}
		return model.Account{}, storageErr(op, err)
	}
	return acc, nil
}

// publishTimeout bounds one background publish, broker dial included.
const publishTimeout = 5 * time.Second

// publish hands ev to the publisher in the background. The request that
// caused the event never waits for the broker.
func (s *CredentialStore) publish(ctx context.Context, ev queue.AccountEvent) {
	ev.OccurredAt = s.now()
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.events.Publish(pctx, ev); err != nil {
			s.logger.Warnf("activity event %s for account %d dropped: %v", ev.Type, ev.AccountID, err)
		}
	}()
}

// Wait blocks until every event published so far has been handed off or
// dropped. Call it on shutdown.
func (s *CredentialStore) Wait() { s.inflight.Wait() }
