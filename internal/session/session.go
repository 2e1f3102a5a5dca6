// Package session is the request-time authentication checkpoint. It issues
// sessions after a successful credential check, resolves the identity behind
// the session cookie for every request, guards protected routes and clears
// sessions on logout.
//
// Identity never lives in package-level state: Attach resolves it once per
// request and stores it in the echo context, where handlers read it back with
// IdentityFrom.
package session

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// DemoAccountID marks the identity produced by the demo login bypass.
const DemoAccountID = "demo"

// ErrNoSession is returned by stores for unknown, expired or malformed
// tokens.
var ErrNoSession = errors.New("session not found")

// Session is the state a store keeps behind a cookie token.
type Session struct {
	AccountID     string    `json:"account_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Authenticated bool      `json:"authenticated"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Identity is the resolved, request-scoped view of a session. The zero value
// is the anonymous identity.
type Identity struct {
	AccountID     string
	Name          string
	Email         string
	Role          string
	Authenticated bool
}

// Anonymous is returned whenever no valid session backs a request.
var Anonymous = Identity{}

// AccountIdentity builds the identity for a stored account.
func AccountIdentity(id uint64, name, email, role string) Identity {
	return Identity{
		AccountID:     strconv.FormatUint(id, 10),
		Name:          name,
		Email:         email,
		Role:          role,
		Authenticated: true,
	}
}

// NumericID returns the account id, or false for anonymous and demo
// identities.
func (i Identity) NumericID() (uint64, bool) {
	if !i.Authenticated {
		return 0, false
	}
	n, err := strconv.ParseUint(i.AccountID, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsDemo reports whether the identity came from the demo bypass.
func (i Identity) IsDemo() bool { return i.Authenticated && i.AccountID == DemoAccountID }

func (s Session) identity() Identity {
	if !s.Authenticated {
		return Anonymous
	}
	return Identity{
		AccountID:     s.AccountID,
		Name:          s.Name,
		Email:         s.Email,
		Role:          s.Role,
		Authenticated: true,
	}
}

// Store persists sessions behind opaque tokens.
type Store interface {
	// Create stores s and returns the token the client presents later.
	Create(ctx context.Context, s Session) (string, error)
	// Load returns the session for token or ErrNoSession.
	Load(ctx context.Context, token string) (Session, error)
	// Replace overwrites the session behind token, keeping its expiry, and
	// returns the token to present from now on (which may change).
	Replace(ctx context.Context, token string, s Session) (string, error)
	// Delete removes the session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}

// AccountRevoker is implemented by stores that can end every session of one
// account at once.
type AccountRevoker interface {
	RevokeAccount(ctx context.Context, accountID string) error
}
