package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/retentionai/internal/config"
	"github.com/iliyamo/retentionai/internal/model"
)

const (
	contextKeyIdentity = "identity"
	contextKeyToken    = "session_token"
)

// DefaultLoginPath is where Require sends anonymous requests.
const DefaultLoginPath = "/login"

// Gate establishes, resolves and terminates cookie-backed sessions.
type Gate struct {
	store     Store
	cfg       config.SessionConfig
	demo      config.DemoConfig
	loginPath string
	now       func() time.Time
}

// NewGate returns a gate over store. The demo bypass is only honoured when
// demo.Enabled is set.
func NewGate(store Store, cfg config.SessionConfig, demo config.DemoConfig) *Gate {
	if cfg.CookieName == "" {
		cfg.CookieName = "session_id"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.RememberTTL < cfg.TTL {
		cfg.RememberTTL = cfg.TTL
	}
	return &Gate{store: store, cfg: cfg, demo: demo, loginPath: DefaultLoginPath, now: time.Now}
}

// Establish stores a session for id and sets the session cookie. With
// remember set, the session outlives the browser session for RememberTTL.
func (g *Gate) Establish(c echo.Context, id Identity, remember bool) error {
	if !id.Authenticated {
		return errors.New("cannot establish a session for an anonymous identity")
	}
	ttl := g.cfg.TTL
	if remember {
		ttl = g.cfg.RememberTTL
	}
	now := g.now()
	sess := Session{
		AccountID:     id.AccountID,
		Name:          id.Name,
		Email:         id.Email,
		Role:          id.Role,
		Authenticated: true,
		IssuedAt:      now,
		ExpiresAt:     now.Add(ttl),
	}
	ctx := c.Request().Context()
	// Drop whatever session the client held before so a login never
	// inherits an older identity.
	if old := g.token(c); old != "" {
		_ = g.store.Delete(ctx, old)
	}
	token, err := g.store.Create(ctx, sess)
	if err != nil {
		return err
	}
	maxAge := 0
	if remember {
		maxAge = int(ttl / time.Second)
	}
	c.SetCookie(g.cookie(token, maxAge))
	c.Set(contextKeyToken, token)
	c.Set(contextKeyIdentity, id)
	return nil
}

// Resolve returns the identity behind the request's session cookie, or
// Anonymous when there is none or it is invalid.
func (g *Gate) Resolve(c echo.Context) Identity {
	if v, ok := c.Get(contextKeyIdentity).(Identity); ok {
		return v
	}
	token := g.token(c)
	if token == "" {
		return Anonymous
	}
	sess, err := g.store.Load(c.Request().Context(), token)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			c.Logger().Warnf("session: load failed: %v", err)
		}
		return Anonymous
	}
	id := sess.identity()
	if id.Authenticated {
		c.Set(contextKeyToken, token)
	}
	return id
}

// Attach resolves the identity once per request and stores it in the echo
// context for IdentityFrom.
func (g *Gate) Attach() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(contextKeyIdentity, g.Resolve(c))
			return next(c)
		}
	}
}

// Require guards protected routes. Anonymous requests are redirected to the
// login page and the wrapped handler is never called.
func (g *Gate) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !g.Resolve(c).Authenticated {
				return c.Redirect(http.StatusFound, g.loginPath)
			}
			return next(c)
		}
	}
}

// Update rewrites the current session with id's details, keeping its
// expiry. Used when the display name changes.
func (g *Gate) Update(c echo.Context, id Identity) error {
	token := g.token(c)
	if token == "" || !id.Authenticated {
		return ErrNoSession
	}
	ctx := c.Request().Context()
	prev, err := g.store.Load(ctx, token)
	if err != nil {
		return err
	}
	prev.Name = id.Name
	prev.Email = id.Email
	prev.Role = id.Role
	next, err := g.store.Replace(ctx, token, prev)
	if err != nil {
		return err
	}
	if next != token {
		maxAge := 0
		if prev.ExpiresAt.Sub(prev.IssuedAt) > g.cfg.TTL {
			maxAge = int(prev.ExpiresAt.Sub(g.now()) / time.Second)
		}
		c.SetCookie(g.cookie(next, maxAge))
		c.Set(contextKeyToken, next)
	}
	c.Set(contextKeyIdentity, id)
	return nil
}

// Terminate clears the session. A request without a session cookie is left
// untouched and nil is returned.
func (g *Gate) Terminate(c echo.Context) error {
	token := g.token(c)
	c.Set(contextKeyIdentity, Anonymous)
	if token == "" {
		return nil
	}
	c.SetCookie(g.cookie("", -1))
	c.Set(contextKeyToken, "")
	return g.store.Delete(c.Request().Context(), token)
}

// RevokeAccount ends all sessions of accountID when the store supports it.
// It reports false for stores that cannot, such as the jwt backend.
func (g *Gate) RevokeAccount(ctx context.Context, accountID string) (bool, error) {
	r, ok := g.store.(AccountRevoker)
	if !ok {
		return false, nil
	}
	return true, r.RevokeAccount(ctx, accountID)
}

// DemoLogin checks the fixed demonstration credentials. It returns false
// unless the bypass is enabled in configuration.
func (g *Gate) DemoLogin(email, password string) (Identity, bool) {
	if !g.demo.Enabled || g.demo.Email == "" {
		return Anonymous, false
	}
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(g.demo.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.demo.Password)) == 1
	if !emailOK || !passOK {
		return Anonymous, false
	}
	return Identity{
		AccountID:     DemoAccountID,
		Name:          "Demo Admin",
		Email:         g.demo.Email,
		Role:          model.RoleAdmin,
		Authenticated: true,
	}, true
}

// IdentityFrom returns the identity Attach (or Establish) stored in c.
func IdentityFrom(c echo.Context) Identity {
	if v, ok := c.Get(contextKeyIdentity).(Identity); ok {
		return v
	}
	return Anonymous
}

func (g *Gate) token(c echo.Context) string {
	if v, ok := c.Get(contextKeyToken).(string); ok && v != "" {
		return v
	}
	cookie, err := c.Cookie(g.cfg.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (g *Gate) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   g.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
