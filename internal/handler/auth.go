package handler

import (
	"context" // request-scoped timeouts for storage calls
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/retentionai/internal/config"
	"github.com/iliyamo/retentionai/internal/model"
	"github.com/iliyamo/retentionai/internal/service"
	"github.com/iliyamo/retentionai/internal/session"
)

// AuthHandler bundles dependencies for the login, signup and logout pages.
type AuthHandler struct {
	Cfg   config.Config
	Creds *service.CredentialStore
	Gate  *session.Gate
}

func NewAuthHandler(cfg config.Config, creds *service.CredentialStore, gate *session.Gate) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Creds: creds, Gate: gate}
}

// ----- DTOs -----

type loginReq struct {
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

type signupReq struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Index sends visitors to the dashboard or the login page.
func (h *AuthHandler) Index(c echo.Context) error {
	if session.IdentityFrom(c).Authenticated {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.Redirect(http.StatusFound, session.DefaultLoginPath)
}

// LoginPage describes the login form. Signed-in users go straight home.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	if session.IdentityFrom(c).Authenticated {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Please sign in",
		"fields":  []string{"email", "password", "remember_me"},
		"signup":  "/signup",
	})
}

// Login checks the demo pair first, then the credential store, and
// establishes a session on success.
func (h *AuthHandler) Login(c echo.Context) error {
	if session.IdentityFrom(c).Authenticated {
		return c.Redirect(http.StatusFound, "/")
	}
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request data")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Email and password are required")
	}

	if id, ok := h.Gate.DemoLogin(req.Email, req.Password); ok {
		if err := h.Gate.Establish(c, id, req.RememberMe); err != nil {
			return failFrom(c, err)
		}
		c.Logger().Warnf("demo login used from %s", c.RealIP())
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Login successful!", "redirect_url": "/"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Creds.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return failFrom(c, err)
	}
	id := session.AccountIdentity(acc.ID, acc.Name, acc.Email, h.roleFor(acc))
	if err := h.Gate.Establish(c, id, req.RememberMe); err != nil {
		return failFrom(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Login successful", "redirect_url": "/"})
}

// Signup validates the form in the order its fields are shown and creates
// the account. The user still has to sign in afterwards.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request data")
	}
	if err := service.ValidateRegistration(req.Name, req.Email, req.Password); err != nil {
		return failFrom(c, err)
	}
	if req.Password != req.ConfirmPassword {
		return fail(c, http.StatusBadRequest, "Passwords do not match")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Creds.Register(ctx, req.Name, req.Email, req.Password); err != nil {
		return failFrom(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Account created successfully! Please sign in."})
}

// Logout ends the session, if any, and returns to the login page.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Gate.Terminate(c); err != nil {
		c.Logger().Warnf("logout: %v", err)
	}
	return c.Redirect(http.StatusFound, session.DefaultLoginPath)
}

// Dashboard is the landing page for signed-in users.
func (h *AuthHandler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewOf(session.IdentityFrom(c))})
}

func (h *AuthHandler) roleFor(acc model.Account) string {
	if h.Cfg.IsAdmin(acc.Email) {
		return model.RoleAdmin
	}
	return model.RoleUser
}
