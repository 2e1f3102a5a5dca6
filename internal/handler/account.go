package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/retentionai/internal/model"
	"github.com/iliyamo/retentionai/internal/service"
	"github.com/iliyamo/retentionai/internal/session"
)

// AccountHandler exposes admin operations on stored accounts.
type AccountHandler struct {
	Creds *service.CredentialStore
	Gate  *session.Gate
}

func NewAccountHandler(creds *service.CredentialStore, gate *session.Gate) *AccountHandler {
	return &AccountHandler{Creds: creds, Gate: gate}
}

type accountView struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
	IsActive  bool       `json:"is_active"`
}

func accountOf(a model.Account) accountView {
	return accountView{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		LastLogin: a.LastLogin,
		IsActive:  a.IsActive,
	}
}

type activeReq struct {
	Active *bool `json:"active"`
}

// Get returns one account without its password digest.
func (h *AccountHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Creds.FindByID(ctx, id)
	if err != nil {
		return failFrom(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": accountOf(acc)})
}

// SetActive soft (de)activates an account. Deactivation also ends the
// account's sessions when the session backend can revoke them.
func (h *AccountHandler) SetActive(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req activeReq
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return fail(c, http.StatusBadRequest, "active flag is required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Creds.SetActive(ctx, id, *req.Active); err != nil {
		return failFrom(c, err)
	}
	revoked := false
	if !*req.Active && h.Gate != nil {
		ok, err := h.Gate.RevokeAccount(ctx, strconv.FormatUint(id, 10))
		if err != nil {
			c.Logger().Warnf("revoke sessions of account %d: %v", id, err)
		}
		revoked = ok && err == nil
	}
	acc, err := h.Creds.FindByID(ctx, id)
	if err != nil {
		return failFrom(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": accountOf(acc), "sessions_revoked": revoked})
}
