package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/retentionai/internal/service"
	"github.com/iliyamo/retentionai/internal/session"
)

// msgUnexpected is the only thing a client learns about a server-side failure.
const msgUnexpected = "An unexpected error occurred. Please try again."

// userView is the session-level user shape returned by the dashboard and
// profile endpoints.
type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func viewOf(id session.Identity) userView {
	return userView{ID: id.AccountID, Name: id.Name, Email: id.Email, Role: id.Role}
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// failFrom maps service errors onto responses. Validation and policy
// messages are shown as-is; anything unexpected is logged and hidden.
func failFrom(c echo.Context, err error) error {
	var verr *service.ValidationError
	var weak *service.WeakPasswordError
	switch {
	case errors.As(err, &verr):
		return fail(c, http.StatusBadRequest, verr.Message)
	case errors.As(err, &weak):
		return fail(c, http.StatusBadRequest, weak.Message)
	case errors.Is(err, service.ErrDuplicateEmail):
		return fail(c, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrNotFound):
		return fail(c, http.StatusNotFound, "Account not found")
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return fail(c, http.StatusInternalServerError, msgUnexpected)
}
