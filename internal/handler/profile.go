package handler

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/retentionai/internal/session"
)

// ProfileHandler serves the signed-in user's profile. Changes are kept in
// the session only; the stored account is not modified.
type ProfileHandler struct {
	Gate *session.Gate
}

func NewProfileHandler(gate *session.Gate) *ProfileHandler { return &ProfileHandler{Gate: gate} }

type profileReq struct {
	Name string `json:"name" form:"name"`
}

// Get returns the current identity.
func (h *ProfileHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewOf(session.IdentityFrom(c))})
}

// Update renames the current session's user.
func (h *ProfileHandler) Update(c echo.Context) error {
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request data")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fail(c, http.StatusBadRequest, "Name is required")
	}
	if utf8.RuneCountInString(name) > 120 {
		return fail(c, http.StatusBadRequest, "Name must be at most 120 characters")
	}

	id := session.IdentityFrom(c)
	id.Name = name
	if err := h.Gate.Update(c, id); err != nil {
		c.Logger().Errorf("profile update: %v", err)
		return fail(c, http.StatusInternalServerError, "Failed to update profile")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Profile updated successfully",
		"user":    viewOf(id),
	})
}
