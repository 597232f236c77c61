package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Me returns the authenticated user's profile and wallet balance.
func (h *Handler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	u, err := h.Store.UserByID(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	balance, _ := h.Store.Balance(c.Request().Context(), userID)

	return c.JSON(http.StatusOK, echo.Map{
		"id":      u.ID,
		"name":    u.Name,
		"email":   u.Email,
		"role":    u.Role,
		"balance": balance,
	})
}
