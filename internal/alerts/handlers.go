package alerts

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/peermart/peermart/internal/ledger"
)

// NotificationHandler serves the in-app notification inbox.
type NotificationHandler struct {
	Store ledger.Store
}

// List - GET /notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	items, err := h.Store.NotificationsByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load notifications"})
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": items})
}

// MarkRead - POST /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	if err := h.Store.MarkNotificationRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "marked read"})
}
