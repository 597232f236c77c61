// Package wallet exposes the user-facing wallet surface: balance, topups
// and transaction history. Escrow movements never go through here: the
// escrow engine is the only component allowed to hold or release custody.
package wallet

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/peermart/peermart/internal/ledger"
)

type Handler struct {
	Store ledger.Store
}

type TopupRequest struct {
	Amount int64 `json:"amount"`
}

// Balance returns the authenticated user's available balance in base units.
func (h *Handler) Balance(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	balance, err := h.Store.Balance(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": userID,
		"balance": balance,
	})
}

// Topup credits the wallet immediately and logs the movement. A payment
// provider callback would slot in here; for now the mock settles inline.
func (h *Handler) Topup(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(TopupRequest)
	if err := c.Bind(req); err != nil || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be a positive number of base units"})
	}

	topupID := uuid.New().String()
	if err := h.Store.Credit(c.Request().Context(), userID, req.Amount, "topup", "topup:"+topupID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not credit wallet"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"topup_id": topupID,
		"amount":   req.Amount,
		"status":   "settled",
	})
}

// Transactions returns the user's wallet audit trail, newest first.
func (h *Handler) Transactions(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	txns, err := h.Store.TransactionsByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txns})
}
