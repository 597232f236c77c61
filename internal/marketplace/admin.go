package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/peermart/peermart/internal/alerts"
)

type resolveRequest struct {
	RefundBuyer bool   `json:"refund_buyer"`
	Note        string `json:"note"`
}

// ResolveDispute - POST /admin/orders/:id/resolve. Binary outcome: the
// full custodied amount goes to the buyer or to the seller.
func (h *Handlers) ResolveDispute(c echo.Context) error {
	arbiter, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	req := new(resolveRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	ctx := c.Request().Context()
	if err := h.Engine.ResolveDispute(ctx, id, arbiter, req.RefundBuyer, req.Note); err != nil {
		return httpError(c, err)
	}

	// Notify both participants of the outcome (best-effort)
	if view, err := h.Views.OrderDetail(ctx, id); err == nil {
		for _, uid := range []string{view.Buyer, view.Seller} {
			if u, err := h.Store.UserByID(ctx, uid); err == nil {
				_ = alerts.EnqueueDisputeResolved(id, uid, u.Email, req.RefundBuyer, req.Note)
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":      "dispute resolved",
		"order_id":     id,
		"refund_buyer": req.RefundBuyer,
	})
}

// GetAllOrders - GET /admin/orders, the arbiter's unrestricted view.
func (h *Handlers) GetAllOrders(c echo.Context) error {
	orders, err := h.Views.AllOrders(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// Stats - GET /admin/stats. custody_held should equal open_amount; a
// difference means leaked funds.
func (h *Handlers) Stats(c echo.Context) error {
	st, err := h.Views.Stats(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
