package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/peermart/peermart/internal/alerts"
)

type purchaseRequest struct {
	ProductID     int64  `json:"product_id"`
	Message       string `json:"message"`
	PaymentAmount int64  `json:"payment_amount"`
}

type disputeRequest struct {
	Reason string `json:"reason"`
}

// Purchase - POST /marketplace/orders. Creates the order and captures the
// payment into custody in one atomic step.
func (h *Handlers) Purchase(c echo.Context) error {
	buyer, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(purchaseRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := c.Request().Context()
	o, err := h.Engine.Purchase(ctx, buyer, req.ProductID, req.Message, req.PaymentAmount)
	if err != nil {
		return httpError(c, err)
	}

	// Notify seller of the new order (best-effort)
	if view, err := h.Views.OrderDetail(ctx, o.ID); err == nil {
		if seller, err := h.Store.UserByID(ctx, view.Seller); err == nil {
			_ = alerts.EnqueueOrderPlaced(o.ID, view.Seller, seller.Email, view.ProductName, o.Amount)
		}
	}

	return c.JSON(http.StatusCreated, o)
}

// Ship - POST /marketplace/orders/:id/ship (seller only, pending only)
func (h *Handlers) Ship(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx := c.Request().Context()
	if err := h.Engine.MarkShipped(ctx, id, caller); err != nil {
		return httpError(c, err)
	}

	// Notify buyer that the order is on its way (best-effort)
	if view, err := h.Views.OrderDetail(ctx, id); err == nil {
		if buyer, err := h.Store.UserByID(ctx, view.Buyer); err == nil {
			_ = alerts.EnqueueOrderShipped(id, view.Buyer, buyer.Email, view.ProductName)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "order marked shipped"})
}

// Complete - POST /marketplace/orders/:id/complete (buyer only, shipped
// only). Releases the custodied amount to the seller.
func (h *Handlers) Complete(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx := c.Request().Context()
	if err := h.Engine.MarkCompleted(ctx, id, caller); err != nil {
		return httpError(c, err)
	}

	// Notify seller of the payout (best-effort)
	if view, err := h.Views.OrderDetail(ctx, id); err == nil {
		if seller, err := h.Store.UserByID(ctx, view.Seller); err == nil {
			_ = alerts.EnqueueOrderCompleted(id, view.Seller, seller.Email, view.Amount)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "order completed, funds released to seller"})
}

// Cancel - POST /marketplace/orders/:id/cancel (buyer or seller, pending
// only). Refunds the buyer in full.
func (h *Handlers) Cancel(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx := c.Request().Context()
	if err := h.Engine.Cancel(ctx, id, caller); err != nil {
		return httpError(c, err)
	}

	// Notify the other participant (best-effort)
	if view, err := h.Views.OrderDetail(ctx, id); err == nil {
		other := view.Buyer
		if caller == view.Buyer {
			other = view.Seller
		}
		if u, err := h.Store.UserByID(ctx, other); err == nil {
			_ = alerts.EnqueueOrderCancelled(id, other, u.Email, view.Amount)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "order cancelled, buyer refunded"})
}

// Dispute - POST /marketplace/orders/:id/dispute (buyer or seller). Funds
// stay in custody until the arbiter resolves.
func (h *Handlers) Dispute(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	req := new(disputeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload: reason required"})
	}

	ctx := c.Request().Context()
	if err := h.Engine.RaiseDispute(ctx, id, caller, req.Reason); err != nil {
		return httpError(c, err)
	}

	// Notify the other participant and the arbiter (best-effort)
	if view, err := h.Views.OrderDetail(ctx, id); err == nil {
		other := view.Buyer
		if caller == view.Buyer {
			other = view.Seller
		}
		if u, err := h.Store.UserByID(ctx, other); err == nil {
			_ = alerts.EnqueueDisputeOpened(id, other, u.Email, req.Reason)
		}
		if arb, err := h.Store.UserByID(ctx, h.Engine.Arbiter()); err == nil {
			_ = alerts.EnqueueDisputeOpened(id, arb.ID, arb.Email, req.Reason)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "dispute raised"})
}

// GetMyOrders - GET /marketplace/orders/me
func (h *Handlers) GetMyOrders(c echo.Context) error {
	buyer, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Views.MyOrders(c.Request().Context(), buyer)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// GetMySales - GET /marketplace/sales/me
func (h *Handlers) GetMySales(c echo.Context) error {
	seller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sales, err := h.Views.MySales(c.Request().Context(), seller)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"sales": sales})
}

// GetOrder - GET /marketplace/orders/:id. Visible to the order's buyer,
// its seller and the arbiter.
func (h *Handlers) GetOrder(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	view, err := h.Views.OrderDetail(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	if caller != view.Buyer && caller != view.Seller && caller != h.Engine.Arbiter() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this order"})
	}
	return c.JSON(http.StatusOK, view)
}
