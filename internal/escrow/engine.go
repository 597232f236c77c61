// Package escrow is the order state machine and the only component
// permitted to move value. Funds captured at purchase stay in custody,
// keyed by order id, until the order reaches Completed, Cancelled or
// Resolved, at which point the full amount goes to exactly one party.
package escrow

import (
	"context"
	"sync"
	"time"

	"github.com/peermart/peermart/internal/ledger"
	"github.com/peermart/peermart/internal/market"
)

// Engine serializes all order mutations behind one mutex: a single
// sequential authority over its ledger. Reads go straight to the store.
type Engine struct {
	mu      sync.Mutex
	store   ledger.Store
	arbiter string
}

// NewEngine binds the engine to its ledger and the one identity allowed to
// resolve disputes. The arbiter is fixed for the life of the process.
func NewEngine(store ledger.Store, arbiter string) *Engine {
	return &Engine{store: store, arbiter: arbiter}
}

// Arbiter returns the configured arbiter identity.
func (e *Engine) Arbiter() string {
	return e.arbiter
}

// Purchase captures the buyer's payment into custody and creates the order
// in one atomic step. The payment must equal the listed price exactly;
// overpayment is refused rather than captured.
func (e *Engine) Purchase(ctx context.Context, buyer string, productID int64, message string, payment int64) (*market.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.Product(ctx, productID)
	if err != nil || !p.IsActive {
		return nil, market.ErrProductUnavailable
	}
	if p.Seller == buyer {
		return nil, market.ErrSelfPurchase
	}
	if payment != p.Price {
		return nil, market.ErrAmountMismatch
	}

	now := time.Now().UTC()
	o := &market.Order{
		ProductID:    productID,
		Buyer:        buyer,
		Amount:       payment,
		Status:       market.StatusPending,
		BuyerMessage: message,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.store.CreateOrderHold(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// MarkShipped moves a pending order to Shipped. Seller only.
func (e *Engine) MarkShipped(ctx context.Context, orderID int64, caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, seller, err := e.orderWithSeller(ctx, orderID)
	if err != nil {
		return err
	}
	if caller != seller {
		return market.ErrUnauthorized
	}
	if !market.CanTransition(o.Status, market.StatusShipped) {
		return market.ErrInvalidTransition
	}
	o.Status = market.StatusShipped
	o.UpdatedAt = time.Now().UTC()
	return e.store.UpdateOrder(ctx, o)
}

// MarkCompleted confirms receipt and releases the custodied amount to the
// seller. Buyer only, and only after the seller has claimed shipment: the
// buyer cannot self-release funds out of Pending.
func (e *Engine) MarkCompleted(ctx context.Context, orderID int64, caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, seller, err := e.orderWithSeller(ctx, orderID)
	if err != nil {
		return err
	}
	if caller != o.Buyer {
		return market.ErrUnauthorized
	}
	if !market.CanTransition(o.Status, market.StatusCompleted) {
		return market.ErrInvalidTransition
	}
	o.Status = market.StatusCompleted
	o.UpdatedAt = time.Now().UTC()
	return e.store.SettleOrder(ctx, o, seller, "escrow_release")
}

// Cancel refunds a pending order to the buyer. Either party may cancel
// before shipment; after that the dispute path is the only way out.
func (e *Engine) Cancel(ctx context.Context, orderID int64, caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, seller, err := e.orderWithSeller(ctx, orderID)
	if err != nil {
		return err
	}
	if caller != o.Buyer && caller != seller {
		return market.ErrUnauthorized
	}
	if !market.CanTransition(o.Status, market.StatusCancelled) {
		return market.ErrInvalidTransition
	}
	o.Status = market.StatusCancelled
	o.UpdatedAt = time.Now().UTC()
	return e.store.SettleOrder(ctx, o, o.Buyer, "refund")
}

// RaiseDispute freezes an order for arbitration. Buyer or seller may raise
// it from Pending or Shipped; the reason becomes the message of record,
// overwriting any prior buyer message. Funds stay in custody untouched.
func (e *Engine) RaiseDispute(ctx context.Context, orderID int64, caller, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if reason == "" {
		return market.ErrInvalidInput
	}
	o, seller, err := e.orderWithSeller(ctx, orderID)
	if err != nil {
		return err
	}
	if caller != o.Buyer && caller != seller {
		return market.ErrUnauthorized
	}
	if !market.CanTransition(o.Status, market.StatusDisputed) {
		return market.ErrInvalidTransition
	}
	o.Status = market.StatusDisputed
	o.BuyerMessage = reason
	o.UpdatedAt = time.Now().UTC()
	return e.store.UpdateOrder(ctx, o)
}

// ResolveDispute is the only way out of Disputed. The caller must be the
// configured arbiter; the outcome is binary, the full amount to the buyer
// or to the seller, never both and never partial.
func (e *Engine) ResolveDispute(ctx context.Context, orderID int64, arbiter string, refundBuyer bool, note string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if arbiter != e.arbiter {
		return market.ErrUnauthorized
	}
	o, seller, err := e.orderWithSeller(ctx, orderID)
	if err != nil {
		return err
	}
	if !market.CanTransition(o.Status, market.StatusResolved) {
		return market.ErrInvalidTransition
	}
	payee := seller
	txnStatus := "escrow_release"
	if refundBuyer {
		payee = o.Buyer
		txnStatus = "refund"
	}
	o.Status = market.StatusResolved
	o.ResolutionNote = note
	o.UpdatedAt = time.Now().UTC()
	return e.store.SettleOrder(ctx, o, payee, txnStatus)
}

// orderWithSeller loads an order and resolves its seller through the
// product, bypassing the catalog's active filter so delisted products
// still settle.
func (e *Engine) orderWithSeller(ctx context.Context, orderID int64) (*market.Order, string, error) {
	o, err := e.store.Order(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	p, err := e.store.Product(ctx, o.ProductID)
	if err != nil {
		return nil, "", err
	}
	return o, p.Seller, nil
}
