// Package ledger is durable keyed storage for users, products, orders,
// wallet balances and per-order custody holds. It carries no business
// logic: transition legality and authorization live in the escrow engine,
// the store only guarantees that composite fund moves commit atomically.
package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/peermart/peermart/internal/market"
)

// Transaction is one append-only audit row for a wallet movement.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Type      string    `json:"type"`      // debit | credit
	Status    string    `json:"status"`    // topup, escrow_hold, escrow_release, refund
	Reference string    `json:"reference"` // order id or topup id
	CreatedAt time.Time `json:"created_at"`
}

// Notification is an in-app alert stored for a user.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Reference string     `json:"reference,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// Store is the ledger behind the catalog, the escrow engine and the query
// layer. CreateOrderHold and SettleOrder are composite: the wallet movement,
// the custody change and the order write commit together or not at all.
// Implementations return market.ErrNotFound for unknown keys.
type Store interface {
	// Users and wallets.
	CreateUser(ctx context.Context, u *market.User) error
	UserByID(ctx context.Context, id string) (*market.User, error)
	UserByEmail(ctx context.Context, email string) (*market.User, error)
	Balance(ctx context.Context, userID string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, status, reference string) error
	TransactionsByUser(ctx context.Context, userID string) ([]Transaction, error)

	// Products. CreateProduct assigns the next sequential id.
	CreateProduct(ctx context.Context, p *market.Product) error
	Product(ctx context.Context, id int64) (*market.Product, error)
	SetProductActive(ctx context.Context, id int64, active bool) error
	Products(ctx context.Context) ([]market.Product, error)

	// Orders. CreateOrderHold assigns the next sequential order id, debits
	// the buyer's wallet by the order amount and holds it in custody keyed
	// by the new id. UpdateOrder rewrites status and message fields without
	// touching funds. SettleOrder zeroes the custody hold, credits payee's
	// wallet and rewrites the order in the same atomic step.
	CreateOrderHold(ctx context.Context, o *market.Order) error
	UpdateOrder(ctx context.Context, o *market.Order) error
	SettleOrder(ctx context.Context, o *market.Order, payee, txnStatus string) error
	Order(ctx context.Context, id int64) (*market.Order, error)
	OrdersByBuyer(ctx context.Context, buyer string) ([]market.Order, error)
	Orders(ctx context.Context) ([]market.Order, error)

	// Custody accounting.
	CustodyHeld(ctx context.Context, orderID int64) (int64, error)
	CustodyTotal(ctx context.Context) (int64, error)

	// In-app notifications.
	CreateNotification(ctx context.Context, n *Notification) error
	NotificationsByUser(ctx context.Context, userID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
}

// orderRef is the transaction-log reference for an order's fund movements.
func orderRef(id int64) string {
	return "order:" + strconv.FormatInt(id, 10)
}
