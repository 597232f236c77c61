package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/peermart/peermart/internal/market"
)

// MemoryStore keeps the whole ledger in process. It backs tests and local
// runs without Postgres. Product and order ids are monotonic counters
// starting at 0; ids are never reused.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*market.User
	emails        map[string]string // email -> user id
	wallets       map[string]int64
	custody       map[int64]int64 // order id -> held amount
	products      map[int64]*market.Product
	orders        map[int64]*market.Order
	transactions  []Transaction
	notifications []Notification
	nextProductID int64
	nextOrderID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*market.User),
		emails:   make(map[string]string),
		wallets:  make(map[string]int64),
		custody:  make(map[int64]int64),
		products: make(map[int64]*market.Product),
		orders:   make(map[int64]*market.Order),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *market.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.emails[u.Email]; exists {
		return market.ErrInvalidInput
	}
	cp := *u
	s.users[u.ID] = &cp
	s.emails[u.Email] = u.ID
	s.wallets[u.ID] = 0
	return nil
}

func (s *MemoryStore) UserByID(ctx context.Context, id string) (*market.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (*market.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *MemoryStore) Balance(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bal, ok := s.wallets[userID]
	if !ok {
		return 0, market.ErrNotFound
	}
	return bal, nil
}

func (s *MemoryStore) Credit(ctx context.Context, userID string, amount int64, status, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[userID]; !ok {
		return market.ErrNotFound
	}
	s.wallets[userID] += amount
	s.logTxn(userID, amount, "credit", status, reference)
	return nil
}

func (s *MemoryStore) TransactionsByUser(ctx context.Context, userID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateProduct(ctx context.Context, p *market.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextProductID
	s.nextProductID++
	cp := *p
	s.products[cp.ID] = &cp
	return nil
}

func (s *MemoryStore) Product(ctx context.Context, id int64) (*market.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) SetProductActive(ctx context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return market.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (s *MemoryStore) Products(ctx context.Context) ([]market.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]market.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateOrderHold(ctx context.Context, o *market.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.wallets[o.Buyer]
	if !ok {
		return market.ErrNotFound
	}
	if bal < o.Amount {
		return market.ErrInsufficientFunds
	}
	o.ID = s.nextOrderID
	s.nextOrderID++
	s.wallets[o.Buyer] = bal - o.Amount
	s.custody[o.ID] = o.Amount
	cp := *o
	s.orders[cp.ID] = &cp
	s.logTxn(o.Buyer, o.Amount, "debit", "escrow_hold", orderRef(o.ID))
	return nil
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, o *market.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return market.ErrNotFound
	}
	cp := *o
	s.orders[cp.ID] = &cp
	return nil
}

func (s *MemoryStore) SettleOrder(ctx context.Context, o *market.Order, payee, txnStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return market.ErrNotFound
	}
	if s.custody[o.ID] != o.Amount {
		return market.ErrCustodyMismatch
	}
	if _, ok := s.wallets[payee]; !ok {
		return market.ErrNotFound
	}
	delete(s.custody, o.ID)
	s.wallets[payee] += o.Amount
	cp := *o
	s.orders[cp.ID] = &cp
	s.logTxn(payee, o.Amount, "credit", txnStatus, orderRef(o.ID))
	return nil
}

func (s *MemoryStore) Order(ctx context.Context, id int64) (*market.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *MemoryStore) OrdersByBuyer(ctx context.Context, buyer string) ([]market.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []market.Order
	for _, o := range s.orders {
		if o.Buyer == buyer {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Orders(ctx context.Context) ([]market.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]market.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CustodyHeld(ctx context.Context, orderID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custody[orderID], nil
}

func (s *MemoryStore) CustodyTotal(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, held := range s.custody {
		total += held
	}
	return total, nil
}

func (s *MemoryStore) CreateNotification(ctx context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *MemoryStore) NotificationsByUser(ctx context.Context, userID string) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
			now := time.Now().UTC()
			s.notifications[i].ReadAt = &now
			return nil
		}
	}
	return market.ErrNotFound
}

// logTxn appends an audit row. Callers hold s.mu.
func (s *MemoryStore) logTxn(userID string, amount int64, typ, status, reference string) {
	s.transactions = append(s.transactions, Transaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    amount,
		Type:      typ,
		Status:    status,
		Reference: reference,
		CreatedAt: time.Now().UTC(),
	})
}
