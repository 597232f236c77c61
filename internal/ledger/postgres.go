package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peermart/peermart/internal/market"
)

// PostgresStore is the production ledger. Every composite fund move runs in
// a single transaction with the wallet row locked, so a crash can never
// leave a debit without its matching custody hold or release.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping is used by the readiness probe.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *market.User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO users (id, name, email, password, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.Password, u.Role, u.CreatedAt,
	); err != nil {
		return market.ErrInvalidInput
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO wallets (user_id, balance) VALUES ($1, 0)`, u.ID,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) UserByID(ctx context.Context, id string) (*market.User, error) {
	return s.scanUser(ctx, `SELECT id, name, email, password, role, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*market.User, error) {
	return s.scanUser(ctx, `SELECT id, name, email, password, role, created_at FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) scanUser(ctx context.Context, query string, arg any) (*market.User, error) {
	var u market.User
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, market.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := s.pool.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, market.ErrNotFound
	}
	return balance, err
}

func (s *PostgresStore) Credit(ctx context.Context, userID string, amount int64, status, reference string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1 WHERE user_id = $2`, amount, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	if err := insertTxn(ctx, tx, userID, amount, "credit", status, reference); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) TransactionsByUser(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, amount, type, status, reference, created_at
		 FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Status, &t.Reference, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p *market.Product) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO products (id, seller, name, description, price, category, image_ref, is_active, created_at)
		 VALUES (nextval('product_ids'), $1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		p.Seller, p.Name, p.Description, p.Price, p.Category, p.ImageRef, p.IsActive, p.CreatedAt,
	).Scan(&p.ID)
}

func (s *PostgresStore) Product(ctx context.Context, id int64) (*market.Product, error) {
	var p market.Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, seller, name, description, price, category, image_ref, is_active, created_at
		 FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Seller, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageRef, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, market.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) SetProductActive(ctx context.Context, id int64, active bool) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE products SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Products(ctx context.Context) ([]market.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, seller, name, description, price, category, image_ref, is_active, created_at
		 FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Product
	for rows.Next() {
		var p market.Product
		if err := rows.Scan(&p.ID, &p.Seller, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageRef, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateOrderHold(ctx context.Context, o *market.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`, o.Buyer).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.ErrNotFound
	}
	if err != nil {
		return err
	}
	if balance < o.Amount {
		return market.ErrInsufficientFunds
	}

	if err := tx.QueryRow(ctx, `SELECT nextval('order_ids')`).Scan(&o.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance - $1 WHERE user_id = $2`, o.Amount, o.Buyer); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO orders (id, product_id, buyer, amount, status, buyer_message, resolution_note, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.ProductID, o.Buyer, o.Amount, o.Status, o.BuyerMessage, o.ResolutionNote, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO custody (order_id, amount) VALUES ($1, $2)`, o.ID, o.Amount); err != nil {
		return err
	}
	if err := insertTxn(ctx, tx, o.Buyer, o.Amount, "debit", "escrow_hold", orderRef(o.ID)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) UpdateOrder(ctx context.Context, o *market.Order) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE orders SET status = $1, buyer_message = $2, resolution_note = $3, updated_at = $4 WHERE id = $5`,
		o.Status, o.BuyerMessage, o.ResolutionNote, o.UpdatedAt, o.ID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SettleOrder(ctx context.Context, o *market.Order, payee, txnStatus string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var held int64
	err = tx.QueryRow(ctx,
		`SELECT amount FROM custody WHERE order_id = $1 FOR UPDATE`, o.ID).Scan(&held)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.ErrCustodyMismatch
	}
	if err != nil {
		return err
	}
	if held != o.Amount {
		return market.ErrCustodyMismatch
	}

	if _, err := tx.Exec(ctx, `DELETE FROM custody WHERE order_id = $1`, o.ID); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1 WHERE user_id = $2`, o.Amount, payee)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1, buyer_message = $2, resolution_note = $3, updated_at = $4 WHERE id = $5`,
		o.Status, o.BuyerMessage, o.ResolutionNote, o.UpdatedAt, o.ID); err != nil {
		return err
	}
	if err := insertTxn(ctx, tx, payee, o.Amount, "credit", txnStatus, orderRef(o.ID)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Order(ctx context.Context, id int64) (*market.Order, error) {
	var o market.Order
	err := s.pool.QueryRow(ctx,
		`SELECT id, product_id, buyer, amount, status, buyer_message, resolution_note, created_at, updated_at
		 FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.ProductID, &o.Buyer, &o.Amount, &o.Status, &o.BuyerMessage, &o.ResolutionNote, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, market.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStore) OrdersByBuyer(ctx context.Context, buyer string) ([]market.Order, error) {
	return s.scanOrders(ctx,
		`SELECT id, product_id, buyer, amount, status, buyer_message, resolution_note, created_at, updated_at
		 FROM orders WHERE buyer = $1 ORDER BY id`, buyer)
}

func (s *PostgresStore) Orders(ctx context.Context) ([]market.Order, error) {
	return s.scanOrders(ctx,
		`SELECT id, product_id, buyer, amount, status, buyer_message, resolution_note, created_at, updated_at
		 FROM orders ORDER BY id`)
}

func (s *PostgresStore) scanOrders(ctx context.Context, query string, args ...any) ([]market.Order, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Order
	for rows.Next() {
		var o market.Order
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Buyer, &o.Amount, &o.Status, &o.BuyerMessage, &o.ResolutionNote, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CustodyHeld(ctx context.Context, orderID int64) (int64, error) {
	var held int64
	err := s.pool.QueryRow(ctx,
		`SELECT amount FROM custody WHERE order_id = $1`, orderID).Scan(&held)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return held, err
}

func (s *PostgresStore) CustodyTotal(ctx context.Context) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM custody`).Scan(&total)
	return total, err
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, type, title, body, reference, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, n.Reference, n.CreatedAt)
	return err
}

func (s *PostgresStore) NotificationsByUser(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, type, title, body, reference, created_at, read_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Reference, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE id = $1 AND user_id = $2 AND read_at IS NULL`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func insertTxn(ctx context.Context, tx pgx.Tx, userID string, amount int64, typ, status, reference string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, amount, type, status, reference, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), userID, amount, typ, status, reference, time.Now())
	return err
}
