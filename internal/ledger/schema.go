package ledger

import "context"

// ensureSchema creates every table the ledger needs if it is missing.
// Statements are idempotent so startup is safe against an existing database.
// Product and order ids come from dedicated sequences that start at 0 and
// only ever move forward; ids are never reused.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS product_ids MINVALUE 0 START WITH 0`,
		`CREATE SEQUENCE IF NOT EXISTS order_ids MINVALUE 0 START WITH 0`,
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user','arbiter')),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id BIGINT PRIMARY KEY,
			seller UUID NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			price BIGINT NOT NULL CHECK (price > 0),
			category TEXT NOT NULL DEFAULT '',
			image_ref TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id),
			buyer UUID NOT NULL REFERENCES users(id),
			amount BIGINT NOT NULL CHECK (amount > 0),
			status TEXT NOT NULL CHECK (status IN (
				'pending','shipped','completed','cancelled','disputed','resolved'
			)),
			buyer_message TEXT NOT NULL DEFAULT '',
			resolution_note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS custody (
			order_id BIGINT PRIMARY KEY REFERENCES orders(id),
			amount BIGINT NOT NULL CHECK (amount > 0)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			amount BIGINT NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('debit','credit')),
			status TEXT NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			read_at TIMESTAMP WITH TIME ZONE NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer)`,
		`CREATE INDEX IF NOT EXISTS idx_products_seller ON products(seller)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
