// Package catalog owns the product listing lifecycle: create, read,
// deactivate. Listings are immutable after creation apart from the active
// flag, and are never deleted so historical orders keep resolving their
// seller and price.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/peermart/peermart/internal/ledger"
	"github.com/peermart/peermart/internal/market"
)

type Catalog struct {
	store ledger.Store
}

func New(store ledger.Store) *Catalog {
	return &Catalog{store: store}
}

// CreateListing validates input and persists a new active product with the
// next sequential id.
func (c *Catalog) CreateListing(ctx context.Context, seller, name, description string, price int64, category, imageRef string) (*market.Product, error) {
	if seller == "" || name == "" || description == "" || price <= 0 {
		return nil, market.ErrInvalidInput
	}
	p := &market.Product{
		Seller:      seller,
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		ImageRef:    imageRef,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get is the buyer-facing view: unknown and deactivated listings both read
// as not found.
func (c *Catalog) Get(ctx context.Context, id int64) (*market.Product, error) {
	p, err := c.store.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, market.ErrNotFound
	}
	return p, nil
}

// Lookup bypasses the active filter. The escrow engine and the query layer
// use it to resolve seller and price for orders on delisted products.
func (c *Catalog) Lookup(ctx context.Context, id int64) (*market.Product, error) {
	return c.store.Product(ctx, id)
}

// Deactivate withdraws a listing. Only the listing's seller may do this.
func (c *Catalog) Deactivate(ctx context.Context, id int64, caller string) error {
	p, err := c.store.Product(ctx, id)
	if err != nil {
		return err
	}
	if p.Seller != caller {
		return market.ErrUnauthorized
	}
	return c.store.SetProductActive(ctx, id, false)
}

// ListActive returns purchasable listings, optionally narrowed by category
// and a case-insensitive name/description search.
func (c *Catalog) ListActive(ctx context.Context, category, search string) ([]market.Product, error) {
	all, err := c.store.Products(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(search)
	out := make([]market.Product, 0, len(all))
	for _, p := range all {
		if !p.IsActive || p.Seller == "" {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ListBySeller returns every listing a seller has created, including
// deactivated ones, for the seller's own dashboard.
func (c *Catalog) ListBySeller(ctx context.Context, seller string) ([]market.Product, error) {
	all, err := c.store.Products(ctx)
	if err != nil {
		return nil, err
	}
	var out []market.Product
	for _, p := range all {
		if p.Seller == seller {
			out = append(out, p)
		}
	}
	return out, nil
}
