// Package query derives read-only views from the ledger. Nothing here
// mutates state or custody.
package query

import (
	"context"

	"github.com/peermart/peermart/internal/ledger"
	"github.com/peermart/peermart/internal/market"
)

// OrderView is an order enriched with the seller resolved through its
// product. Orders do not store the seller directly.
type OrderView struct {
	market.Order
	Seller      string `json:"seller"`
	ProductName string `json:"product_name,omitempty"`
}

// Stats is the arbiter's operational snapshot. CustodyHeld should always
// equal OpenAmount; a difference means the ledger has leaked funds.
type Stats struct {
	Products    int   `json:"products"`
	Orders      int   `json:"orders"`
	OpenOrders  int   `json:"open_orders"`
	OpenAmount  int64 `json:"open_amount"`
	CustodyHeld int64 `json:"custody_held"`
}

type Views struct {
	store ledger.Store
}

func New(store ledger.Store) *Views {
	return &Views{store: store}
}

// MyOrders returns every order the identity placed as buyer.
func (v *Views) MyOrders(ctx context.Context, buyer string) ([]OrderView, error) {
	orders, err := v.store.OrdersByBuyer(ctx, buyer)
	if err != nil {
		return nil, err
	}
	return v.enrich(ctx, orders, "")
}

// MySales returns every order placed against the identity's listings. The
// seller filter runs after product resolution since orders only carry the
// product id.
func (v *Views) MySales(ctx context.Context, seller string) ([]OrderView, error) {
	orders, err := v.store.Orders(ctx)
	if err != nil {
		return nil, err
	}
	return v.enrich(ctx, orders, seller)
}

// AllOrders is the unrestricted enumeration for the arbiter view.
func (v *Views) AllOrders(ctx context.Context) ([]OrderView, error) {
	orders, err := v.store.Orders(ctx)
	if err != nil {
		return nil, err
	}
	return v.enrich(ctx, orders, "")
}

// OrderDetail resolves a single order with its seller. Callers decide who
// may see it; buyer, seller and arbiter views all pass through here.
func (v *Views) OrderDetail(ctx context.Context, id int64) (*OrderView, error) {
	o, err := v.store.Order(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := v.store.Product(ctx, o.ProductID)
	if err != nil {
		return nil, err
	}
	return &OrderView{Order: *o, Seller: p.Seller, ProductName: p.Name}, nil
}

// Stats counts records and cross-checks custody against open order amounts.
func (v *Views) Stats(ctx context.Context) (*Stats, error) {
	products, err := v.store.Products(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := v.store.Orders(ctx)
	if err != nil {
		return nil, err
	}
	held, err := v.store.CustodyTotal(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{Products: len(products), Orders: len(orders), CustodyHeld: held}
	for _, o := range orders {
		if !o.Status.Terminal() {
			st.OpenOrders++
			st.OpenAmount += o.Amount
		}
	}
	return st, nil
}

// enrich resolves each order's seller via its product, keeping only orders
// whose resolved seller matches sellerFilter when it is set. Products are
// looked up once per distinct id.
func (v *Views) enrich(ctx context.Context, orders []market.Order, sellerFilter string) ([]OrderView, error) {
	products := make(map[int64]*market.Product)
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		p, ok := products[o.ProductID]
		if !ok {
			var err error
			p, err = v.store.Product(ctx, o.ProductID)
			if err != nil {
				return nil, err
			}
			products[o.ProductID] = p
		}
		if sellerFilter != "" && p.Seller != sellerFilter {
			continue
		}
		out = append(out, OrderView{Order: o, Seller: p.Seller, ProductName: p.Name})
	}
	return out, nil
}
