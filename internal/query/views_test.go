package query

import (
	"context"
	"testing"

	"github.com/peermart/peermart/internal/catalog"
	"github.com/peermart/peermart/internal/escrow"
	"github.com/peermart/peermart/internal/ledger"
	"github.com/peermart/peermart/internal/market"
)

type fixture struct {
	store  *ledger.MemoryStore
	engine *escrow.Engine
	views  *Views
}

// seed builds two sellers with one listing each and one buyer holding two
// orders, one per seller, the second already completed.
func seed(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	cat := catalog.New(store)
	engine := escrow.NewEngine(store, "arbiter-1")

	for _, id := range []string{"buyer-1", "seller-1", "seller-2", "arbiter-1"} {
		if err := store.CreateUser(ctx, &market.User{ID: id, Name: id, Email: id + "@test.local", Role: "user"}); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	if err := store.Credit(ctx, "buyer-1", 10_000, "topup", "seed"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	phone, err := cat.CreateListing(ctx, "seller-1", "Phone", "a phone", 2_000, "", "")
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	watch, err := cat.CreateListing(ctx, "seller-2", "Watch", "a watch", 3_000, "", "")
	if err != nil {
		t.Fatalf("listing: %v", err)
	}

	o1, err := engine.Purchase(ctx, "buyer-1", phone.ID, "", 2_000)
	if err != nil {
		t.Fatalf("purchase phone: %v", err)
	}
	_ = o1
	o2, err := engine.Purchase(ctx, "buyer-1", watch.ID, "", 3_000)
	if err != nil {
		t.Fatalf("purchase watch: %v", err)
	}
	if err := engine.MarkShipped(ctx, o2.ID, "seller-2"); err != nil {
		t.Fatalf("ship watch: %v", err)
	}
	if err := engine.MarkCompleted(ctx, o2.ID, "buyer-1"); err != nil {
		t.Fatalf("complete watch: %v", err)
	}

	return &fixture{store: store, engine: engine, views: New(store)}
}

func TestMyOrdersResolvesSeller(t *testing.T) {
	f := seed(t)
	orders, err := f.views.MyOrders(context.Background(), "buyer-1")
	if err != nil {
		t.Fatalf("my orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	if orders[0].Seller != "seller-1" || orders[0].ProductName != "Phone" {
		t.Fatalf("first order enrichment = %q/%q", orders[0].Seller, orders[0].ProductName)
	}
	if orders[1].Seller != "seller-2" {
		t.Fatalf("second order seller = %q", orders[1].Seller)
	}
}

func TestMySalesFiltersBySeller(t *testing.T) {
	f := seed(t)
	sales, err := f.views.MySales(context.Background(), "seller-2")
	if err != nil {
		t.Fatalf("my sales: %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("sales = %d, want 1", len(sales))
	}
	if sales[0].ProductName != "Watch" || sales[0].Status != market.StatusCompleted {
		t.Fatalf("sale = %q/%s", sales[0].ProductName, sales[0].Status)
	}

	none, err := f.views.MySales(context.Background(), "buyer-1")
	if err != nil {
		t.Fatalf("my sales: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("buyer has %d sales, want 0", len(none))
	}
}

func TestOrderDetail(t *testing.T) {
	f := seed(t)
	ov, err := f.views.OrderDetail(context.Background(), 0)
	if err != nil {
		t.Fatalf("order detail: %v", err)
	}
	if ov.Seller != "seller-1" || ov.Buyer != "buyer-1" || ov.Amount != 2_000 {
		t.Fatalf("detail = %+v", ov)
	}

	if _, err := f.views.OrderDetail(context.Background(), 99); err == nil {
		t.Fatalf("unknown order returned a view")
	}
}

func TestStatsMatchCustody(t *testing.T) {
	f := seed(t)
	st, err := f.views.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Products != 2 || st.Orders != 2 {
		t.Fatalf("counts = %d products, %d orders", st.Products, st.Orders)
	}
	if st.OpenOrders != 1 || st.OpenAmount != 2_000 {
		t.Fatalf("open = %d orders, %d amount", st.OpenOrders, st.OpenAmount)
	}
	if st.CustodyHeld != st.OpenAmount {
		t.Fatalf("custody %d != open amount %d, ledger leaked funds", st.CustodyHeld, st.OpenAmount)
	}
}
