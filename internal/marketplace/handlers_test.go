package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/peermart/peermart/internal/catalog"
	"github.com/peermart/peermart/internal/escrow"
	"github.com/peermart/peermart/internal/ledger"
	"github.com/peermart/peermart/internal/market"
	"github.com/peermart/peermart/internal/query"
)

const arbiterID = "arbiter-1"

func newHandlers(t *testing.T) (*Handlers, *ledger.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"buyer-1", "seller-1", arbiterID} {
		if err := store.CreateUser(ctx, &market.User{ID: id, Name: id, Email: id + "@test.local", Role: "user"}); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	if err := store.Credit(ctx, "buyer-1", 10_000, "topup", "seed"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	return &Handlers{
		Catalog: catalog.New(store),
		Engine:  escrow.NewEngine(store, arbiterID),
		Views:   query.New(store),
		Store:   store,
	}, store
}

// do runs a handler with the given caller identity, body and :id param,
// standing in for the JWT middleware and the router.
func do(t *testing.T, h echo.HandlerFunc, method, target, caller, body string, orderID int64) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if caller != "" {
		c.Set("user_id", caller)
	}
	if orderID >= 0 {
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatInt(orderID, 10))
	}
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func listPhone(t *testing.T, h *Handlers) *market.Product {
	t.Helper()
	p, err := h.Catalog.CreateListing(context.Background(), "seller-1", "Phone", "a phone", 2_000, "electronics", "")
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	return p
}

func TestCreateListingHandler(t *testing.T) {
	h, _ := newHandlers(t)

	rec := do(t, h.CreateListing, http.MethodPost, "/marketplace/products", "seller-1",
		`{"name":"Phone","description":"a phone","price":2000,"category":"electronics"}`, -1)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var p market.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ID != 0 || p.Seller != "seller-1" || !p.IsActive {
		t.Fatalf("product = %+v", p)
	}

	rec = do(t, h.CreateListing, http.MethodPost, "/marketplace/products", "seller-1",
		`{"name":"","description":"x","price":100}`, -1)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid listing: status = %d", rec.Code)
	}

	rec = do(t, h.CreateListing, http.MethodPost, "/marketplace/products", "",
		`{"name":"Phone","description":"a phone","price":2000}`, -1)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous listing: status = %d", rec.Code)
	}
}

func TestPurchaseHandler(t *testing.T) {
	h, store := newHandlers(t)
	p := listPhone(t, h)

	rec := do(t, h.Purchase, http.MethodPost, "/marketplace/orders", "buyer-1",
		`{"product_id":`+strconv.FormatInt(p.ID, 10)+`,"message":"leave at door","payment_amount":2000}`, -1)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var o market.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &o); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if o.Status != market.StatusPending || o.Amount != 2_000 {
		t.Fatalf("order = %+v", o)
	}
	bal, _ := store.Balance(context.Background(), "buyer-1")
	if bal != 8_000 {
		t.Fatalf("buyer balance = %d", bal)
	}

	// Wrong payment amount is a 400, not a capture.
	rec = do(t, h.Purchase, http.MethodPost, "/marketplace/orders", "buyer-1",
		`{"product_id":0,"payment_amount":1}`, -1)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatch: status = %d", rec.Code)
	}

	// Seller buying their own listing.
	rec = do(t, h.Purchase, http.MethodPost, "/marketplace/orders", "seller-1",
		`{"product_id":0,"payment_amount":2000}`, -1)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self purchase: status = %d", rec.Code)
	}

	// Unknown product is a 404.
	rec = do(t, h.Purchase, http.MethodPost, "/marketplace/orders", "buyer-1",
		`{"product_id":42,"payment_amount":2000}`, -1)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown product: status = %d", rec.Code)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	h, store := newHandlers(t)
	p := listPhone(t, h)

	o, err := h.Engine.Purchase(context.Background(), "buyer-1", p.ID, "", 2_000)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	// Buyer cannot ship.
	rec := do(t, h.Ship, http.MethodPost, "/marketplace/orders/0/ship", "buyer-1", "", o.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("buyer ship: status = %d", rec.Code)
	}

	rec = do(t, h.Ship, http.MethodPost, "/marketplace/orders/0/ship", "seller-1", "", o.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("ship: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h.Complete, http.MethodPost, "/marketplace/orders/0/complete", "buyer-1", "", o.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	bal, _ := store.Balance(context.Background(), "seller-1")
	if bal != 2_000 {
		t.Fatalf("seller balance = %d", bal)
	}

	// Completing again is a transition error, reported as 400.
	rec = do(t, h.Complete, http.MethodPost, "/marketplace/orders/0/complete", "buyer-1", "", o.ID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("double complete: status = %d", rec.Code)
	}
}

func TestDisputeAndResolveOverHTTP(t *testing.T) {
	h, store := newHandlers(t)
	p := listPhone(t, h)
	o, err := h.Engine.Purchase(context.Background(), "buyer-1", p.ID, "", 2_000)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	rec := do(t, h.Dispute, http.MethodPost, "/marketplace/orders/0/dispute", "buyer-1",
		`{"reason":"never arrived"}`, o.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("dispute: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Empty reason is rejected.
	rec = do(t, h.Dispute, http.MethodPost, "/marketplace/orders/0/dispute", "buyer-1",
		`{"reason":""}`, o.ID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty reason: status = %d", rec.Code)
	}

	// Only the configured arbiter identity may resolve.
	rec = do(t, h.ResolveDispute, http.MethodPost, "/admin/orders/0/resolve", "seller-1",
		`{"refund_buyer":true,"note":"n/a"}`, o.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-arbiter resolve: status = %d", rec.Code)
	}

	rec = do(t, h.ResolveDispute, http.MethodPost, "/admin/orders/0/resolve", arbiterID,
		`{"refund_buyer":true,"note":"no proof of shipment"}`, o.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	bal, _ := store.Balance(context.Background(), "buyer-1")
	if bal != 10_000 {
		t.Fatalf("buyer balance = %d, want full refund", bal)
	}
}

func TestGetOrderVisibility(t *testing.T) {
	h, _ := newHandlers(t)
	p := listPhone(t, h)
	o, err := h.Engine.Purchase(context.Background(), "buyer-1", p.ID, "", 2_000)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	for _, caller := range []string{"buyer-1", "seller-1", arbiterID} {
		rec := do(t, h.GetOrder, http.MethodGet, "/marketplace/orders/0", caller, "", o.ID)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s view: status = %d", caller, rec.Code)
		}
	}

	if err := h.Store.CreateUser(context.Background(), &market.User{ID: "stranger", Email: "s@test.local"}); err != nil {
		t.Fatalf("create stranger: %v", err)
	}
	rec := do(t, h.GetOrder, http.MethodGet, "/marketplace/orders/0", "stranger", "", o.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger view: status = %d", rec.Code)
	}
}

func TestGetAllProductsFilters(t *testing.T) {
	h, _ := newHandlers(t)
	listPhone(t, h)
	h.Catalog.CreateListing(context.Background(), "seller-1", "Mug", "ceramic mug", 500, "kitchen", "")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/marketplace/products?category=kitchen", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.GetAllProducts(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var resp struct {
		Products []market.Product `json:"products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Products) != 1 || resp.Products[0].Name != "Mug" {
		t.Fatalf("filtered products = %+v", resp.Products)
	}
}

func TestStatsHandler(t *testing.T) {
	h, _ := newHandlers(t)
	p := listPhone(t, h)
	if _, err := h.Engine.Purchase(context.Background(), "buyer-1", p.ID, "", 2_000); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	rec := do(t, h.Stats, http.MethodGet, "/admin/stats", arbiterID, "", -1)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status = %d", rec.Code)
	}
	var st query.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.OpenOrders != 1 || st.CustodyHeld != 2_000 {
		t.Fatalf("stats = %+v", st)
	}
}
