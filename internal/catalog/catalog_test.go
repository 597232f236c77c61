package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/peermart/peermart/internal/ledger"
	"github.com/peermart/peermart/internal/market"
)

func newCatalog() *Catalog {
	return New(ledger.NewMemoryStore())
}

func TestCreateListingValidation(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	cases := []struct {
		name        string
		seller      string
		pname       string
		description string
		price       int64
	}{
		{"empty seller", "", "Phone", "desc", 100},
		{"empty name", "seller-1", "", "desc", 100},
		{"empty description", "seller-1", "Phone", "", 100},
		{"zero price", "seller-1", "Phone", "desc", 0},
		{"negative price", "seller-1", "Phone", "desc", -5},
	}
	for _, tc := range cases {
		_, err := c.CreateListing(ctx, tc.seller, tc.pname, tc.description, tc.price, "", "")
		if !errors.Is(err, market.ErrInvalidInput) {
			t.Fatalf("%s: err = %v, want ErrInvalidInput", tc.name, err)
		}
	}
}

func TestListingIDsStartAtZero(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()
	p0, err := c.CreateListing(ctx, "seller-1", "Phone", "a phone", 2_000, "electronics", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p1, err := c.CreateListing(ctx, "seller-1", "Watch", "a watch", 3_000, "electronics", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p0.ID != 0 || p1.ID != 1 {
		t.Fatalf("ids = %d, %d; want 0, 1", p0.ID, p1.ID)
	}
}

func TestGetHidesDeactivated(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()
	p, _ := c.CreateListing(ctx, "seller-1", "Phone", "a phone", 2_000, "", "")

	if _, err := c.Get(ctx, p.ID); err != nil {
		t.Fatalf("get active: %v", err)
	}
	if err := c.Deactivate(ctx, p.ID, "seller-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := c.Get(ctx, p.ID); !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("get deactivated: err = %v, want ErrNotFound", err)
	}
	// Lookup still resolves it for settlement paths.
	got, err := c.Lookup(ctx, p.ID)
	if err != nil {
		t.Fatalf("lookup deactivated: %v", err)
	}
	if got.IsActive {
		t.Fatalf("lookup returned active product after deactivation")
	}
}

func TestDeactivateSellerOnly(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()
	p, _ := c.CreateListing(ctx, "seller-1", "Phone", "a phone", 2_000, "", "")

	if err := c.Deactivate(ctx, p.ID, "someone-else"); !errors.Is(err, market.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if err := c.Deactivate(ctx, 42, "seller-1"); !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestListActiveFilters(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()
	c.CreateListing(ctx, "seller-1", "Phone", "a smart phone", 2_000, "electronics", "")
	c.CreateListing(ctx, "seller-1", "Mug", "ceramic coffee mug", 500, "kitchen", "")
	withdrawn, _ := c.CreateListing(ctx, "seller-2", "Watch", "a watch", 3_000, "electronics", "")
	c.Deactivate(ctx, withdrawn.ID, "seller-2")

	all, err := c.ListActive(ctx, "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("active listings = %d, want 2", len(all))
	}

	electronics, _ := c.ListActive(ctx, "electronics", "")
	if len(electronics) != 1 || electronics[0].Name != "Phone" {
		t.Fatalf("category filter returned %v", electronics)
	}

	// Search is case-insensitive over name and description.
	byName, _ := c.ListActive(ctx, "", "PHONE")
	if len(byName) != 1 {
		t.Fatalf("name search returned %d results", len(byName))
	}
	byDesc, _ := c.ListActive(ctx, "", "coffee")
	if len(byDesc) != 1 || byDesc[0].Name != "Mug" {
		t.Fatalf("description search returned %v", byDesc)
	}
	none, _ := c.ListActive(ctx, "", "bicycle")
	if len(none) != 0 {
		t.Fatalf("miss search returned %d results", len(none))
	}
}

func TestListBySellerIncludesDeactivated(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()
	c.CreateListing(ctx, "seller-1", "Phone", "a phone", 2_000, "", "")
	p, _ := c.CreateListing(ctx, "seller-1", "Watch", "a watch", 3_000, "", "")
	c.Deactivate(ctx, p.ID, "seller-1")
	c.CreateListing(ctx, "seller-2", "Mug", "a mug", 500, "", "")

	mine, err := c.ListBySeller(ctx, "seller-1")
	if err != nil {
		t.Fatalf("list by seller: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("seller-1 listings = %d, want 2 including deactivated", len(mine))
	}
}
