package market

import "time"

// Product is a marketplace listing. All descriptive fields are fixed at
// listing time; there is no edit operation. Deactivated products stay on
// record so historical orders can still resolve their seller and price.
type Product struct {
	ID          int64     `json:"id"`
	Seller      string    `json:"seller"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"` // base units
	Category    string    `json:"category,omitempty"`
	ImageRef    string    `json:"image_ref,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Order records a purchase. Amount is the exact value captured into custody
// at purchase time; later price changes never affect an open order. The
// seller is not stored here, it is resolved through ProductID.
type Order struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"product_id"`
	Buyer          string    `json:"buyer"`
	Amount         int64     `json:"amount"` // base units
	Status         Status    `json:"status"`
	BuyerMessage   string    `json:"buyer_message,omitempty"`
	ResolutionNote string    `json:"resolution_note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// User is an account that can buy, sell, and (for exactly one configured
// identity) arbitrate disputes.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"` // user | arbiter
	CreatedAt time.Time `json:"created_at"`
}
