package models

import (
	"time"

	"github.com/google/uuid"
)

// Order line fulfillment states. A line toggles between the two; there are
// no other states and no automatic expiry.
const (
	LineStatusReserved = "reserved"
	LineStatusPickedUp = "picked_up"
)

// Order is the header row for one submitted cart. UserID is the
// authenticated shopper who reserved it.
type Order struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OrderLine is the unit of per-store fulfillment tracking: one row per
// distinct product in the order, keyed by (order_id, product_id, store_id).
type OrderLine struct {
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	StoreID   uuid.UUID `json:"store_id" db:"store_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OrderLineView is an order line joined with the product and store display
// fields a store's fulfillment screen needs.
type OrderLineView struct {
	OrderLine
	ProductName  string  `json:"product_name" db:"product_name"`
	ProductImage *string `json:"product_image" db:"product_image"`
	StoreName    string  `json:"store_name" db:"store_name"`
}

// OrderLineInput is one submitted reservation line. The unit price is never
// taken from the client; it is re-read from the catalog at submission time.
type OrderLineInput struct {
	ProductID uuid.UUID `json:"product_id"`
	StoreID   uuid.UUID `json:"store_id"`
	Quantity  int       `json:"quantity"`
}
