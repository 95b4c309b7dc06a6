package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	StoreID     uuid.UUID  `json:"store_id" db:"store_id"`
	CategoryID  *uuid.UUID `json:"category_id" db:"category_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Price       float64    `json:"price" db:"price"`
	Quantity    int        `json:"quantity" db:"quantity"`
	ImageURL    *string    `json:"image_url" db:"image_url"`
	ViewCount   int64      `json:"view_count" db:"view_count"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// ProductUpdate carries the mutable fields for a product update. Ownership
// is checked against the store principal before the write is applied.
type ProductUpdate struct {
	Name        string     `json:"name"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Quantity    int        `json:"quantity"`
	ImageURL    *string    `json:"image_url"`
}
