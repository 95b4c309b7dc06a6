package models

import "github.com/google/uuid"

// ProductSize is one per-size stock row for a product. A row with an empty
// size label or a non-positive quantity is logically absent and gets pruned.
type ProductSize struct {
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Size      string    `json:"size" db:"size"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// SizeInput is one submitted size row. Invalid rows (empty size, quantity
// below zero) are skipped during upsert rather than rejected.
type SizeInput struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}
