// Package cart is the client-side reservation basket: a pure, serializable
// aggregate that accumulates candidate order lines before submission. It is
// display-only state — prices and names here are snapshots, and the server
// reprices every line from the catalog when the cart is submitted.
package cart

import (
	"encoding/json"

	"localmart/internal/models"

	"github.com/google/uuid"
)

// Line is one candidate order line with its display snapshot.
type Line struct {
	ProductID uuid.UUID `json:"product_id"`
	StoreID   uuid.UUID `json:"store_id"`
	Quantity  int       `json:"quantity"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ImageURL  string    `json:"image_url"`
}

type Cart struct {
	Lines []Line `json:"lines"`
}

func New() *Cart {
	return &Cart{}
}

// Add merges by product id: a repeat add bumps the existing line's quantity
// instead of appending a duplicate line. A non-positive quantity counts as 1.
func (c *Cart) Add(line Line) {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == line.ProductID {
			c.Lines[i].Quantity += line.Quantity
			return
		}
	}
	c.Lines = append(c.Lines, line)
}

// RemoveOrDecrement lowers the line's quantity by one and drops the line
// entirely when it reaches zero. Unknown product ids are ignored.
func (c *Cart) RemoveOrDecrement(productID uuid.UUID) {
	for i := range c.Lines {
		if c.Lines[i].ProductID != productID {
			continue
		}
		c.Lines[i].Quantity--
		if c.Lines[i].Quantity <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		}
		return
	}
}

// Total sums price times quantity across all lines. Display only.
func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.Lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

// Clear empties the cart, typically after a successful submission.
func (c *Cart) Clear() {
	c.Lines = nil
}

// ToOrderInput converts the cart to the submission payload. Only ids and
// quantities cross the boundary; the display snapshot stays client-side.
func (c *Cart) ToOrderInput() []models.OrderLineInput {
	inputs := make([]models.OrderLineInput, 0, len(c.Lines))
	for _, line := range c.Lines {
		inputs = append(inputs, models.OrderLineInput{
			ProductID: line.ProductID,
			StoreID:   line.StoreID,
			Quantity:  line.Quantity,
		})
	}
	return inputs
}

// Storage is the save/load boundary the cart persists through, mirroring
// browser local storage keyed by a fixed name.
type Storage interface {
	Save(data []byte) error
	Load() ([]byte, error)
}

func (c *Cart) Save(s Storage) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.Save(data)
}

// Load restores a cart from storage. Absent or empty storage yields an
// empty cart rather than an error.
func Load(s Storage) (*Cart, error) {
	data, err := s.Load()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return New(), nil
	}
	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// MemoryStorage is an in-process Storage, used by tests and as the default
// when no durable backend is wired.
type MemoryStorage struct {
	data []byte
}

func (m *MemoryStorage) Save(data []byte) error {
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) Load() ([]byte, error) {
	return m.data, nil
}
