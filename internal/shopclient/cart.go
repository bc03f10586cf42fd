package shopclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Is-Prog22/fastandtrust/internal/catalog"
)

// CartItem is a product line in the cart.
type CartItem struct {
	catalog.Product
	Quantity int `json:"quantity"`
}

// Cart is the ordered shopping cart, written back to its file on every
// mutation and restored on open. It never talks to the backend.
type Cart struct {
	mu    sync.Mutex
	path  string
	items []CartItem
}

func OpenCart(path string) (*Cart, error) {
	c := &Cart{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	if err := json.Unmarshal(raw, &c.items); err != nil {
		return nil, fmt.Errorf("parse cart: %w", err)
	}
	return c, nil
}

// Add appends a new line with quantity 1. Adding the same product twice
// creates two independent lines; callers that want merged lines use
// SetQuantity.
func (c *Cart) Add(p catalog.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append(c.items, CartItem{Product: p, Quantity: 1})
	return c.save()
}

// Remove drops every line carrying the given product id.
func (c *Cart) Remove(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, it := range c.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	c.items = kept
	return c.save()
}

// SetQuantity updates every line with the given product id; quantities below
// one are clamped to one.
func (c *Cart) SetQuantity(id int64, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = quantity
		}
	}
	return c.save()
}

// Clear empties the cart and persists the empty state.
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = c.items[:0]
	return c.save()
}

func (c *Cart) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CartItem{}, c.items...)
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, it := range c.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

func (c *Cart) save() error {
	items := c.items
	if items == nil {
		items = []CartItem{}
	}

	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(c.path, raw)
}
