package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/grocerycalc/backend/internal/domain"
)

// Cart holds scanned line items in first-confirmed-first order.
//
// Lines merge by product name, not by id or barcode: two distinct products
// sharing a name end up on one line. Cart is not safe for concurrent use;
// Session serialises access.
type Cart struct {
	lines []domain.CartLineItem
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) indexOf(name string) int {
	for i := range c.lines {
		if c.lines[i].Name == name {
			return i
		}
	}
	return -1
}

// Confirm adds a product. An existing line with the same name gets its
// quantity bumped and keeps its original price snapshot.
func (c *Cart) Confirm(product domain.Product) {
	if i := c.indexOf(product.Name); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, domain.CartLineItem{
		Name:     product.Name,
		Price:    product.Price,
		Quantity: 1,
	})
}

// Increment raises the quantity of the named line by one
func (c *Cart) Increment(name string) error {
	i := c.indexOf(name)
	if i < 0 {
		return domain.ErrLineNotFound
	}
	c.lines[i].Quantity++
	return nil
}

// Decrement lowers the quantity of the named line by one, never below 1.
// Removal is only done through Remove.
func (c *Cart) Decrement(name string) error {
	i := c.indexOf(name)
	if i < 0 {
		return domain.ErrLineNotFound
	}
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
	}
	return nil
}

// Remove deletes the named line
func (c *Cart) Remove(name string) error {
	i := c.indexOf(name)
	if i < 0 {
		return domain.ErrLineNotFound
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return nil
}

// Lines returns a copy of the current line items
func (c *Cart) Lines() []domain.CartLineItem {
	out := make([]domain.CartLineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of line items
func (c *Cart) Len() int {
	return len(c.lines)
}

// MasterTotal sums price x quantity over all lines. Not rounded.
func (c *Cart) MasterTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}
