package cart

import (
	"errors"

	"github.com/kasirhub/backend-pos/internal/billing"
	"github.com/kasirhub/backend-pos/internal/catalog"
)

// ErrUnknownItem is returned when an item id is not present in the menu.
var ErrUnknownItem = errors.New("unknown menu item")

// Lookup resolves menu items by id. *catalog.Snapshot satisfies it.
type Lookup interface {
	Lookup(id string) (catalog.Item, bool)
}

// Entry is one item's selection state within a cart snapshot.
type Entry struct {
	Item catalog.Item `json:"item"`
	Qty  int          `json:"qty"`
}

// Cart holds the selected quantities for one in-progress order. Entries keep
// the insertion order of their first add so line ordering is stable across
// reads. A quantity never drops below 1; removing the last unit deletes the
// entry. Cart is not safe for concurrent use; the owning session serialises
// access.
type Cart struct {
	menu  Lookup
	order []string
	qty   map[string]int
}

// New returns an empty cart validating item ids against the provided menu.
func New(menu Lookup) *Cart {
	return &Cart{menu: menu, qty: make(map[string]int)}
}

// AddItem increments the quantity for the item, creating the entry at 1 when
// absent. Ids not present in the menu fail with ErrUnknownItem and leave the
// cart unchanged.
func (c *Cart) AddItem(itemID string) error {
	if c.menu == nil {
		return errors.New("cart menu not configured")
	}
	if _, ok := c.menu.Lookup(itemID); !ok {
		return ErrUnknownItem
	}
	if _, exists := c.qty[itemID]; !exists {
		c.order = append(c.order, itemID)
	}
	c.qty[itemID]++
	return nil
}

// RemoveOne decrements the quantity by one, deleting the entry when it
// reaches zero. Absent ids are a no-op so duplicate clicks are harmless.
func (c *Cart) RemoveOne(itemID string) {
	current, exists := c.qty[itemID]
	if !exists {
		return
	}
	if current <= 1 {
		c.drop(itemID)
		return
	}
	c.qty[itemID] = current - 1
}

// RemoveAll deletes the entry regardless of quantity. No-op when absent.
func (c *Cart) RemoveAll(itemID string) {
	if _, exists := c.qty[itemID]; !exists {
		return
	}
	c.drop(itemID)
}

// Clear removes every entry, used at order submission or cancellation.
func (c *Cart) Clear() {
	c.order = c.order[:0]
	c.qty = make(map[string]int)
}

// Len returns the number of distinct entries.
func (c *Cart) Len() int {
	return len(c.qty)
}

// Quantity returns the selected quantity for an item, zero when absent.
func (c *Cart) Quantity(itemID string) int {
	return c.qty[itemID]
}

// Entries returns a detached snapshot in first-add order. Mutating the cart
// afterwards does not affect a previously obtained snapshot.
func (c *Cart) Entries() []Entry {
	entries := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		qty, exists := c.qty[id]
		if !exists {
			continue
		}
		item, ok := c.menu.Lookup(id)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Item: item, Qty: qty})
	}
	return entries
}

// Lines maps the cart contents into billing input.
func (c *Cart) Lines() []billing.Line {
	entries := c.Entries()
	lines := make([]billing.Line, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, billing.Line{Qty: e.Qty, UnitPrice: e.Item.UnitPrice})
	}
	return lines
}

func (c *Cart) drop(itemID string) {
	delete(c.qty, itemID)
	for i, id := range c.order {
		if id == itemID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
