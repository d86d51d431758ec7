// Package cart holds the shopper's cart and favorites as explicit stores.
// Every mutation is saved through the store's Persister before it becomes
// visible; a failed save leaves the store unchanged.
package cart

import (
	"fmt"
	"sync"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Item is a cart line.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Category  string          `json:"category,omitempty"`
	Size      string          `json:"size,omitempty"`
}

// LineID identifies a line: the product id, qualified by size when present.
func (i Item) LineID() string {
	if i.Size == "" {
		return i.ID
	}
	return i.ID + ":" + i.Size
}

// LineTotal returns unit price × quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Store is a cart. The zero value is not usable; use New or Open.
type Store struct {
	mu        sync.Mutex
	items     []Item
	persister Persister[Item]
}

// New creates an empty cart. A nil persister keeps the cart in memory only.
func New(persister Persister[Item]) *Store {
	return &Store{persister: persister}
}

// Open creates a cart and loads its previous contents from persister.
// Lines with a quantity below one are restored with quantity one.
func Open(persister Persister[Item]) (*Store, error) {
	s := New(persister)
	if persister == nil {
		return s, nil
	}

	items, err := persister.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	for _, it := range items {
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		s.items = append(s.items, it)
	}
	return s, nil
}

// AddItem adds a line, or increases the quantity of an existing line with
// the same product and size. A quantity below one adds a single unit.
func (s *Store) AddItem(item Item) error {
	if item.ID == "" {
		return model.NewValidationError("cart item id is required")
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyItems()
	for i := range next {
		if next[i].LineID() == item.LineID() {
			next[i].Quantity += item.Quantity
			return s.commit(next)
		}
	}
	return s.commit(append(next, item))
}

// UpdateQuantity sets the quantity of a line, clamped to at least one.
// Removing a line requires RemoveItem.
func (s *Store) UpdateQuantity(lineID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyItems()
	for i := range next {
		if next[i].LineID() == lineID {
			next[i].Quantity = quantity
			return s.commit(next)
		}
	}
	return fmt.Errorf("cart line %q: %w", lineID, model.ErrProductNotFound)
}

// RemoveItem drops a line. Removing an absent line is a no-op.
func (s *Store) RemoveItem(lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].LineID() == lineID {
			next := make([]Item, 0, len(s.items)-1)
			next = append(next, s.items[:i]...)
			return s.commit(append(next, s.items[i+1:]...))
		}
	}
	return nil
}

// Clear empties the cart.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(nil)
}

// Items returns a copy of the cart lines.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// Subtotal is the sum of unit price × quantity over all lines.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// ItemCount is the total number of units in the cart.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, it := range s.items {
		count += it.Quantity
	}
	return count
}

// Snapshot converts the lines to order items for checkout metadata.
func (s *Store) Snapshot() []model.OrderItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.OrderItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, model.OrderItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.UnitPrice,
			Quantity: it.Quantity,
			Category: it.Category,
			Size:     it.Size,
		})
	}
	return out
}

func (s *Store) copyItems() []Item {
	return append([]Item(nil), s.items...)
}

// commit saves next and only then makes it the cart's contents. Must be
// called with s.mu held.
func (s *Store) commit(next []Item) error {
	if s.persister != nil {
		if err := s.persister.Save(next); err != nil {
			return fmt.Errorf("failed to persist cart: %w", err)
		}
	}
	s.items = next
	return nil
}
