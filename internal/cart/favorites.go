package cart

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Favorite is a product the shopper bookmarked.
type Favorite struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	Image         string           `json:"image,omitempty"`
	Category      string           `json:"category,omitempty"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
}

// Favorites is the shopper's favorites list.
type Favorites struct {
	mu        sync.Mutex
	items     []Favorite
	persister Persister[Favorite]
}

// OpenFavorites loads the favorites list from persister (nil for memory only).
func OpenFavorites(persister Persister[Favorite]) (*Favorites, error) {
	f := &Favorites{persister: persister}
	if persister == nil {
		return f, nil
	}
	items, err := persister.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	f.items = items
	return f, nil
}

// IsFavorited reports whether id is in the list.
func (f *Favorites) IsFavorited(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexOf(id) >= 0
}

// Toggle adds the item when absent and removes it when present. It returns
// whether the item is a favorite afterwards.
func (f *Favorites) Toggle(item Favorite) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i := f.indexOf(item.ID); i >= 0 {
		next := make([]Favorite, 0, len(f.items)-1)
		next = append(next, f.items[:i]...)
		next = append(next, f.items[i+1:]...)
		if err := f.commit(next); err != nil {
			return true, err
		}
		return false, nil
	}

	next := append(append([]Favorite(nil), f.items...), item)
	if err := f.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes every favorite.
func (f *Favorites) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commit(nil)
}

// Items returns a copy of the list.
func (f *Favorites) Items() []Favorite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Favorite(nil), f.items...)
}

func (f *Favorites) indexOf(id string) int {
	for i, it := range f.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (f *Favorites) commit(next []Favorite) error {
	if f.persister != nil {
		if err := f.persister.Save(next); err != nil {
			return fmt.Errorf("failed to persist favorites: %w", err)
		}
	}
	f.items = next
	return nil
}
