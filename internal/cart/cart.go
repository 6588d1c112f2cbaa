package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"posbackend/internal/catalog"
	"posbackend/internal/logger"
)

// ErrEmptyCart is returned by Checkout when there is nothing to settle.
var ErrEmptyCart = errors.New("cart is empty")

// OutOfStockError reports an attempted quantity that exceeds the product's
// stock ceiling. The cart is left unmodified when this is returned.
type OutOfStockError struct {
	ProductID string
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s has only %d in stock", e.ProductID, e.Available)
}

// Line pairs a product snapshot (taken when the line was first added) with
// a quantity. Invariant: Qty > 0 while the line exists, and Qty never
// exceeds the snapshot's stock ceiling at commit time.
type Line struct {
	Product catalog.Product `json:"product"`
	Qty     int             `json:"qty"`
}

// PersistedLine is the wire form of one cart entry in the stored snapshot:
// an array of {id, product, qty} under a fixed key, overwritten wholesale
// on every mutation.
type PersistedLine struct {
	ID      string          `json:"id"`
	Product catalog.Product `json:"product"`
	Qty     int             `json:"qty"`
}

// Storage persists the full cart snapshot. Implementations recover a
// corrupt snapshot by returning an empty cart, not an error.
type Storage interface {
	LoadCart() ([]PersistedLine, error)
	SaveCart([]PersistedLine) error
}

// Catalog is the slice of the catalog loader checkout needs.
type Catalog interface {
	DecrementStockForCheckout(quantities map[string]int) error
	Load(ctx context.Context) error
}

// Store owns the in-memory cart mapping and enforces the stock ceiling on
// every mutation. Line order is preserved for display.
type Store struct {
	mu      sync.Mutex
	lines   map[string]*Line
	order   []string
	storage Storage
	catalog Catalog
}

func NewStore(storage Storage, cat Catalog) *Store {
	return &Store{
		lines:   make(map[string]*Line),
		storage: storage,
		catalog: cat,
	}
}

// Restore loads the persisted cart once at startup. Any failure resets to
// an empty cart rather than surfacing an error.
func (s *Store) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = make(map[string]*Line)
	s.order = nil

	persisted, err := s.storage.LoadCart()
	if err != nil {
		logger.LogWarn("Failed to restore cart, starting empty: %v", err)
		return
	}

	for _, entry := range persisted {
		if entry.Qty <= 0 {
			continue
		}
		if _, exists := s.lines[entry.ID]; exists {
			continue
		}
		s.lines[entry.ID] = &Line{Product: entry.Product, Qty: entry.Qty}
		s.order = append(s.order, entry.ID)
	}

	if len(s.lines) > 0 {
		logger.LogInfo("Restored cart with %d lines", len(s.lines))
	}
}

// Add applies a quantity delta for a product. A delta that would push the
// quantity past the product's stock is rejected with *OutOfStockError and
// the cart stays untouched. A resulting quantity of zero or below removes
// the line. Every successful mutation persists the whole cart.
func (s *Store) Add(product catalog.Product, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0
	if line, ok := s.lines[product.ID]; ok {
		current = line.Qty
	}

	newQty := current + delta
	if newQty > product.Stock {
		return &OutOfStockError{ProductID: product.ID, Available: product.Stock}
	}
	if newQty < 0 {
		newQty = 0
	}

	if newQty == 0 {
		s.removeLocked(product.ID)
	} else if line, ok := s.lines[product.ID]; ok {
		// Keep the snapshot taken when the line was first added.
		line.Qty = newQty
	} else {
		s.lines[product.ID] = &Line{Product: product, Qty: newQty}
		s.order = append(s.order, product.ID)
	}

	return s.persistLocked()
}

// SetQuantity replaces a line's quantity from a direct edit. Unlike Add,
// a request above the stock ceiling is clamped down rather than rejected,
// and the clamp is reported so the caller can reflect the corrected value.
// Zero or negative requests remove the line. Returns the applied quantity.
func (s *Store) SetQuantity(productID string, requested int) (applied int, clamped bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.lines[productID]
	if !ok {
		return 0, false, nil
	}

	if requested > line.Product.Stock {
		requested = line.Product.Stock
		clamped = true
	}
	if requested < 0 {
		requested = 0
	}

	if requested == 0 {
		s.removeLocked(productID)
	} else {
		line.Qty = requested
	}

	return requested, clamped, s.persistLocked()
}

// Remove deletes a line unconditionally and persists.
func (s *Store) Remove(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(productID)
	return s.persistLocked()
}

// Lines returns the cart lines in display order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesLocked()
}

// Len reports the number of lines in the cart.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Total sums price*qty over all lines with exact decimal arithmetic, so
// repeated additions stay correct to the cent.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Store) totalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, id := range s.order {
		line := s.lines[id]
		price := decimal.NewFromFloat(line.Product.Price)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return total
}

func (s *Store) linesLocked() []Line {
	out := make([]Line, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.lines[id])
	}
	return out
}

func (s *Store) removeLocked(productID string) {
	if _, ok := s.lines[productID]; !ok {
		return
	}
	delete(s.lines, productID)
	for i, id := range s.order {
		if id == productID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) persistLocked() error {
	snapshot := make([]PersistedLine, 0, len(s.order))
	for _, id := range s.order {
		line := s.lines[id]
		snapshot = append(snapshot, PersistedLine{ID: id, Product: line.Product, Qty: line.Qty})
	}

	if err := s.storage.SaveCart(snapshot); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}
