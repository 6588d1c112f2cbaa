package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"posbackend/internal/logger"
)

// Loader owns the normalized, override-applied product list and the
// category index derived from it. All access goes through its methods;
// nothing else holds catalog state.
type Loader struct {
	source    Source
	overrides OverrideStore

	mu         sync.RWMutex
	products   []Product
	categories []string
	lastLoaded time.Time
}

func NewLoader(source Source, overrides OverrideStore) *Loader {
	return &Loader{
		source:    source,
		overrides: overrides,
	}
}

// Load fetches the raw dataset, normalizes it, applies persisted overrides,
// and rebuilds the category index. Any failure to resolve a non-empty
// product array surfaces as ErrDataUnavailable; previously loaded products
// stay in place so the caller keeps serving the last good catalog.
func (l *Loader) Load(ctx context.Context) error {
	payload, err := l.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	records, shape, err := DecodeDataset(payload)
	if err != nil {
		return err
	}

	products := make([]Product, len(records))
	for i, raw := range records {
		products[i] = Normalize(raw)
	}

	overrides := l.loadOverrides()
	products = ApplyOverrides(products, overrides)

	l.mu.Lock()
	l.products = products
	l.categories = categoryIndex(products)
	l.lastLoaded = time.Now()
	l.mu.Unlock()

	logger.LogInfo("Catalog loaded: %d products, %d categories (%s dataset, %d overrides)",
		len(products), len(l.Categories()), shape, len(overrides))
	return nil
}

// loadOverrides reads the override store, degrading to an empty mapping on
// any failure so a broken store never blocks a catalog load.
func (l *Loader) loadOverrides() Overrides {
	overrides, err := l.overrides.Load()
	if err != nil {
		logger.LogWarn("Failed to load product overrides, continuing without: %v", err)
		return Overrides{}
	}
	if overrides == nil {
		overrides = Overrides{}
	}
	return overrides
}

// Products returns a copy of the current product list.
func (l *Loader) Products() []Product {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Product, len(l.products))
	copy(out, l.products)
	return out
}

// FindByID returns the current catalog product with the given id.
func (l *Loader) FindByID(id string) (Product, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, p := range l.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Categories returns the category index in first-seen dataset order.
func (l *Loader) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, len(l.categories))
	copy(out, l.categories)
	return out
}

// LastLoaded reports when the catalog was last (re)loaded.
func (l *Loader) LastLoaded() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastLoaded
}

// OverrideCount reports how many products carry a persisted patch.
func (l *Loader) OverrideCount() int {
	return len(l.loadOverrides())
}

// DecrementStockForCheckout writes stock decrements for the given
// productID -> quantity mapping into the override store, then re-applies
// overrides to the in-memory catalog so reads reflect the new stock without
// waiting for the full reload that follows checkout. Quantities for ids no
// longer in the catalog are skipped.
func (l *Loader) DecrementStockForCheckout(quantities map[string]int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	overrides := l.loadOverrides()

	for id, qty := range quantities {
		current, ok := findProduct(l.products, id)
		if !ok {
			logger.LogWarn("Checkout references unknown product %s, skipping stock decrement", id)
			continue
		}

		next := current.Stock - qty
		if next < 0 {
			next = 0
		}

		patch := overrides[id]
		stock := next
		patch.Stock = &stock
		overrides[id] = patch
	}

	if err := l.overrides.Save(overrides); err != nil {
		return fmt.Errorf("failed to persist stock overrides: %w", err)
	}

	l.products = ApplyOverrides(l.products, overrides)
	return nil
}

// IsDataUnavailable reports whether err is the recoverable no-catalog
// condition that should render as an error state rather than a crash.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

// Filter narrows products to the active categories and a case-insensitive
// substring match on name. Pure function of its inputs. A nil category set
// means "all categories active"; an empty non-nil set matches nothing.
func Filter(products []Product, activeCategories []string, query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))

	var active map[string]bool
	if activeCategories != nil {
		active = make(map[string]bool, len(activeCategories))
		for _, c := range activeCategories {
			active[c] = true
		}
	}

	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if active != nil && !active[p.Category] {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// categoryIndex derives the unique category set in first-seen order.
func categoryIndex(products []Product) []string {
	seen := make(map[string]bool, len(products))
	var categories []string
	for _, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return categories
}

func findProduct(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
