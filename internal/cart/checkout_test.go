package cart

import (
	"context"
	"errors"
	"testing"

	"posbackend/internal/catalog"
)

func TestCheckoutEmptyCart(t *testing.T) {
	store, storage, cat := newTestStore()

	_, err := store.Checkout(context.Background(), "cash")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("Expected ErrEmptyCart, got %v", err)
	}
	if storage.saves != 0 || cat.decremented != nil {
		t.Error("Empty checkout must not touch storage or stock")
	}
}

func TestCheckoutSettlesCart(t *testing.T) {
	store, storage, cat := newTestStore()
	if err := store.Add(tea, 5); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(coffee, 2); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	receipt, err := store.Checkout(context.Background(), "qrcode")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	if receipt.Method != "qrcode" {
		t.Errorf("Method mismatch: got %s", receipt.Method)
	}
	if got := receipt.Total.StringFixed(2); got != "580.00" {
		t.Errorf("Receipt total mismatch: expected 580.00, got %s", got)
	}
	if receipt.LineCount != 2 {
		t.Errorf("LineCount mismatch: expected 2, got %d", receipt.LineCount)
	}
	if receipt.CompletedAt.IsZero() {
		t.Error("CompletedAt should be set")
	}

	if cat.decremented["TE001"] != 5 || cat.decremented["CO001"] != 2 {
		t.Errorf("Decrement quantities mismatch: %v", cat.decremented)
	}
	if store.Len() != 0 {
		t.Error("Cart should be empty after checkout")
	}
	if len(storage.snapshot) != 0 {
		t.Errorf("Persisted cart should be cleared, got %v", storage.snapshot)
	}
	if cat.loads != 1 {
		t.Errorf("Catalog should reload once after checkout, got %d", cat.loads)
	}
}

func TestCheckoutAbortsWhenDecrementFails(t *testing.T) {
	store, storage, cat := newTestStore()
	cat.decrementErr = errors.New("override store unavailable")

	if err := store.Add(tea, 3); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	savesBefore := storage.saves

	_, err := store.Checkout(context.Background(), "cash")
	if err == nil {
		t.Fatal("Checkout should fail when the stock decrement fails")
	}

	// Nothing after the decrement may run: cart intact, no clear persisted.
	if store.Len() != 1 {
		t.Errorf("Cart should survive a failed checkout, got %d lines", store.Len())
	}
	if storage.saves != savesBefore {
		t.Error("Failed checkout must not persist anything")
	}
	if cat.loads != 0 {
		t.Error("Failed checkout must not reload the catalog")
	}
}

func TestCheckoutCommitsPastReloadFailure(t *testing.T) {
	store, _, cat := newTestStore()
	cat.loadErr = errors.New("dataset gone")

	if err := store.Add(tea, 1); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	receipt, err := store.Checkout(context.Background(), "cash")
	if err != nil {
		t.Fatalf("Reload failure must not fail the checkout: %v", err)
	}
	if receipt.LineCount != 1 || store.Len() != 0 {
		t.Error("Checkout should commit despite the failed reload")
	}
}

// End-to-end register flow against a real catalog loader: add within stock,
// reject over stock, settle, and observe the decrement survive a reload.
func TestCheckoutEndToEnd(t *testing.T) {
	source := &staticCatalogSource{payload: []byte(`[{"id":"TE001","name":"Green Tea","price":90,"stock":19,"category":"Tea"}]`)}
	overrides := &memOverrideStore{}
	loader := catalog.NewLoader(source, overrides)
	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Catalog load failed: %v", err)
	}

	store := NewStore(&memStorage{}, loader)

	product, ok := loader.FindByID("TE001")
	if !ok {
		t.Fatal("TE001 should exist")
	}
	if err := store.Add(product, 5); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if got := store.Total().StringFixed(2); got != "450.00" {
		t.Fatalf("Total mismatch: expected 450.00, got %s", got)
	}

	var oos *OutOfStockError
	if err := store.Add(product, 20); !errors.As(err, &oos) {
		t.Fatalf("Over-stock add should be rejected, got %v", err)
	}

	receipt, err := store.Checkout(context.Background(), "cash")
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if got := receipt.Total.StringFixed(2); got != "450.00" {
		t.Errorf("Receipt total mismatch: expected 450.00, got %s", got)
	}

	patch, ok := overrides.overrides["TE001"]
	if !ok || patch.Stock == nil || *patch.Stock != 14 {
		t.Fatalf("Override store should hold stock 14 for TE001, got %+v", patch)
	}
	if store.Len() != 0 {
		t.Error("Cart should be empty after checkout")
	}

	// Reload from the unchanged dataset: the persisted override wins.
	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	reloaded, _ := loader.FindByID("TE001")
	if reloaded.Stock != 14 {
		t.Errorf("Reloaded stock mismatch: expected 14, got %d", reloaded.Stock)
	}
}

// Catalog-side doubles for the end-to-end test.

type staticCatalogSource struct {
	payload []byte
}

func (s *staticCatalogSource) Fetch(ctx context.Context) ([]byte, error) {
	return s.payload, nil
}

type memOverrideStore struct {
	overrides catalog.Overrides
}

func (m *memOverrideStore) Load() (catalog.Overrides, error) {
	return m.overrides, nil
}

func (m *memOverrideStore) Save(o catalog.Overrides) error {
	m.overrides = o
	return nil
}
