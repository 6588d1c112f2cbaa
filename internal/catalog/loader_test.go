package catalog

import (
	"context"
	"errors"
	"testing"
)

// Test doubles

type staticSource struct {
	payload []byte
	err     error
}

func (s *staticSource) Fetch(ctx context.Context) ([]byte, error) {
	return s.payload, s.err
}

type memOverrides struct {
	overrides Overrides
	loadErr   error
	saveErr   error
	saves     int
}

func (m *memOverrides) Load() (Overrides, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := Overrides{}
	for id, patch := range m.overrides {
		out[id] = patch
	}
	return out, nil
}

func (m *memOverrides) Save(o Overrides) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.overrides = o
	m.saves++
	return nil
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

const testDataset = `[
	{"id":"TE001","name":"Green Tea","price":90,"stock":19,"category":"Tea"},
	{"id":"CO001","name":"Red Cup","price":65,"stock":70,"category":"Coffee"},
	{"id":"MI001","name":"Carnation","price":25,"stock":70,"category":"Milk"}
]`

func newTestLoader(t *testing.T, overrides *memOverrides) *Loader {
	t.Helper()
	loader := NewLoader(&staticSource{payload: []byte(testDataset)}, overrides)
	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("Initial load failed: %v", err)
	}
	return loader
}

func TestLoaderLoad(t *testing.T) {
	loader := newTestLoader(t, &memOverrides{})

	if got := len(loader.Products()); got != 3 {
		t.Errorf("Product count mismatch: expected 3, got %d", got)
	}

	categories := loader.Categories()
	want := []string{"Tea", "Coffee", "Milk"}
	if len(categories) != len(want) {
		t.Fatalf("Category count mismatch: expected %d, got %d", len(want), len(categories))
	}
	for i, c := range want {
		if categories[i] != c {
			t.Errorf("Category order mismatch at %d: expected %s, got %s", i, c, categories[i])
		}
	}

	if loader.LastLoaded().IsZero() {
		t.Error("LastLoaded should be set after a successful load")
	}
}

func TestLoaderAppliesOverridesOnLoad(t *testing.T) {
	overrides := &memOverrides{overrides: Overrides{
		"TE001": {Stock: intPtr(14)},
	}}
	loader := newTestLoader(t, overrides)

	p, ok := loader.FindByID("TE001")
	if !ok {
		t.Fatal("TE001 should exist")
	}
	if p.Stock != 14 {
		t.Errorf("Override should apply on load: expected stock 14, got %d", p.Stock)
	}
}

func TestLoaderSurvivesBrokenOverrideStore(t *testing.T) {
	overrides := &memOverrides{loadErr: errors.New("store offline")}
	loader := newTestLoader(t, overrides)

	// Catalog load must not block on a failing override store.
	if got := len(loader.Products()); got != 3 {
		t.Errorf("Catalog should load without overrides, got %d products", got)
	}
}

func TestLoaderLoadUnavailable(t *testing.T) {
	t.Run("FetchError", func(t *testing.T) {
		loader := NewLoader(&staticSource{err: errors.New("connection refused")}, &memOverrides{})
		err := loader.Load(context.Background())
		if !IsDataUnavailable(err) {
			t.Errorf("Fetch failure should surface as data-unavailable, got %v", err)
		}
	})

	t.Run("KeepsLastGoodCatalog", func(t *testing.T) {
		source := &staticSource{payload: []byte(testDataset)}
		loader := NewLoader(source, &memOverrides{})
		if err := loader.Load(context.Background()); err != nil {
			t.Fatalf("Initial load failed: %v", err)
		}

		source.payload = []byte(`[]`)
		if err := loader.Load(context.Background()); !IsDataUnavailable(err) {
			t.Fatalf("Empty dataset should be unavailable, got %v", err)
		}

		if got := len(loader.Products()); got != 3 {
			t.Errorf("Failed reload should keep the last good catalog, got %d products", got)
		}
	})
}

func TestApplyOverrides(t *testing.T) {
	products := []Product{
		{ID: "A", Name: "First", Price: 10, Stock: 5},
		{ID: "B", Name: "Second", Price: 20, Stock: 8},
	}

	t.Run("PerFieldMerge", func(t *testing.T) {
		merged := ApplyOverrides(products, Overrides{
			"A": {Stock: intPtr(2), Price: floatPtr(12.5)},
		})

		if merged[0].Stock != 2 || merged[0].Price != 12.5 {
			t.Errorf("Override fields should win: got stock %d price %f", merged[0].Stock, merged[0].Price)
		}
		if merged[0].Name != "First" {
			t.Errorf("Unpatched fields should pass through, got name %s", merged[0].Name)
		}
		if merged[1] != products[1] {
			t.Error("Products without an override should pass through unchanged")
		}
	})

	t.Run("StockClampsAtZero", func(t *testing.T) {
		merged := ApplyOverrides(products, Overrides{"B": {Stock: intPtr(-3)}})
		if merged[1].Stock != 0 {
			t.Errorf("Negative override stock should clamp to 0, got %d", merged[1].Stock)
		}
	})

	t.Run("Pure", func(t *testing.T) {
		_ = ApplyOverrides(products, Overrides{"A": {Name: strPtr("Changed")}})
		if products[0].Name != "First" {
			t.Error("ApplyOverrides must not mutate its input")
		}
	})
}

func TestDecrementStockForCheckout(t *testing.T) {
	overrides := &memOverrides{}
	loader := newTestLoader(t, overrides)

	err := loader.DecrementStockForCheckout(map[string]int{
		"TE001": 5,
		"GHOST": 2, // unknown id, must be skipped without error
	})
	if err != nil {
		t.Fatalf("Decrement failed: %v", err)
	}

	patch, ok := overrides.overrides["TE001"]
	if !ok || patch.Stock == nil {
		t.Fatal("Override for TE001 should be persisted")
	}
	if *patch.Stock != 14 {
		t.Errorf("Persisted stock mismatch: expected 14, got %d", *patch.Stock)
	}
	if _, ok := overrides.overrides["GHOST"]; ok {
		t.Error("Unknown product ids must not produce overrides")
	}

	// In-memory catalog reflects the change before any reload.
	p, _ := loader.FindByID("TE001")
	if p.Stock != 14 {
		t.Errorf("In-memory stock should update immediately: expected 14, got %d", p.Stock)
	}

	t.Run("ClampsAtZero", func(t *testing.T) {
		if err := loader.DecrementStockForCheckout(map[string]int{"TE001": 99}); err != nil {
			t.Fatalf("Decrement failed: %v", err)
		}
		p, _ := loader.FindByID("TE001")
		if p.Stock != 0 {
			t.Errorf("Stock should clamp at zero, got %d", p.Stock)
		}
	})
}

func TestFilter(t *testing.T) {
	products := []Product{
		{ID: "A", Name: "Green Tea", Category: "Tea"},
		{ID: "B", Name: "Black Tea", Category: "Tea"},
		{ID: "C", Name: "Red Cup Coffee", Category: "Coffee"},
	}

	t.Run("NilCategoriesMeansAll", func(t *testing.T) {
		if got := len(Filter(products, nil, "")); got != 3 {
			t.Errorf("Expected all 3 products, got %d", got)
		}
	})

	t.Run("EmptyCategorySetMatchesNothing", func(t *testing.T) {
		if got := len(Filter(products, []string{}, "")); got != 0 {
			t.Errorf("Expected no products, got %d", got)
		}
	})

	t.Run("CategoryAndSearchCombine", func(t *testing.T) {
		got := Filter(products, []string{"Tea"}, "green")
		if len(got) != 1 || got[0].ID != "A" {
			t.Errorf("Expected only Green Tea, got %v", got)
		}
	})

	t.Run("SearchIsCaseInsensitive", func(t *testing.T) {
		got := Filter(products, nil, "RED CUP")
		if len(got) != 1 || got[0].ID != "C" {
			t.Errorf("Expected Red Cup Coffee, got %v", got)
		}
	})
}
