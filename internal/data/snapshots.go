package data

import (
	"errors"

	"posbackend/internal/cart"
	"posbackend/internal/catalog"
	"posbackend/internal/logger"
)

// OverrideStorage persists the product override mapping as one JSON
// snapshot under OverridesKey. Implements catalog.OverrideStore.
type OverrideStorage struct{}

// Load reads the override mapping. A corrupt snapshot is the named
// recovery path: log it, reset to an empty mapping, and report no error so
// catalog loads never block on a broken blob.
func (OverrideStorage) Load() (catalog.Overrides, error) {
	var overrides catalog.Overrides
	found, err := GetJSON(OverridesKey, &overrides)
	if errors.Is(err, ErrStorageCorrupt) {
		logger.LogWarn("Override snapshot is corrupt, resetting to empty: %v", err)
		return catalog.Overrides{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !found || overrides == nil {
		return catalog.Overrides{}, nil
	}
	return overrides, nil
}

func (OverrideStorage) Save(overrides catalog.Overrides) error {
	return PutJSON(OverridesKey, overrides)
}

// CartStorage persists the cart as one JSON snapshot under CartKey.
// Implements cart.Storage.
type CartStorage struct{}

// LoadCart reads the persisted cart. Same recovery rule as overrides: a
// snapshot that fails to decode resets to an empty cart, logged, no error.
func (CartStorage) LoadCart() ([]cart.PersistedLine, error) {
	var lines []cart.PersistedLine
	found, err := GetJSON(CartKey, &lines)
	if errors.Is(err, ErrStorageCorrupt) {
		logger.LogWarn("Cart snapshot is corrupt, resetting to empty: %v", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return lines, nil
}

func (CartStorage) SaveCart(lines []cart.PersistedLine) error {
	return PutJSON(CartKey, lines)
}
