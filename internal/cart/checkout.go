package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"posbackend/internal/logger"
)

// Receipt summarizes a settled checkout.
type Receipt struct {
	Method      string          `json:"method"`
	Total       decimal.Decimal `json:"total"`
	LineCount   int             `json:"lineCount"`
	CompletedAt time.Time       `json:"completedAt"`
}

// Checkout settles the cart: compute the total, write stock decrements
// through the catalog's override mechanism, clear and persist the empty
// cart, then reload the catalog.
//
// The sequence is deliberately best-effort, not transactional: once the
// stock decrement succeeds there is no rollback, and a failed reload leaves
// the decrement and the cleared cart committed. A failed decrement aborts
// before anything is cleared, so the cart survives intact.
func (s *Store) Checkout(ctx context.Context, method string) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return Receipt{}, ErrEmptyCart
	}

	total := s.totalLocked()
	lineCount := len(s.lines)

	quantities := make(map[string]int, len(s.lines))
	for id, line := range s.lines {
		quantities[id] = line.Qty
	}

	if err := s.catalog.DecrementStockForCheckout(quantities); err != nil {
		return Receipt{}, err
	}

	s.lines = make(map[string]*Line)
	s.order = nil
	if err := s.persistLocked(); err != nil {
		// Stock is already decremented; keep going with the cleared cart.
		logger.LogError("Failed to persist cleared cart after checkout: %v", err)
	}

	if err := s.catalog.Load(ctx); err != nil {
		// Accepted inconsistency window: decrement and clear are committed.
		logger.LogError("Catalog reload after checkout failed: %v", err)
	}

	receipt := Receipt{
		Method:      method,
		Total:       total,
		LineCount:   lineCount,
		CompletedAt: time.Now(),
	}
	logger.LogInfo("Checkout settled: %d lines, total %s via %s", lineCount, total.StringFixed(2), method)
	return receipt, nil
}
