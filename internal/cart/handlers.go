package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"posbackend/internal/catalog"
	"posbackend/internal/middleware"
)

// Handler serves the cart endpoints. Add looks products up in the live
// catalog; quantity edits work off the line's stored snapshot.
type Handler struct {
	Store  *Store
	Loader *catalog.Loader
}

func NewHandler(store *Store, loader *catalog.Loader) *Handler {
	return &Handler{Store: store, Loader: loader}
}

type cartLinePayload struct {
	ID      string          `json:"id"`
	Product catalog.Product `json:"product"`
	Qty     int             `json:"qty"`
}

type cartPayload struct {
	Items []cartLinePayload `json:"items"`
	Total string            `json:"total"`
}

func (h *Handler) cartPayload() cartPayload {
	lines := h.Store.Lines()
	items := make([]cartLinePayload, 0, len(lines))
	for _, line := range lines {
		items = append(items, cartLinePayload{ID: line.Product.ID, Product: line.Product, Qty: line.Qty})
	}
	return cartPayload{Items: items, Total: h.Store.Total().StringFixed(2)}
}

// GetCart returns the line list and total.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Only GET requests are supported", "")
		return
	}
	middleware.WriteAPISuccess(w, r, h.cartPayload())
}

// AddItem applies a quantity delta for a catalog product. Exceeding the
// stock ceiling rejects the whole operation and reports the available
// quantity.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Only POST requests are supported", "")
		return
	}

	var req struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}
	if req.ProductID == "" {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "missing_product_id", "productId is required", "")
		return
	}

	product, ok := h.Loader.FindByID(req.ProductID)
	if !ok {
		middleware.WriteAPIError(w, r, http.StatusNotFound, "unknown_product",
			"Product not found in catalog", req.ProductID)
		return
	}

	if err := h.Store.Add(product, req.Qty); err != nil {
		var oos *OutOfStockError
		if errors.As(err, &oos) {
			middleware.WriteAPIError(w, r, http.StatusConflict, "out_of_stock",
				fmt.Sprintf("Only %d in stock", oos.Available), oos.ProductID)
			return
		}
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "cart_update_failed",
			"Failed to update cart", err.Error())
		return
	}

	middleware.WriteAPISuccess(w, r, h.cartPayload())
}

// SetQuantity handles direct quantity-input edits. Values above the stock
// ceiling clamp down (reported via "clamped" so the client can correct the
// input); non-numeric input counts as zero, which removes the line.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Only POST requests are supported", "")
		return
	}

	var req struct {
		ProductID string          `json:"productId"`
		Qty       json.RawMessage `json:"qty"`
	}
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}
	if req.ProductID == "" {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "missing_product_id", "productId is required", "")
		return
	}

	applied, clamped, err := h.Store.SetQuantity(req.ProductID, normalizeQty(req.Qty))
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "cart_update_failed",
			"Failed to update cart", err.Error())
		return
	}

	payload := h.cartPayload()
	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"qty":     applied,
		"clamped": clamped,
		"cart":    payload,
	})
}

// RemoveItem deletes a line unconditionally.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Only POST requests are supported", "")
		return
	}

	var req struct {
		ProductID string `json:"productId"`
	}
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	if err := h.Store.Remove(req.ProductID); err != nil {
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "cart_update_failed",
			"Failed to update cart", err.Error())
		return
	}

	middleware.WriteAPISuccess(w, r, h.cartPayload())
}

// normalizeQty coerces a quantity-input value the way the register UI
// does: numbers pass through, strings keep their digit characters only,
// and anything unparseable counts as zero.
func normalizeQty(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return int(asNumber)
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return 0
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, asString)

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
