package payment

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"posbackend/internal/cart"
	"posbackend/internal/middleware"
)

// Handler drives checkout: validate the payment method (and cash tender),
// then settle the cart.
type Handler struct {
	Cart *cart.Store
}

func NewHandler(store *cart.Store) *Handler {
	return &Handler{Cart: store}
}

type checkoutRequest struct {
	Method   string   `json:"method"`
	Tendered *float64 `json:"tendered,omitempty"`
}

type checkoutResponse struct {
	Method    string `json:"method"`
	Total     string `json:"total"`
	Change    string `json:"change,omitempty"`
	Message   string `json:"message"`
	LineCount int    `json:"lineCount"`
}

// Checkout settles the current cart. Cash requires a tendered amount at
// least covering the total; QR settles directly. An empty cart is rejected
// before any state changes.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Only POST requests are supported", "")
		return
	}

	var req checkoutRequest
	if err := middleware.ParseJSONRequest(r, &req); err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	method, err := ParseMethod(req.Method)
	if err != nil {
		middleware.WriteAPIError(w, r, http.StatusBadRequest, "invalid_method", err.Error(), "")
		return
	}

	var change decimal.Decimal
	if method == MethodCash {
		tendered := decimal.Zero
		if req.Tendered != nil {
			tendered = decimal.NewFromFloat(*req.Tendered)
		}

		change, err = ValidateCashTender(tendered, h.Cart.Total())
		if err != nil {
			var short *InsufficientTenderError
			if errors.As(err, &short) {
				middleware.WriteAPIError(w, r, http.StatusBadRequest, "insufficient_cash",
					short.Error(), short.Required.StringFixed(2))
				return
			}
			middleware.WriteAPIError(w, r, http.StatusInternalServerError, "checkout_failed", err.Error(), "")
			return
		}
	}

	receipt, err := h.Cart.Checkout(r.Context(), string(method))
	if err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			middleware.WriteAPIError(w, r, http.StatusConflict, "empty_cart",
				"No items in the cart", "")
			return
		}
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "checkout_failed",
			"Checkout could not be completed", err.Error())
		return
	}

	resp := checkoutResponse{
		Method:    string(method),
		Total:     receipt.Total.StringFixed(2),
		Message:   ReceiptMessage(method, receipt.Total),
		LineCount: receipt.LineCount,
	}
	if method == MethodCash {
		resp.Change = change.StringFixed(2)
	}

	middleware.WriteAPISuccess(w, r, resp)
}
