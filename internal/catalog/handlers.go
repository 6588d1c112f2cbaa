package catalog

import (
	"net/http"
	"strings"

	"posbackend/internal/middleware"
)

// Handler serves the product grid's read endpoints.
type Handler struct {
	Loader *Loader
}

func NewHandler(loader *Loader) *Handler {
	return &Handler{Loader: loader}
}

// ListProducts returns the catalog filtered by the active category set and
// a case-insensitive name search.
//
// Query params: q (substring search), categories (comma-separated; absent
// means all categories, present-but-empty means none).
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Only GET requests are supported", "")
		return
	}

	query := r.URL.Query().Get("q")

	var active []string
	if raw, ok := r.URL.Query()["categories"]; ok {
		active = []string{}
		for _, chunk := range raw {
			for _, c := range strings.Split(chunk, ",") {
				if c = strings.TrimSpace(c); c != "" {
					active = append(active, c)
				}
			}
		}
	}

	products := Filter(h.Loader.Products(), active, query)
	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// ListCategories returns the category index in dataset order.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Only GET requests are supported", "")
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"categories": h.Loader.Categories(),
	})
}

// Reload refreshes the catalog from its source. A source that cannot
// produce a non-empty product array answers 503 with an error state; the
// previously loaded catalog keeps serving.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Only POST requests are supported", "")
		return
	}

	if err := h.Loader.Load(r.Context()); err != nil {
		if IsDataUnavailable(err) {
			middleware.WriteAPIError(w, r, http.StatusServiceUnavailable, "data_unavailable",
				"Product data could not be loaded", err.Error())
			return
		}
		middleware.WriteAPIError(w, r, http.StatusInternalServerError, "reload_failed",
			"Catalog reload failed", err.Error())
		return
	}

	middleware.WriteAPISuccess(w, r, map[string]interface{}{
		"products":   len(h.Loader.Products()),
		"categories": h.Loader.Categories(),
	})
}
