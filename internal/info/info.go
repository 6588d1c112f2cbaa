// internal/info/info.go
package info

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"posbackend/internal/cart"
	"posbackend/internal/catalog"
	"posbackend/internal/data"
	"posbackend/internal/logger"
	"posbackend/internal/middleware"
)

// Handler serves a JSON status page for the register: catalog freshness,
// override and cart counts, and process uptime.
type Handler struct {
	Loader    *catalog.Loader
	Cart      *cart.Store
	StartedAt time.Time
}

func NewHandler(loader *catalog.Loader, store *cart.Store) *Handler {
	return &Handler{Loader: loader, Cart: store, StartedAt: time.Now()}
}

type statusPayload struct {
	Products       int    `json:"products"`
	Categories     int    `json:"categories"`
	CatalogLoaded  string `json:"catalogLoaded"`
	StockOverrides int    `json:"stockOverrides"`
	CartLines      int    `json:"cartLines"`
	CartTotal      string `json:"cartTotal"`
	Snapshots      int    `json:"snapshots"`
	Uptime         string `json:"uptime"`
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.WriteAPIError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
			"Only GET requests are supported", "")
		return
	}

	snapshots, err := data.SnapshotCount()
	if err != nil {
		logger.LogWarn("Failed to count snapshots for status page: %v", err)
	}

	loaded := "never"
	if t := h.Loader.LastLoaded(); !t.IsZero() {
		loaded = humanize.Time(t)
	}

	middleware.WriteAPISuccess(w, r, statusPayload{
		Products:       len(h.Loader.Products()),
		Categories:     len(h.Loader.Categories()),
		CatalogLoaded:  loaded,
		StockOverrides: h.Loader.OverrideCount(),
		CartLines:      h.Cart.Len(),
		CartTotal:      h.Cart.Total().StringFixed(2),
		Snapshots:      snapshots,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
	})
}
