package httpx

import (
	"net/http"

	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	Catalog catalog.Store
	Log     *zap.Logger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.ListActive(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": out})
}
