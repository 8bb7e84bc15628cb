package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ariefcatur/orial-storefront/internal/cart"
	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/ariefcatur/orial-storefront/internal/checkout"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/ariefcatur/orial-storefront/internal/logging"
	"github.com/ariefcatur/orial-storefront/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// money renders amounts as JSON numbers, the way the storefront scripts expect.
func money(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// quantity reads the "quantity" form field; a missing field means 1.
func quantity(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.FormValue("quantity"))
	if raw == "" {
		return 1, nil
	}
	q, err := strconv.Atoi(raw)
	if err != nil {
		return 0, cart.ErrInvalidQuantity
	}
	return q, nil
}

// writeError maps domain errors onto status codes. Unknown errors are logged
// and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		invalid  *discount.InvalidError
		statusEr *orders.StatusError
	)
	switch {
	case errors.Is(err, cart.ErrInsufficientStock):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Insufficient stock"})
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, checkout.ErrInvalidAddress):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, checkout.ErrDiscountInvalid):
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "Your discount code is no longer valid and has been removed."})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": invalid.Error()})
	case errors.Is(err, checkout.ErrEmptyCart):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Your cart is empty."})
	case errors.As(err, &statusEr):
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": statusEr.Error()})
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, orders.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		logging.OrNop(log).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
