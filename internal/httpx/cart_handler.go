package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ariefcatur/orial-storefront/internal/cart"
	"github.com/ariefcatur/orial-storefront/internal/catalog"
	"github.com/ariefcatur/orial-storefront/internal/discount"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartHandler struct {
	Cart *cart.Service
	Log  *zap.Logger
}

// Register expects r to sit behind RequireOwner.
func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.view)
	r.Get("/cart/count", h.count)
	r.Post("/cart/add/{productId}", h.add)
	r.Post("/cart/update/{lineId}", h.update)
	r.Post("/cart/remove/{lineId}", h.remove)
	r.Post("/cart/apply-coupon", h.applyCoupon)
	r.Post("/cart/remove-coupon", h.removeCoupon)
}

func (h *CartHandler) view(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Cart.Summary(r.Context(), Owner(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartView(sum))
}

func (h *CartHandler) count(w http.ResponseWriter, r *http.Request) {
	n, err := h.Cart.Count(r.Context(), Owner(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "productId")
	if !ok {
		writeError(w, r, h.Log, catalog.ErrProductNotFound)
		return
	}
	qty, err := quantity(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	res, err := h.Cart.AddItem(r.Context(), Owner(r.Context()), productID, qty)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if !wantsJSON(r) {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"cart_count": res.Count,
		"message":    fmt.Sprintf("%s added to cart!", res.Product.Name),
	})
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	lineID, ok := idParam(r, "lineId")
	if !ok {
		writeError(w, r, h.Log, cart.ErrLineNotFound)
		return
	}
	qty, err := quantity(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	res, err := h.Cart.UpdateQuantity(r.Context(), Owner(r.Context()), lineID, qty)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"subtotal":            money(res.Quote.Subtotal),
		"shipping":            money(res.Quote.Shipping),
		"discount_amount":     money(res.Quote.Discount),
		"discount_code":       res.DiscountCode,
		"total":               money(res.Quote.Total),
		"cart_count":          res.Count,
		"item_subtotal":       money(res.ItemSubtotal),
		"threshold":           money(res.Quote.Threshold),
		"actual_quantity":     res.ActualQuantity,
		"stock_limit_reached": res.StockLimitReached,
	})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	lineID, ok := idParam(r, "lineId")
	if !ok {
		writeError(w, r, h.Log, cart.ErrLineNotFound)
		return
	}
	sum, err := h.Cart.RemoveItem(r.Context(), Owner(r.Context()), lineID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"subtotal":        money(sum.Quote.Subtotal),
		"shipping":        money(sum.Quote.Shipping),
		"discount_amount": money(sum.Quote.Discount),
		"discount_code":   sum.DiscountCode,
		"total":           money(sum.Quote.Total),
		"cart_count":      sum.Count,
	})
}

// applyCoupon answers 200 either way; the storefront script reads success.
func (h *CartHandler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Cart.ApplyCoupon(r.Context(), Owner(r.Context()), r.FormValue("code"))
	var invalid *discount.InvalidError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": invalid.Error()})
		return
	case err != nil:
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"discount_amount": money(sum.Quote.Discount),
		"total":           money(sum.Quote.Total),
		"message":         fmt.Sprintf("Code %q applied! You saved Rs%s", sum.DiscountCode, sum.Quote.Discount.StringFixed(2)),
	})
}

func (h *CartHandler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.RemoveCoupon(r.Context(), Owner(r.Context())); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
