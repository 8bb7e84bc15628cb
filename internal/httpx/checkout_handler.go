package httpx

import (
	"fmt"
	"net/http"

	"github.com/ariefcatur/orial-storefront/internal/checkout"
	"github.com/ariefcatur/orial-storefront/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	Checkout *checkout.Service
	Log      *zap.Logger
}

// Register expects r to sit behind RequireOwner.
func (h *CheckoutHandler) Register(r chi.Router) {
	r.Get("/cart/checkout", h.preview)
	r.Post("/cart/checkout", h.place)
	r.Get("/cart/confirmation/{orderNumber}", h.order)
	r.Get("/account/orders", h.list)
	r.Get("/account/orders/{orderNumber}", h.order)
	r.Post("/account/orders/{orderNumber}/cancel", h.cancel)
}

func (h *CheckoutHandler) preview(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Checkout.Preview(r.Context(), Owner(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartView(sum))
}

func (h *CheckoutHandler) place(w http.ResponseWriter, r *http.Request) {
	req := checkout.Request{
		Owner: Owner(r.Context()),
		Shipping: orders.ShippingAddress{
			FullName: r.FormValue("full_name"),
			Email:    r.FormValue("email"),
			Phone:    r.FormValue("phone"),
			Address1: r.FormValue("address1"),
			Address2: r.FormValue("address2"),
			City:     r.FormValue("city"),
			Postcode: r.FormValue("postcode"),
			Country:  r.FormValue("country"),
		},
		PaymentMethod: r.FormValue("payment_method"),
		Notes:         r.FormValue("notes"),
		TraceID:       middleware.GetReqID(r.Context()),
	}
	o, err := h.Checkout.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	next := "/cart/confirmation/" + o.Number
	if !wantsJSON(r) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"order_number": o.Number,
		"total":        money(o.Total),
		"redirect":     next,
	})
}

func (h *CheckoutHandler) order(w http.ResponseWriter, r *http.Request) {
	o, err := h.Checkout.Order(r.Context(), Owner(r.Context()), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

func (h *CheckoutHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.Checkout.ListOrders(r.Context(), Owner(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out := make([]orderView, 0, len(list))
	for i := range list {
		out = append(out, toOrderView(&list[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *CheckoutHandler) cancel(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "orderNumber")
	o, err := h.Checkout.Cancel(r.Context(), Owner(r.Context()), number, middleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  o.Status,
		"message": fmt.Sprintf("Order %s has been cancelled successfully.", o.Number),
	})
}
