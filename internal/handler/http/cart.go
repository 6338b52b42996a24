package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/internal/service"
	"github.com/utafrali/cartql/pkg/httputil"
	"github.com/utafrali/cartql/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service  *service.CartService
	checkout *service.CheckoutService
	logger   *slog.Logger
	now      func() time.Time
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, checkout *service.CheckoutService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service:  svc,
		checkout: checkout,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// --- Request DTOs ---

// SetItemsRequest is the JSON request body for replacing all items.
type SetItemsRequest struct {
	Items []service.ItemInput `json:"items" validate:"dive"`
}

// AdjustQuantityRequest is the JSON request body for increment and decrement.
type AdjustQuantityRequest struct {
	By int `json:"by" validate:"required"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/carts/{cartId}?currency=
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	var currency *service.CurrencyInput
	if code := r.URL.Query().Get("currency"); code != "" {
		currency = &service.CurrencyInput{Code: &code}
	}

	cart, err := h.service.GetCart(r.Context(), chi.URLParam(r, "cartId"), currency)
	h.writeCart(w, r, cart, err)
}

// UpdateCart handles PATCH /api/v1/carts/{cartId}
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateCartInput
	if !decode(w, r, &req) {
		return
	}

	cart, err := h.service.UpdateCart(r.Context(), chi.URLParam(r, "cartId"), req)
	h.writeCart(w, r, cart, err)
}

// DeleteCart handles DELETE /api/v1/carts/{cartId}
func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCart(r.Context(), chi.URLParam(r, "cartId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /api/v1/carts/{cartId}/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.ItemInput
	if !decode(w, r, &req) {
		return
	}

	cart, err := h.service.AddItem(r.Context(), chi.URLParam(r, "cartId"), req)
	h.writeCart(w, r, cart, err)
}

// SetItems handles PUT /api/v1/carts/{cartId}/items
func (h *CartHandler) SetItems(w http.ResponseWriter, r *http.Request) {
	var req SetItemsRequest
	if !decode(w, r, &req) {
		return
	}

	cart, err := h.service.SetItems(r.Context(), chi.URLParam(r, "cartId"), req.Items)
	h.writeCart(w, r, cart, err)
}

// EmptyCart handles DELETE /api/v1/carts/{cartId}/items
func (h *CartHandler) EmptyCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.EmptyCart(r.Context(), chi.URLParam(r, "cartId"))
	h.writeCart(w, r, cart, err)
}

// UpdateItem handles PATCH /api/v1/carts/{cartId}/items/{itemId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateItemInput
	if !decode(w, r, &req) {
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "itemId"), req)
	h.writeCart(w, r, cart, err)
}

// RemoveItem handles DELETE /api/v1/carts/{cartId}/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "itemId"))
	h.writeCart(w, r, cart, err)
}

// IncrementItem handles POST /api/v1/carts/{cartId}/items/{itemId}/increment
func (h *CartHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	var req AdjustQuantityRequest
	if !decode(w, r, &req) {
		return
	}

	cart, err := h.service.IncrementItemQuantity(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "itemId"), req.By)
	h.writeCart(w, r, cart, err)
}

// DecrementItem handles POST /api/v1/carts/{cartId}/items/{itemId}/decrement
func (h *CartHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	var req AdjustQuantityRequest
	if !decode(w, r, &req) {
		return
	}

	cart, err := h.service.DecrementItemQuantity(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "itemId"), req.By)
	h.writeCart(w, r, cart, err)
}

// Checkout handles POST /api/v1/carts/{cartId}/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req service.CheckoutInput
	req.CartID = chi.URLParam(r, "cartId")
	if !decode(w, r, &req) {
		return
	}
	req.CartID = chi.URLParam(r, "cartId")

	order, err := h.checkout.Checkout(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: newOrderResponse(order)})
}

// --- Helpers ---

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, cart *domain.Cart, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(cart, h.now())})
}

// maxBodyBytes caps REST request bodies.
const maxBodyBytes = 1 << 20

// decode reads and validates the request body into dst. On failure it
// writes a 400 and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}
