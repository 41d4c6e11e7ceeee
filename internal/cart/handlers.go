package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/minishop/backend-minishop/internal/common"
)

// ErrProductNotFound is returned by a ProductSource when the id is unknown.
var ErrProductNotFound = errors.New("product not found")

// ProductSource resolves a product id to its current catalog snapshot.
type ProductSource interface {
	Product(ctx context.Context, id string) (Product, error)
}

// Handler exposes the cart over HTTP. Every route requires an authenticated
// Telegram user in the request context.
type Handler struct {
	Carts    *Registry
	Products ProductSource
	Logger   zerolog.Logger
}

// Routes mounts the cart endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Delete("/cart", h.Clear)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/{productID}", h.UpdateItem)
	r.Delete("/cart/items/{productID}", h.RemoveItem)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type lineView struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Subtotal int64   `json:"subtotal"`
}

type cartView struct {
	Items      []lineView `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice int64      `json:"totalPrice"`
	IsEmpty    bool       `json:"isEmpty"`
	Haptic     string     `json:"haptic,omitempty"`
}

// Get returns the current cart with derived totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	common.JSONData(w, http.StatusOK, viewOf(store.Snapshot(), ""))
}

// AddItem adds one unit of the requested product. Unknown products are a 404,
// out-of-stock products a 409; the cart is untouched in both cases.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "productId is required", nil)
		return
	}
	if h.Products == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "catalog is not available", nil)
		return
	}
	product, err := h.Products.Product(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found", nil)
			return
		}
		h.Logger.Error().Err(err).Str("product_id", req.ProductID).Msg("product lookup failed")
		common.JSONError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "catalog is not available", nil)
		return
	}
	if !product.InStock {
		common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", "product is out of stock", nil)
		return
	}

	store.AddItem(product)
	common.JSONData(w, http.StatusOK, viewOf(store.Snapshot(), string(SignalImpactLight)))
}

// UpdateItem sets a line quantity. Zero or negative removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productID")
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "quantity is required", nil)
		return
	}

	haptic := ""
	if req.Quantity <= 0 {
		haptic = string(SignalImpactMedium)
	}
	store.UpdateQuantity(productID, req.Quantity)
	common.JSONData(w, http.StatusOK, viewOf(store.Snapshot(), haptic))
}

// RemoveItem drops a line from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.RemoveItem(chi.URLParam(r, "productID"))
	common.JSONData(w, http.StatusOK, viewOf(store.Snapshot(), string(SignalImpactMedium)))
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.Clear()
	common.JSONData(w, http.StatusOK, viewOf(store.Snapshot(), string(SignalNotifySuccess)))
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing Telegram credentials", nil)
		return nil, false
	}
	return h.Carts.Get(r.Context(), userID), true
}

func viewOf(snap Snapshot, haptic string) cartView {
	items := make([]lineView, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, lineView{Product: l.Product, Quantity: l.Quantity, Subtotal: l.Subtotal()})
	}
	return cartView{
		Items:      items,
		TotalItems: snap.TotalItems,
		TotalPrice: snap.TotalPrice,
		IsEmpty:    len(snap.Lines) == 0,
		Haptic:     haptic,
	}
}
