package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/minishop/backend-minishop/internal/cart"
	"github.com/minishop/backend-minishop/internal/common"
	"github.com/minishop/backend-minishop/internal/orders"
)

// Handler exposes checkout over HTTP.
type Handler struct {
	Carts   *cart.Registry
	Service *Service
	Logger  zerolog.Logger
}

// Routes mounts the checkout endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/checkout", h.Checkout)
}

type checkoutResponse struct {
	Result
	Haptic string `json:"haptic"`
}

// Checkout handles POST /checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing Telegram credentials", nil)
		return
	}

	var info CustomerInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "request body must be valid JSON", nil)
		return
	}

	store := h.Carts.Get(r.Context(), userID)
	result, err := h.Service.Checkout(r.Context(), userID, store, info)
	if err != nil {
		h.writeError(w, err)
		return
	}

	common.JSONData(w, http.StatusCreated, checkoutResponse{Result: result, Haptic: string(cart.SignalNotifySuccess)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart is empty", nil)
	case errors.Is(err, ErrBelowMinimum):
		common.JSONError(w, http.StatusUnprocessableEntity, "BELOW_MINIMUM", "order total is below the minimum", nil)
	case errors.Is(err, ErrCheckoutInFlight):
		common.JSONError(w, http.StatusConflict, "CHECKOUT_IN_FLIGHT", "a checkout is already in progress", nil)
	case errors.Is(err, orders.ErrRejected):
		common.JSONError(w, http.StatusUnprocessableEntity, "ORDER_REJECTED", err.Error(), nil)
	case errors.Is(err, orders.ErrUnavailable):
		common.JSONError(w, http.StatusBadGateway, "ORDER_SERVICE_UNAVAILABLE", "order service is unavailable, try again", nil)
	default:
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			status := appErr.HTTPStatus
			if status == 0 {
				status = http.StatusInternalServerError
			}
			common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		h.Logger.Error().Err(err).Msg("checkout failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
