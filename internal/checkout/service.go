package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/minishop/backend-minishop/internal/cart"
	"github.com/minishop/backend-minishop/internal/common"
	"github.com/minishop/backend-minishop/internal/notify"
	"github.com/minishop/backend-minishop/internal/obs"
	"github.com/minishop/backend-minishop/internal/orders"
	"github.com/minishop/backend-minishop/internal/pricing"
)

const (
	DeliveryPickup  = "pickup"
	DeliveryCourier = "delivery"
)

var (
	// ErrEmptyCart means there was nothing to submit.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrBelowMinimum means the subtotal is under the configured order minimum.
	ErrBelowMinimum = errors.New("checkout: order total below minimum")
	// ErrCheckoutInFlight means another checkout for the same cart has not
	// finished yet.
	ErrCheckoutInFlight = errors.New("checkout: already in flight")
)

// CustomerInfo is the checkout form.
type CustomerInfo struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Phone        string `json:"phone" validate:"required,min=5,max=32"`
	DeliveryType string `json:"deliveryType" validate:"required,oneof=pickup delivery"`
	Address      string `json:"address" validate:"required_if=DeliveryType delivery,max=300"`
	Comment      string `json:"comment" validate:"max=500"`
}

// Result summarises an accepted order.
type Result struct {
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	Items       int    `json:"items"`
	Subtotal    int64  `json:"subtotal"`
	DeliveryFee int64  `json:"deliveryFee"`
	Total       int64  `json:"total"`
}

// Enqueuer is the slice of asynq.Client the service needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Service runs the checkout flow: validate the form, snapshot the cart,
// submit the order, and only then clear what was submitted. A failed
// submission leaves the cart exactly as it was.
type Service struct {
	Orders        orders.Submitter
	Validate      *validator.Validate
	Queue         Enqueuer
	MinOrderTotal int64
	DeliveryFee   int64
	Logger        zerolog.Logger
}

// Checkout executes the flow for one user. At most one checkout per cart may
// be in flight; concurrent calls fail fast with ErrCheckoutInFlight.
func (s *Service) Checkout(ctx context.Context, userID int64, store *cart.Store, info CustomerInfo) (Result, error) {
	if err := s.validateInfo(info); err != nil {
		obs.ObserveCheckout("invalid")
		return Result{}, err
	}

	if !store.BeginCheckout() {
		obs.ObserveCheckout("in_flight")
		return Result{}, ErrCheckoutInFlight
	}
	defer store.EndCheckout()

	snap := store.Snapshot()
	if len(snap.Lines) == 0 {
		obs.ObserveCheckout("invalid")
		return Result{}, ErrEmptyCart
	}

	var deliveryFee int64
	if info.DeliveryType == DeliveryCourier {
		deliveryFee = s.DeliveryFee
	}
	items := make([]pricing.Item, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, pricing.Item{Qty: l.Quantity, UnitPrice: l.Product.Price})
	}
	summary := pricing.Compute(items, deliveryFee)

	if summary.Subtotal < s.MinOrderTotal {
		obs.ObserveCheckout("invalid")
		return Result{}, ErrBelowMinimum
	}

	payload := orders.Payload{
		UserID:      userID,
		Items:       orderItems(snap.Lines),
		Customer:    orders.Customer(info),
		Subtotal:    summary.Subtotal,
		DeliveryFee: summary.Delivery,
		Total:       summary.Total,
	}

	ack, err := s.Orders.Submit(ctx, payload)
	if err != nil {
		obs.ObserveCheckout("rejected")
		s.Logger.Warn().Err(err).Int64("tg_user_id", userID).Msg("order submission failed, cart left intact")
		return Result{}, err
	}

	store.RemoveSubmitted(snap)
	obs.ObserveCheckout("accepted")
	s.Logger.Info().
		Str("order_id", ack.ID).
		Int64("tg_user_id", userID).
		Int64("total", summary.Total).
		Msg("order accepted")

	s.enqueueConfirmation(ctx, ack.ID, userID, snap, summary)

	return Result{
		OrderID:     ack.ID,
		Status:      ack.Status,
		Items:       snap.TotalItems,
		Subtotal:    summary.Subtotal,
		DeliveryFee: summary.Delivery,
		Total:       summary.Total,
	}, nil
}

func (s *Service) validateInfo(info CustomerInfo) error {
	if s.Validate == nil {
		return nil
	}
	err := s.Validate.Struct(info)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	details := map[string]any{}
	if errors.As(err, &fields) {
		for _, f := range fields {
			details[f.Field()] = f.Tag()
		}
	}
	return &common.AppError{
		Code:       "VALIDATION",
		Message:    "checkout form is invalid",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
		Details:    details,
	}
}

func (s *Service) enqueueConfirmation(ctx context.Context, orderID string, userID int64, snap cart.Snapshot, summary pricing.Summary) {
	if s.Queue == nil {
		return
	}
	items := make([]notify.OrderCreatedItem, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, notify.OrderCreatedItem{Name: l.Product.Name, Quantity: l.Quantity, Subtotal: l.Subtotal()})
	}
	task, err := notify.NewOrderCreatedTask(notify.OrderCreatedPayload{
		OrderID:     orderID,
		UserID:      userID,
		Items:       items,
		Subtotal:    summary.Subtotal,
		DeliveryFee: summary.Delivery,
		Total:       summary.Total,
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("order_id", orderID).Msg("confirmation task build failed")
		return
	}
	if _, err := s.Queue.EnqueueContext(ctx, task); err != nil {
		// the order is already accepted, confirmation is best-effort
		s.Logger.Warn().Err(err).Str("order_id", orderID).Msg("confirmation enqueue failed")
	}
}

func orderItems(lines []cart.Line) []orders.Item {
	items := make([]orders.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, orders.Item{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
		})
	}
	return items
}
