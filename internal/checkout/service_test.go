package checkout_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/minishop/backend-minishop/internal/cart"
	"github.com/minishop/backend-minishop/internal/checkout"
	"github.com/minishop/backend-minishop/internal/common"
	"github.com/minishop/backend-minishop/internal/obs"
	"github.com/minishop/backend-minishop/internal/orders"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []orders.Payload
	ack      orders.Ack
	err      error
	entered  chan struct{}
	block    chan struct{}
}

func (f *fakeSubmitter) Submit(_ context.Context, p orders.Payload) (orders.Ack, error) {
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	f.mu.Unlock()
	if f.err != nil {
		return orders.Ack{}, f.err
	}
	return f.ack, nil
}

func (f *fakeSubmitter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func newService(submitter orders.Submitter) *checkout.Service {
	return &checkout.Service{
		Orders:      submitter,
		Validate:    validator.New(),
		DeliveryFee: 300,
		Logger:      zerolog.Nop(),
	}
}

func newCartStore() *cart.Store {
	return cart.NewStore(context.Background(), cart.StoreConfig{UserID: 42, Key: "cart:42", Logger: zerolog.Nop()})
}

func pickupInfo() checkout.CustomerInfo {
	return checkout.CustomerInfo{
		Name:         "Ivan",
		Phone:        "+79990000000",
		DeliveryType: "pickup",
	}
}

func fill(store *cart.Store) {
	store.AddItem(cart.Product{ID: "p1", Name: "Oil Filter", Price: 1000, InStock: true})
	store.AddItem(cart.Product{ID: "p1", Name: "Oil Filter", Price: 1000, InStock: true})
	store.AddItem(cart.Product{ID: "p2", Name: "Engine Oil", Price: 500, InStock: true})
}

func TestCheckoutSuccessClearsCart(t *testing.T) {
	submitter := &fakeSubmitter{ack: orders.Ack{ID: "ord_1", Status: "accepted"}}
	svc := newService(submitter)
	store := newCartStore()
	fill(store)

	result, err := svc.Checkout(context.Background(), 42, store, pickupInfo())
	require.NoError(t, err)
	require.Equal(t, "ord_1", result.OrderID)
	require.Equal(t, 3, result.Items)
	require.Equal(t, int64(2500), result.Subtotal)
	require.Equal(t, int64(0), result.DeliveryFee)
	require.Equal(t, int64(2500), result.Total)
	require.True(t, store.IsEmpty())

	require.Equal(t, 1, submitter.calls())
	payload := submitter.payloads[0]
	require.Equal(t, int64(42), payload.UserID)
	require.Len(t, payload.Items, 2)
	require.Equal(t, int64(2500), payload.Total)
}

func TestCheckoutDeliveryAddsFee(t *testing.T) {
	submitter := &fakeSubmitter{ack: orders.Ack{ID: "ord_2", Status: "accepted"}}
	svc := newService(submitter)
	store := newCartStore()
	fill(store)

	info := checkout.CustomerInfo{
		Name:         "Ivan",
		Phone:        "+79990000000",
		DeliveryType: "delivery",
		Address:      "Lenina 1",
	}
	result, err := svc.Checkout(context.Background(), 42, store, info)
	require.NoError(t, err)
	require.Equal(t, int64(300), result.DeliveryFee)
	require.Equal(t, int64(2800), result.Total)
}

func TestCheckoutFailureLeavesCartIntact(t *testing.T) {
	submitter := &fakeSubmitter{err: orders.ErrUnavailable}
	svc := newService(submitter)
	store := newCartStore()
	fill(store)

	_, err := svc.Checkout(context.Background(), 42, store, pickupInfo())
	require.ErrorIs(t, err, orders.ErrUnavailable)

	require.Equal(t, 3, store.TotalItems())
	require.Equal(t, int64(2500), store.TotalPrice())
	require.Len(t, store.Lines(), 2)
}

func TestCheckoutRejectionLeavesCartIntact(t *testing.T) {
	submitter := &fakeSubmitter{err: orders.ErrRejected}
	svc := newService(submitter)
	store := newCartStore()
	fill(store)

	_, err := svc.Checkout(context.Background(), 42, store, pickupInfo())
	require.ErrorIs(t, err, orders.ErrRejected)
	require.False(t, store.IsEmpty())
}

func TestCheckoutEmptyCart(t *testing.T) {
	submitter := &fakeSubmitter{}
	svc := newService(submitter)

	_, err := svc.Checkout(context.Background(), 42, newCartStore(), pickupInfo())
	require.ErrorIs(t, err, checkout.ErrEmptyCart)
	require.Equal(t, 0, submitter.calls())
}

func TestCheckoutBelowMinimum(t *testing.T) {
	submitter := &fakeSubmitter{}
	svc := newService(submitter)
	svc.MinOrderTotal = 10000
	store := newCartStore()
	fill(store)

	_, err := svc.Checkout(context.Background(), 42, store, pickupInfo())
	require.ErrorIs(t, err, checkout.ErrBelowMinimum)
	require.Equal(t, 0, submitter.calls())
	require.False(t, store.IsEmpty())
}

func TestCheckoutValidation(t *testing.T) {
	submitter := &fakeSubmitter{}
	svc := newService(submitter)
	store := newCartStore()
	fill(store)

	cases := []checkout.CustomerInfo{
		{},
		{Name: "Ivan", DeliveryType: "pickup"},
		{Name: "Ivan", Phone: "+79990000000", DeliveryType: "teleport"},
		{Name: "Ivan", Phone: "+79990000000", DeliveryType: "delivery"},
	}
	for _, info := range cases {
		_, err := svc.Checkout(context.Background(), 42, store, info)
		require.Error(t, err)

		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, "VALIDATION", appErr.Code)
	}
	require.Equal(t, 0, submitter.calls())
	require.False(t, store.IsEmpty())
}

func TestCheckoutSingleFlight(t *testing.T) {
	obs.MustRegisterDomainMetrics("minishop_test", prometheus.NewRegistry())
	entered := make(chan struct{})
	block := make(chan struct{})
	submitter := &fakeSubmitter{ack: orders.Ack{ID: "ord_1", Status: "accepted"}, entered: entered, block: block}
	svc := newService(submitter)
	store := newCartStore()
	fill(store)

	inFlightBefore := testutil.ToFloat64(obs.CheckoutTotal.WithLabelValues("in_flight"))
	invalidBefore := testutil.ToFloat64(obs.CheckoutTotal.WithLabelValues("invalid"))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Checkout(context.Background(), 42, store, pickupInfo())
		done <- err
	}()

	// second attempt while the first is blocked inside Submit
	<-entered
	_, err := svc.Checkout(context.Background(), 42, store, pickupInfo())
	require.ErrorIs(t, err, checkout.ErrCheckoutInFlight)

	close(block)
	require.NoError(t, <-done)
	require.Equal(t, 1, submitter.calls())

	// the rejected concurrent attempt counts as in_flight, not invalid
	require.Equal(t, inFlightBefore+1, testutil.ToFloat64(obs.CheckoutTotal.WithLabelValues("in_flight")))
	require.Equal(t, invalidBefore, testutil.ToFloat64(obs.CheckoutTotal.WithLabelValues("invalid")))
}

func TestCheckoutClearsOnlySubmittedQuantities(t *testing.T) {
	entered := make(chan struct{})
	block := make(chan struct{})
	submitter := &fakeSubmitter{ack: orders.Ack{ID: "ord_1", Status: "accepted"}, entered: entered, block: block}
	svc := newService(submitter)
	store := newCartStore()
	fill(store)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Checkout(context.Background(), 42, store, pickupInfo())
		done <- err
	}()

	// items added while the order is on the wire survive the clear
	<-entered
	store.AddItem(cart.Product{ID: "p3", Name: "Brake Pad", Price: 2000, InStock: true})
	close(block)
	require.NoError(t, <-done)

	require.True(t, store.HasItem("p3"))
	require.False(t, store.HasItem("p1"))
	require.False(t, store.HasItem("p2"))
}
