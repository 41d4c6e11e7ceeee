package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/minishop/backend-minishop/internal/notify"
)

type capturingNotifier struct {
	chatID int64
	text   string
	err    error
}

func (n *capturingNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	n.chatID = chatID
	n.text = text
	return n.err
}

func samplePayload() notify.OrderCreatedPayload {
	return notify.OrderCreatedPayload{
		OrderID: "ord_123",
		UserID:  42,
		Items: []notify.OrderCreatedItem{
			{Name: "Oil Filter", Quantity: 2, Subtotal: 2000},
			{Name: "Engine Oil", Quantity: 1, Subtotal: 500},
		},
		Subtotal:    2500,
		DeliveryFee: 300,
		Total:       2800,
	}
}

func TestHandleOrderCreatedSendsMessage(t *testing.T) {
	notifier := &capturingNotifier{}
	w := &notify.Worker{Notifier: notifier, Logger: zerolog.Nop()}

	task, err := notify.NewOrderCreatedTask(samplePayload())
	require.NoError(t, err)

	require.NoError(t, w.HandleOrderCreated(context.Background(), task))
	require.Equal(t, int64(42), notifier.chatID)
	require.Contains(t, notifier.text, "ord_123")
	require.Contains(t, notifier.text, "Oil Filter")
	require.Contains(t, notifier.text, "2800")
}

func TestHandleOrderCreatedPropagatesDeliveryError(t *testing.T) {
	notifier := &capturingNotifier{err: errors.New("bot api down")}
	w := &notify.Worker{Notifier: notifier, Logger: zerolog.Nop()}

	task, err := notify.NewOrderCreatedTask(samplePayload())
	require.NoError(t, err)

	require.Error(t, w.HandleOrderCreated(context.Background(), task))
}

func TestHandleOrderCreatedSkipsRetryOnBrokenPayload(t *testing.T) {
	w := &notify.Worker{Notifier: &capturingNotifier{}, Logger: zerolog.Nop()}

	task := asynq.NewTask(notify.TypeOrderCreated, []byte("not json"))
	err := w.HandleOrderCreated(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestFormatOrderCreatedOmitsZeroDelivery(t *testing.T) {
	p := samplePayload()
	p.DeliveryFee = 0
	text := notify.FormatOrderCreated(p)
	require.NotContains(t, text, "Delivery")
}
