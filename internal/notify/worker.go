package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/minishop/backend-minishop/internal/telegram"
)

// Worker consumes notification tasks and delivers them through the bot.
type Worker struct {
	Notifier telegram.Notifier
	Logger   zerolog.Logger
}

// Register binds the worker's handlers onto mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeOrderCreated, w.HandleOrderCreated)
}

// HandleOrderCreated sends the order confirmation message to the buyer.
func (w *Worker) HandleOrderCreated(ctx context.Context, task *asynq.Task) error {
	var p OrderCreatedPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		// broken payloads never become deliverable, do not retry
		w.Logger.Error().Err(err).Msg("order created payload unreadable")
		return fmt.Errorf("notify: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	text := FormatOrderCreated(p)
	if err := w.Notifier.SendMessage(ctx, p.UserID, text); err != nil {
		w.Logger.Warn().Err(err).Str("order_id", p.OrderID).Msg("order confirmation delivery failed")
		return err
	}
	w.Logger.Info().Str("order_id", p.OrderID).Int64("tg_user_id", p.UserID).Msg("order confirmation sent")
	return nil
}

// FormatOrderCreated renders the confirmation message body.
func FormatOrderCreated(p OrderCreatedPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Order <b>%s</b> accepted!\n\n", p.OrderID)
	for _, item := range p.Items {
		fmt.Fprintf(&b, "• %s ×%d — %d\n", item.Name, item.Quantity, item.Subtotal)
	}
	if p.DeliveryFee > 0 {
		fmt.Fprintf(&b, "\nDelivery: %d", p.DeliveryFee)
	}
	fmt.Fprintf(&b, "\nTotal: <b>%d</b>", p.Total)
	return b.String()
}
