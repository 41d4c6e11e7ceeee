package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeOrderCreated is the queue task emitted after a successful checkout.
const TypeOrderCreated = "notify:order_created"

// OrderCreatedItem is one line of the confirmation message.
type OrderCreatedItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Subtotal int64  `json:"subtotal"`
}

// OrderCreatedPayload carries everything the worker needs to confirm an order.
type OrderCreatedPayload struct {
	OrderID     string             `json:"orderId"`
	UserID      int64              `json:"userId"`
	Items       []OrderCreatedItem `json:"items"`
	Subtotal    int64              `json:"subtotal"`
	DeliveryFee int64              `json:"deliveryFee"`
	Total       int64              `json:"total"`
}

// NewOrderCreatedTask builds the asynq task for an accepted order.
func NewOrderCreatedTask(p OrderCreatedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("notify: encode order created payload: %w", err)
	}
	return asynq.NewTask(TypeOrderCreated, data,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}
