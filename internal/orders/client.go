package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/minishop/backend-minishop/internal/obs"
	"github.com/minishop/backend-minishop/internal/resilience"
)

var (
	// ErrRejected means the order service refused the payload. Retrying the
	// same payload will not help.
	ErrRejected = errors.New("orders: submission rejected")
	// ErrUnavailable means the order service could not be reached or kept
	// failing. The submission may succeed later.
	ErrUnavailable = errors.New("orders: service unavailable")
)

// Item is one order line as the order service expects it.
type Item struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Customer is the checkout contact block.
type Customer struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	DeliveryType string `json:"deliveryType"`
	Address      string `json:"address,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

// Payload is a complete order submission.
type Payload struct {
	UserID      int64    `json:"userId"`
	Items       []Item   `json:"items"`
	Customer    Customer `json:"customer"`
	Subtotal    int64    `json:"subtotal"`
	DeliveryFee int64    `json:"deliveryFee"`
	Total       int64    `json:"total"`
}

// Ack is the order service's acceptance response.
type Ack struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Submitter hands a finished order to the fulfilment side.
type Submitter interface {
	Submit(ctx context.Context, p Payload) (Ack, error)
}

// Client submits orders over HTTP with retry and circuit breaking.
type Client struct {
	Endpoint string
	Token    string
	HTTP     resilience.HTTPClient
}

// Submit posts the payload and decodes the acknowledgement.
func (c *Client) Submit(ctx context.Context, p Payload) (Ack, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return Ack{}, fmt.Errorf("orders: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Ack{}, fmt.Errorf("orders: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(ctx, req)
	obs.ObserveOrderSubmitLatency(time.Since(start))
	if err != nil {
		return Ack{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		var ack Ack
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return Ack{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
		if ack.Status == "" {
			ack.Status = "accepted"
		}
		return ack, nil
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		return Ack{}, fmt.Errorf("%w: %s", ErrRejected, remoteMessage(resp))
	default:
		return Ack{}, fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
}

func remoteMessage(resp *http.Response) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Error.Message != "" {
			return body.Error.Message
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return resp.Status
}
