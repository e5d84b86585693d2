// Package client talks to the order endpoints on behalf of the dashboard and
// the public tracking page. Configuration is injected; nothing here reads
// ambient storage, so the pollers built on top of it are testable in
// isolation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/menudrop/orderdesk/lifecycle"
	"github.com/menudrop/orderdesk/models"
)

type Config struct {
	BaseURL string
	Token   string // bearer token; leave empty for public-only use
	HTTP    *http.Client
	Logger  *logrus.Logger
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logrus.Logger
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    httpClient,
		log:     log,
	}
}

type ordersResponse struct {
	Orders []models.Order `json:"orders"`
}

type orderResponse struct {
	Order   models.Order `json:"order"`
	Message string       `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Orders fetches the full order list for the authenticated restaurant.
func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// RequestTransition validates the transition locally and, only if legal,
// asks the server to apply it. The returned order is the server's
// authoritative copy; the returned message is an opaque policy notice (for
// example a refund warning on cancellation) that must be shown to the
// operator before any local state is updated.
func (c *Client) RequestTransition(ctx context.Context, order *models.Order, target models.OrderStatus, extra *lifecycle.Extra) (*models.Order, string, error) {
	if err := lifecycle.Validate(order, target, extra); err != nil {
		return nil, "", err
	}

	body := struct {
		OrderID string             `json:"orderId"`
		Status  models.OrderStatus `json:"status"`
		Driver  *models.Driver     `json:"driver,omitempty"`
	}{OrderID: order.ID.String(), Status: target}
	if extra != nil {
		body.Driver = extra.Driver
	}

	var resp orderResponse
	path := fmt.Sprintf("/api/orders/%s/status", order.ID)
	if err := c.do(ctx, http.MethodPatch, path, body, &resp); err != nil {
		return nil, "", err
	}
	return &resp.Order, resp.Message, nil
}

// PublicOrder fetches a single order by id without authentication.
func (c *Client) PublicOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var resp orderResponse
	path := "/public-order?orderId=" + url.QueryEscape(orderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

type SubmitRequest struct {
	RestaurantName  string             `json:"restaurantName"`
	OrderType       models.OrderType   `json:"orderType"`
	TableNumber     string             `json:"tableNumber,omitempty"`
	DeliveryAddress string             `json:"deliveryAddress,omitempty"`
	PaymentMethod   string             `json:"paymentMethod"`
	Items           []models.OrderItem `json:"items"`
	TotalPrice      float64            `json:"totalPrice"`
}

// Submit places a new order and returns the created order, including its
// server-assigned id and order number.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*models.Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/submit-order", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Resource: path}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr != nil || errResp.Error == "" {
			errResp.Error = resp.Status
		}
		return &ServerRejectionError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	return nil
}
