// Package broker implements the execution.Broker capability against an HTTP
// trading API with TOTP-based session login. The pipeline never imports this
// package — only live entry points wire it in.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"

	"fvgtrader/internal/model"
)

// Config holds broker API credentials and endpoints.
type Config struct {
	BaseURL    string
	APIKey     string
	ClientID   string
	Password   string
	TOTPSecret string        // base32 secret for session TOTP
	Timeout    time.Duration // default 7s
}

// Client is an HTTP broker session. Safe for use from one goroutine; the
// live supervisor owns it.
type Client struct {
	cfg         Config
	http        *http.Client
	accessToken string
}

// New creates an unconnected broker client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 7 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// Connect logs in with a freshly generated TOTP code and stores the session
// token for subsequent calls.
func (c *Client) Connect(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("broker totp generate: %w", err)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	err = c.post(ctx, "/auth/login", map[string]string{
		"client_id": c.cfg.ClientID,
		"password":  c.cfg.Password,
		"totp":      code,
	}, &out)
	if err != nil {
		return fmt.Errorf("broker login: %w", err)
	}
	c.accessToken = out.AccessToken
	log.Printf("[broker] session established for client %s", c.cfg.ClientID)
	return nil
}

// PlaceOrder submits an order and returns the broker order id.
func (c *Client) PlaceOrder(ctx context.Context, order model.Order) (string, error) {
	var out struct {
		OrderID string `json:"order_id"`
	}
	err := c.post(ctx, "/orders", map[string]any{
		"symbol":      order.Symbol,
		"side":        string(order.Direction),
		"qty":         order.Qty,
		"type":        order.OrderType,
		"price":       order.Price,
		"stop_loss":   order.StopLoss,
		"take_profit": order.TakeProfit,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("broker place order: %w", err)
	}
	return out.OrderID, nil
}

// OrderStatus queries the status of a placed order.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (model.OrderStatus, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/orders/"+orderID, &out); err != nil {
		return "", fmt.Errorf("broker order status: %w", err)
	}
	return model.OrderStatus(out.Status), nil
}

// Positions returns broker-side open positions.
func (c *Client) Positions(ctx context.Context) ([]model.Position, error) {
	var out struct {
		Positions []model.Position `json:"positions"`
	}
	if err := c.get(ctx, "/positions", &out); err != nil {
		return nil, fmt.Errorf("broker positions: %w", err)
	}
	return out.Positions, nil
}

// Balance returns available account equity.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	var out struct {
		Equity float64 `json:"equity"`
	}
	if err := c.get(ctx, "/account", &out); err != nil {
		return 0, fmt.Errorf("broker balance: %w", err)
	}
	return out.Equity, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.Message)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
