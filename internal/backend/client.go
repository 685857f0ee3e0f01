// README: REST client for the platform backend with bearer auth and bounded retries.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"courier/internal/modules/order"
	"courier/internal/types"
)

// TokenSource supplies the partner's bearer token; "" sends no header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type ClientConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

type Client struct {
	baseURL     string
	http        *http.Client
	tokens      TokenSource
	maxAttempts int
	retryDelay  time.Duration
	log         *slog.Logger
	now         func() time.Time
}

func NewClient(cfg ClientConfig, tokens TokenSource, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        &http.Client{Timeout: cfg.Timeout},
		tokens:      tokens,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		log:         log.With("module", "backend"),
		now:         time.Now,
	}
}

func (c *Client) GetAvailableOrders(ctx context.Context) ([]*order.Order, error) {
	var recs []OrderRecord
	q := url.Values{"status": {"ready_for_pickup"}}
	if err := c.do(ctx, http.MethodGet, pathAvailableOrders, q, nil, &recs); err != nil {
		return nil, err
	}
	return mapOrders(recs, c.now()), nil
}

func (c *Client) GetAssignedOrders(ctx context.Context) ([]*order.Order, error) {
	var recs []OrderRecord
	if err := c.do(ctx, http.MethodGet, pathAssignedOrders, nil, nil, &recs); err != nil {
		return nil, err
	}
	return mapOrders(recs, c.now()), nil
}

func (c *Client) GetOrderHistory(ctx context.Context, page, limit int) ([]*order.Order, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	var data struct {
		Items      []OrderRecord `json:"items"`
		Pagination Pagination    `json:"pagination"`
	}
	q := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
	if err := c.do(ctx, http.MethodGet, pathOrderHistory, q, nil, &data); err != nil {
		return nil, Pagination{}, err
	}
	return mapOrders(data.Items, c.now()), data.Pagination, nil
}

func (c *Client) GetDashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.do(ctx, http.MethodGet, pathDashboard, nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) AcceptOrder(ctx context.Context, id types.ID) error {
	return c.do(ctx, http.MethodPost, acceptPath(id), nil, nil, nil)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id types.ID, status order.Status) error {
	body := map[string]string{"status": string(status)}
	return c.do(ctx, http.MethodPatch, statusPath(id), nil, body, nil)
}

func (c *Client) ToggleOnlineStatus(ctx context.Context, online bool) error {
	body := map[string]bool{"isOnline": online}
	return c.do(ctx, http.MethodPost, pathToggleStatus, nil, body, nil)
}

func (c *Client) UpdateLocation(ctx context.Context, p types.Point) error {
	body := locationRecord{Latitude: p.Lat, Longitude: p.Lng}
	return c.do(ctx, http.MethodPost, pathLocation, nil, body, nil)
}

// do runs one logical call: up to maxAttempts tries with a linearly growing
// pause, stopping early on errors that retrying cannot fix.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		lastErr = c.once(ctx, method, path, query, payload, out)
		if lastErr == nil || !Retryable(lastErr) || attempt == c.maxAttempts {
			break
		}
		c.log.Debug("retrying backend call", "method", method, "path", path, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(c.retryDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return &APIError{Code: CodeNetwork, Message: "request cancelled", Err: ctx.Err()}
		}
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return &APIError{Code: CodeUnauthorized, Message: "no auth token", Err: err}
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Code: CodeNetwork, Message: "Network error. Please check your internet connection.", Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &APIError{Status: resp.StatusCode, Code: CodeNetwork, Message: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Code: codeForStatus(resp.StatusCode), Message: msg}
	}
	return decode(resp.StatusCode, raw, out)
}

// decode accepts both the {success, data} envelope and a bare payload.
func decode(status int, raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var env struct {
		envelope
		Data *json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && (env.Data != nil || env.Message != "" || env.Error != "" || env.Success) {
		if env.Data == nil && !env.Success && env.Error != "" {
			return &APIError{Status: status, Code: CodeUnknown, Message: env.Error}
		}
		if out == nil || env.Data == nil {
			return nil
		}
		raw = *env.Data
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Status: status, Code: CodeServer, Message: "malformed response", Err: err}
	}
	return nil
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// KV is the device-local store the token was saved in at login.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

type KVToken struct {
	KV KV
}

var ErrNoToken = errors.New("partner is not logged in")

func (t KVToken) Token(ctx context.Context) (string, error) {
	raw, ok, err := t.KV.Get(ctx, TokenStorageKey)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if !ok || len(raw) == 0 {
		return "", ErrNoToken
	}
	return strings.Trim(string(raw), "\" \n"), nil
}
