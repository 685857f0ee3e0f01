// README: Platform backend contract, endpoint table and error codes.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"courier/internal/modules/order"
	"courier/internal/types"
)

const (
	DefaultBaseURL     = "https://khaaonow-be.azurewebsites.net/api"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
	DefaultPageSize    = 20

	// TokenStorageKey is where the partner's bearer token lives in the device KV.
	TokenStorageKey = "delivery_partner_token"
)

const (
	pathAvailableOrders = "/orders"
	pathAssignedOrders  = "/delivery-partners/orders/assigned"
	pathOrderHistory    = "/delivery-partners/orders/history"
	pathLocation        = "/delivery-partners/location"
	pathToggleStatus    = "/delivery-partners/toggle-status"
	pathDashboard       = "/delivery-partners/dashboard"
)

func acceptPath(id types.ID) string { return "/delivery-partners/orders/" + string(id) + "/accept" }
func statusPath(id types.ID) string { return "/orders/" + string(id) + "/status" }

const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeServer       = "SERVER_ERROR"
	CodeNetwork      = "NETWORK_ERROR"
	CodeUnknown      = "UNKNOWN"
)

// APIError is returned for every failed backend call.
type APIError struct {
	Status  int // 0 when no response arrived
	Code    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func codeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return CodeValidation
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status >= 500:
		return CodeServer
	}
	return CodeUnknown
}

// Retryable reports whether repeating the call could succeed. Client errors
// that describe the request itself are final.
func Retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case CodeValidation, CodeUnauthorized, CodeForbidden, CodeNotFound:
		return false
	}
	return true
}

func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

type Dashboard struct {
	Earnings struct {
		Today float64 `json:"today"`
		Week  float64 `json:"week"`
		Month float64 `json:"month"`
	} `json:"earnings"`
	Stats struct {
		DeliveriesToday int `json:"deliveriesToday"`
		ShiftsCompleted int `json:"shiftsCompleted"`
		ActiveOrders    int `json:"activeOrders"`
	} `json:"stats"`
	OnlineStatus *bool `json:"onlineStatus,omitempty"`
}

// API is everything the courier agent asks of the platform.
type API interface {
	GetAvailableOrders(ctx context.Context) ([]*order.Order, error)
	GetAssignedOrders(ctx context.Context) ([]*order.Order, error)
	GetOrderHistory(ctx context.Context, page, limit int) ([]*order.Order, Pagination, error)
	GetDashboard(ctx context.Context) (*Dashboard, error)
	AcceptOrder(ctx context.Context, id types.ID) error
	UpdateOrderStatus(ctx context.Context, id types.ID, status order.Status) error
	ToggleOnlineStatus(ctx context.Context, online bool) error
	UpdateLocation(ctx context.Context, p types.Point) error
}
