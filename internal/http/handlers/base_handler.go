// README: Base handler utilities (JSON helpers, error mapping, response views).
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"courier/internal/backend"
	"courier/internal/modules/ledger"
	"courier/internal/modules/location"
	"courier/internal/modules/order"
	"courier/internal/modules/session"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// isValidID accepts backend ids (hex), demo ids (ORD<millis>, cuid) and
// anything else made of letters, digits, '-' and '_'.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeDomainError maps module errors onto HTTP statuses. Backend failures
// surface as 502 with the backend's error code.
func writeDomainError(c *gin.Context, err error) {
	_ = c.Error(err)
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, order.ErrBadRequest), errors.Is(err, location.ErrInvalidPosition):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound), errors.Is(err, location.ErrNoPosition):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrInvalidTransition), errors.Is(err, order.ErrBusy),
		errors.Is(err, order.ErrOffline), errors.Is(err, session.ErrBusy),
		errors.Is(err, ledger.ErrDuplicate):
		writeError(c, http.StatusConflict, err.Error())
	case errors.As(err, &apiErr):
		writeJSON(c, http.StatusBadGateway, errorResponse{Error: apiErr.Message, Code: apiErr.Code})
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

type orderView struct {
	*order.Order
	EarningsAmount float64 `json:"earnings_amount"`
	CurrentStep    int     `json:"current_step"`
	ActionLabel    string  `json:"action_label,omitempty"`
	Distance       string  `json:"distance"`
}

func viewOrder(o *order.Order) *orderView {
	if o == nil {
		return nil
	}
	return &orderView{
		Order:          o,
		EarningsAmount: o.Earnings.Major(),
		CurrentStep:    order.CurrentStep(o.Status),
		ActionLabel:    order.ActionLabel(o.Status),
		Distance:       location.FormatDistance(o.DistanceKm),
	}
}
