// README: Earnings and dashboard handlers over the ledger projections.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/ledger"
	"courier/internal/modules/order"
	"courier/internal/modules/session"
	"courier/internal/modules/tips"
)

type EarningsHandler struct {
	ledger  *ledger.Ledger
	session *session.Service
	order   *order.Service
	tips    *tips.Service
	now     func() time.Time
}

// NewEarningsHandler wires earnings endpoints; tipSvc may be nil.
func NewEarningsHandler(l *ledger.Ledger, sess *session.Service, orders *order.Service, tipSvc *tips.Service) *EarningsHandler {
	return &EarningsHandler{ledger: l, session: sess, order: orders, tips: tipSvc, now: time.Now}
}

func (h *EarningsHandler) Summary(c *gin.Context) {
	writeJSON(c, http.StatusOK, ledger.Summarize(h.ledger.All(), h.now()))
}

// History groups delivered orders by date. ?days=0 returns every day.
func (h *EarningsHandler) History(c *gin.Context) {
	days := queryInt(c, "days", ledger.DefaultHistoryDays)
	groups := ledger.HistoryByDate(h.ledger.All(), h.now().Location(), days)
	writeJSON(c, http.StatusOK, map[string]any{"days": groups})
}

type dashboardResp struct {
	Online         bool       `json:"online"`
	Toggling       bool       `json:"toggling"`
	TodayEarnings  float64    `json:"today_earnings"`
	TodayOrders    int        `json:"today_orders"`
	TotalCompleted int        `json:"total_completed"`
	ActiveOrder    *orderView `json:"active_order"`
	Tip            *tips.Tip  `json:"tip,omitempty"`
}

// Dashboard is the home screen: status, today's numbers, the active order
// and a tip. Today's numbers are pushed into the session cache as well.
func (h *EarningsHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	sum := ledger.Summarize(h.ledger.All(), h.now())
	h.session.RecordDashboard(ctx, sum.Today, sum.TotalCompleted)

	resp := dashboardResp{
		Online:         h.session.Online(),
		Toggling:       h.session.Toggling(),
		TodayEarnings:  sum.Today.Major(),
		TodayOrders:    sum.TodayOrders,
		TotalCompleted: sum.TotalCompleted,
		ActiveOrder:    viewOrder(h.order.State().ActiveOrder),
	}
	if h.tips != nil {
		tip := h.tips.Current(ctx, resp.Online, &sum)
		resp.Tip = &tip
	}
	writeJSON(c, http.StatusOK, resp)
}
