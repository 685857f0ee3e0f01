// README: Order handlers: current state, accept/reject/advance, demo offers and history.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/ledger"
	"courier/internal/modules/order"
	"courier/internal/types"
)

// OfferGenerator builds demo offers on request.
type OfferGenerator interface {
	Next(now time.Time) *order.Order
}

type OrderHandler struct {
	order  *order.Service
	ledger *ledger.Ledger
	demo   OfferGenerator
}

// NewOrderHandler wires the order endpoints. demo may be nil, which disables
// POST /api/orders/demo.
func NewOrderHandler(svc *order.Service, l *ledger.Ledger, demo OfferGenerator) *OrderHandler {
	return &OrderHandler{order: svc, ledger: l, demo: demo}
}

type orderStateResp struct {
	PendingOffer     *orderView `json:"pending_offer"`
	OfferSecondsLeft int        `json:"offer_seconds_left"`
	ActiveOrder      *orderView `json:"active_order"`
}

func (h *OrderHandler) state() orderStateResp {
	st := h.order.State()
	return orderStateResp{
		PendingOffer:     viewOrder(st.PendingOffer),
		OfferSecondsLeft: st.OfferSecondsLeft,
		ActiveOrder:      viewOrder(st.ActiveOrder),
	}
}

func (h *OrderHandler) Current(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.state())
}

func (h *OrderHandler) orderID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid order id")
		return "", false
	}
	return types.ID(id), true
}

func (h *OrderHandler) Accept(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	if err := h.order.Accept(c.Request.Context(), order.AcceptCommand{OrderID: id}); err != nil {
		writeDomainError(c, err)
		return
	}
	h.Current(c)
}

func (h *OrderHandler) Reject(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	if err := h.order.Reject(c.Request.Context(), order.RejectCommand{OrderID: id}); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"order_id": id, "status": order.StatusCancelled})
}

func (h *OrderHandler) Advance(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	if err := h.order.Advance(c.Request.Context(), order.AdvanceCommand{OrderID: id}); err != nil {
		writeDomainError(c, err)
		return
	}
	st := h.order.State()
	if st.ActiveOrder == nil {
		writeJSON(c, http.StatusOK, map[string]any{"order_id": id, "status": order.StatusDelivered, "current_step": order.CurrentStep(order.StatusDelivered)})
		return
	}
	writeJSON(c, http.StatusOK, viewOrder(st.ActiveOrder))
}

// Demo places a generated offer, like the platform pushing a new order.
func (h *OrderHandler) Demo(c *gin.Context) {
	if h.demo == nil {
		writeError(c, http.StatusNotFound, "demo offers are disabled")
		return
	}
	o := h.demo.Next(time.Now())
	if err := h.order.Offer(c.Request.Context(), o); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, h.state())
}

// History lists finished orders, newest first.
func (h *OrderHandler) History(c *gin.Context) {
	all := h.ledger.All()
	limit := queryInt(c, "limit", 0)
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	out := make([]*orderView, 0, len(all))
	for i := range all {
		out = append(out, viewOrder(&all[i]))
	}
	writeJSON(c, http.StatusOK, map[string]any{"items": out, "total": h.ledger.Len()})
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	st := h.order.State()
	for _, o := range []*order.Order{st.ActiveOrder, st.PendingOffer} {
		if o != nil && o.ID == id {
			writeJSON(c, http.StatusOK, viewOrder(o))
			return
		}
	}
	if o, found := h.ledger.Get(id); found {
		writeJSON(c, http.StatusOK, viewOrder(&o))
		return
	}
	writeDomainError(c, order.ErrNotFound)
}
