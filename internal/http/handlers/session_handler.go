// README: Session handlers: online status read and toggle.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/session"
)

type SessionHandler struct {
	session *session.Service
}

func NewSessionHandler(svc *session.Service) *SessionHandler {
	return &SessionHandler{session: svc}
}

type sessionResp struct {
	Online          bool    `json:"online"`
	Toggling        bool    `json:"toggling"`
	AcceptingOffers bool    `json:"accepting_offers"`
	TodayEarnings   float64 `json:"today_earnings"`
	CompletedOrders int     `json:"completed_orders"`
}

func (h *SessionHandler) view() sessionResp {
	snap := h.session.Snapshot()
	return sessionResp{
		Online:          h.session.Online(),
		Toggling:        h.session.Toggling(),
		AcceptingOffers: h.session.AcceptingOffers(),
		TodayEarnings:   snap.TodayEarnings.Major(),
		CompletedOrders: snap.CompletedOrders,
	}
}

func (h *SessionHandler) Get(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.view())
}

type setOnlineReq struct {
	Online *bool `json:"online"`
}

// SetOnline handles PUT /api/session/online. On a backend failure the flag
// has already been rolled back when the error is returned.
func (h *SessionHandler) SetOnline(c *gin.Context) {
	var req setOnlineReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Online == nil {
		writeError(c, http.StatusBadRequest, "invalid json: expected {\"online\": bool}")
		return
	}
	if err := h.session.SetOnline(c.Request.Context(), *req.Online); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, h.view())
}
