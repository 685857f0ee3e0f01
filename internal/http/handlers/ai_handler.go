// README: AI tip handler (quota-guarded Gemini tips with a static fallback).
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/aiusage"
	"courier/internal/modules/ledger"
	"courier/internal/modules/session"
	"courier/internal/modules/tips"
)

type AIHandler struct {
	tips    *tips.Service
	usage   *aiusage.Service
	ledger  *ledger.Ledger
	session *session.Service
	uid     string
}

// NewAIHandler wires the tip endpoints; usage may be nil when no quota is kept.
func NewAIHandler(tipSvc *tips.Service, usage *aiusage.Service, l *ledger.Ledger, sess *session.Service, partnerID string) *AIHandler {
	return &AIHandler{tips: tipSvc, usage: usage, ledger: l, session: sess, uid: partnerID}
}

// Tip handles GET /api/ai/tip.
func (h *AIHandler) Tip(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	sum := ledger.Summarize(h.ledger.All(), time.Now())
	writeJSON(c, http.StatusOK, h.tips.Current(ctx, h.session.Online(), &sum))
}

// Quota handles GET /api/ai/quota.
func (h *AIHandler) Quota(c *gin.Context) {
	if h.usage == nil {
		writeError(c, http.StatusNotFound, "no tip quota configured")
		return
	}
	n, err := h.usage.Remaining(c.Request.Context(), h.uid)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"remaining": n, "daily": aiusage.DefaultTokens})
}
