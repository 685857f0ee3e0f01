// README: Location handlers: device feed ingest, current position and ETA.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/modules/location"
	"courier/internal/modules/order"
	"courier/internal/types"
)

type LocationHandler struct {
	tracker *location.Tracker
	eta     *location.ETAService
	order   *order.Service
}

func NewLocationHandler(tracker *location.Tracker, eta *location.ETAService, orders *order.Service) *LocationHandler {
	return &LocationHandler{tracker: tracker, eta: eta, order: orders}
}

type locationReq struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	AccuracyM float64  `json:"accuracy_m"`
}

// Update handles POST /api/location from the device's position feed.
func (h *LocationHandler) Update(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Lat == nil || req.Lng == nil {
		writeError(c, http.StatusBadRequest, "invalid json: expected lat and lng")
		return
	}
	pos, err := h.tracker.Ingest(c.Request.Context(), location.Sample{Lat: *req.Lat, Lng: *req.Lng, AccuracyM: req.AccuracyM})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, pos)
}

func (h *LocationHandler) Get(c *gin.Context) {
	pos, ok := h.tracker.Position()
	if !ok {
		writeDomainError(c, location.ErrNoPosition)
		return
	}
	writeJSON(c, http.StatusOK, pos)
}

// ETA estimates the trip to the active order's next stop, or to an explicit
// ?lat=&lng= target.
func (h *LocationHandler) ETA(c *gin.Context) {
	var target types.Point
	if c.Query("lat") != "" || c.Query("lng") != "" {
		var q struct {
			Lat float64 `form:"lat" binding:"required"`
			Lng float64 `form:"lng" binding:"required"`
		}
		if err := c.ShouldBindQuery(&q); err != nil {
			writeError(c, http.StatusBadRequest, "invalid lat/lng")
			return
		}
		target = types.Point{Lat: q.Lat, Lng: q.Lng}
	} else {
		p, ok := h.order.TransitTarget()
		if !ok {
			writeError(c, http.StatusConflict, "no active order")
			return
		}
		target = p
	}
	est, err := h.eta.To(c.Request.Context(), target)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, est)
}
