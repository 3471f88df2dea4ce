package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"travis/models"
	"travis/services/signal"
	"travis/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignalHandler serves the signal timing API.
type SignalHandler struct {
	Service *signal.Service
	Logger  *zap.Logger
}

type optimizeRequest struct {
	Counts            map[string]int `json:"counts" binding:"required"`
	OverallCongestion float64        `json:"overall_congestion"`
}

// OptimizeSignalsHandler proposes green times for the posted counts.
func (h *SignalHandler) OptimizeSignalsHandler(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, getLogger(c, h.Logger), http.StatusBadRequest, "Invalid optimize request", err.Error())
		return
	}
	for direction, count := range req.Counts {
		if count < 0 {
			utils.JSONError(c, getLogger(c, h.Logger), http.StatusBadRequest, "Invalid optimize request", "negative count for "+direction)
			return
		}
	}
	c.JSON(http.StatusOK, h.Service.Plan(models.TrafficSample{
		Counts:            req.Counts,
		OverallCongestion: req.OverallCongestion,
	}))
}

// UpdateSignalsHandler records timings that were applied to the signals.
func (h *SignalHandler) UpdateSignalsHandler(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	var update models.SignalUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid signal update", err.Error())
		return
	}
	if _, err := h.Service.RecordUpdate(c.Request.Context(), update); err != nil {
		if errors.Is(err, signal.ErrInvalidUpdate) {
			utils.JSONError(c, logger, http.StatusBadRequest, "Invalid signal update", err.Error())
			return
		}
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to record signal update", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "signal updated"})
}

// SignalUpdatesHandler lists recorded updates, newest first.
func (h *SignalHandler) SignalUpdatesHandler(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.JSONError(c, getLogger(c, h.Logger), http.StatusBadRequest, "Invalid limit", err.Error())
			return
		}
		limit = n
	}
	updates, err := h.Service.Recent(c.Request.Context(), limit)
	if err != nil {
		utils.JSONError(c, getLogger(c, h.Logger), http.StatusInternalServerError, "Failed to load signal updates", err.Error())
		return
	}
	if updates == nil {
		updates = []models.SignalUpdate{}
	}
	c.JSON(http.StatusOK, updates)
}
