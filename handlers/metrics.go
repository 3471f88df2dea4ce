package handlers

import (
	"errors"
	"net/http"

	"travis/models"
	"travis/services/metrics"
	"travis/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetricsHandler serves the traffic metrics API.
type MetricsHandler struct {
	Service *metrics.Service
	Logger  *zap.Logger
}

// IngestMetricsHandler stores a reading pushed by the vision model.
func (h *MetricsHandler) IngestMetricsHandler(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	var sample models.TrafficSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid traffic sample", err.Error())
		return
	}
	if _, err := h.Service.Ingest(c.Request.Context(), sample); err != nil {
		if errors.Is(err, metrics.ErrInvalidSample) {
			utils.JSONError(c, logger, http.StatusBadRequest, "Invalid traffic sample", err.Error())
			return
		}
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to store traffic sample", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LatestMetricsHandler returns the newest reading.
func (h *MetricsHandler) LatestMetricsHandler(c *gin.Context) {
	latest, err := h.Service.Latest(c.Request.Context())
	if errors.Is(err, metrics.ErrNoData) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data"})
		return
	}
	if err != nil {
		utils.JSONError(c, getLogger(c, h.Logger), http.StatusInternalServerError, "Failed to load traffic sample", err.Error())
		return
	}
	c.JSON(http.StatusOK, latest)
}

// MetricsHistoryHandler returns the retained readings, oldest first.
func (h *MetricsHandler) MetricsHistoryHandler(c *gin.Context) {
	samples, err := h.Service.Recent(c.Request.Context())
	if err != nil {
		utils.JSONError(c, getLogger(c, h.Logger), http.StatusInternalServerError, "Failed to load traffic history", err.Error())
		return
	}
	if samples == nil {
		samples = []models.TrafficSample{}
	}
	c.JSON(http.StatusOK, samples)
}
