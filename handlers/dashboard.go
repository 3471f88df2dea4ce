package handlers

import (
	"errors"
	"net/http"

	"travis/middleware"
	"travis/models"
	"travis/services/metrics"
	"travis/services/signal"
	"travis/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// recentOnDashboard is how many signal updates the dashboard lists.
const recentOnDashboard = 10

// ConsoleHandler serves the authenticated console pages.
type ConsoleHandler struct {
	Metrics        *metrics.Service
	Signals        *signal.Service
	VideoStreamURL string
	Logger         *zap.Logger
}

type dashboardView struct {
	Email          string
	VideoStreamURL string
	Latest         *models.TrafficSample
	Plan           models.SignalPlan
	Updates        []models.SignalUpdate
}

// DashboardHandler renders the control center. Backend failures degrade to
// empty panels.
func (h *ConsoleHandler) DashboardHandler(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	view := dashboardView{
		Email:          c.GetString(middleware.ConsoleEmailKey),
		VideoStreamURL: h.VideoStreamURL,
	}

	latest, err := h.Metrics.Latest(c.Request.Context())
	switch {
	case err == nil:
		view.Latest = latest
		view.Plan = h.Signals.Plan(*latest)
	case !errors.Is(err, metrics.ErrNoData):
		logger.Error("Failed to load latest traffic sample", zap.Error(err))
	}

	updates, err := h.Signals.Recent(c.Request.Context(), recentOnDashboard)
	if err != nil {
		logger.Error("Failed to load signal updates", zap.Error(err))
	}
	view.Updates = updates

	c.HTML(http.StatusOK, "dashboard.html", view)
}

// HealthHandler reports liveness and the last dependency health snapshot.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"message":      "TRAVIS console is running",
		"dependencies": utils.GetHealthStatus(),
	})
}
