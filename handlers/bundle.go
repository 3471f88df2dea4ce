package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Middleware guards for console pages and console API reads.
	ConsolePageAuth gin.HandlerFunc
	ConsoleAPIAuth  gin.HandlerFunc
	LoginThrottle   gin.HandlerFunc

	// Login endpoints
	MountLoginHandler gin.HandlerFunc
	ShowLoginHandler  gin.HandlerFunc
	SendOTPHandler    gin.HandlerFunc
	VerifyOTPHandler  gin.HandlerFunc
	ResetLoginHandler gin.HandlerFunc

	// Console endpoints
	DashboardHandler gin.HandlerFunc
	LogoutHandler    gin.HandlerFunc
	HealthHandler    gin.HandlerFunc

	// Traffic metrics endpoints
	IngestMetricsHandler  gin.HandlerFunc
	LatestMetricsHandler  gin.HandlerFunc
	MetricsHistoryHandler gin.HandlerFunc

	// Signal endpoints
	OptimizeSignalsHandler gin.HandlerFunc
	UpdateSignalsHandler   gin.HandlerFunc
	SignalUpdatesHandler   gin.HandlerFunc
}
