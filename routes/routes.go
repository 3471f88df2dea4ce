package routes

import (
	"net/http"
	"slices"
	"time"

	"travis/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterLoginRoutes registers the login view and its form posts.
func RegisterLoginRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	login := r.Group("/login")
	{
		login.GET("", hb.MountLoginHandler)
		login.GET("/attempt", hb.ShowLoginHandler)
		login.POST("/send-otp", hb.LoginThrottle, hb.SendOTPHandler)
		login.POST("/verify-otp", hb.LoginThrottle, hb.VerifyOTPHandler)
		login.POST("/reset", hb.ResetLoginHandler)
	}
}

// RegisterConsoleRoutes registers the session-guarded console pages.
func RegisterConsoleRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusSeeOther, "/dashboard") })
	r.GET("/dashboard", hb.ConsolePageAuth, hb.DashboardHandler)
	r.POST("/logout", hb.LogoutHandler)
}

// RegisterMetricsRoutes registers the traffic metrics API. Reads require a
// console session; the vision model pushes without one.
func RegisterMetricsRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/metrics")
	{
		api.POST("", hb.IngestMetricsHandler)

		protected := api.Group("")
		protected.Use(hb.ConsoleAPIAuth)
		protected.GET("/latest", hb.LatestMetricsHandler)
		protected.GET("/history", hb.MetricsHistoryHandler)
	}
}

// RegisterSignalRoutes registers the signal timing API.
func RegisterSignalRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/signals")
	{
		api.POST("/optimize", hb.OptimizeSignalsHandler)
		api.POST("/update", hb.UpdateSignalsHandler)
		api.GET("/updates", hb.ConsoleAPIAuth, hb.SignalUpdatesHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins []string) {
	allowAll := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowAll,
		MaxAge:           12 * time.Hour,
	}
	if allowAll {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	r.Use(cors.New(corsCfg))

	RegisterLoginRoutes(r, hb)
	RegisterConsoleRoutes(r, hb)
	RegisterMetricsRoutes(r, hb)
	RegisterSignalRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
