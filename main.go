package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travis/config"
	"travis/cron"
	"travis/database"
	signalRepo "travis/database/repository/signal"
	"travis/handlers"
	"travis/middleware"
	"travis/routes"
	"travis/services/attempts"
	"travis/services/authclient"
	"travis/services/authflow"
	"travis/services/metrics"
	signalsvc "travis/services/signal"
	"travis/utils"
	"travis/views"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// loginThrottlePerMinute bounds code requests and verifications per IP.
const loginThrottlePerMinute = 10

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := utils.InitCache(); err != nil {
		logger.Fatal("main: redis unavailable", zap.Error(err))
	}
	if err := database.InitDB(); err != nil {
		logger.Fatal("main: mongo unavailable", zap.Error(err))
	}
	logger.Info("Connected to MongoDB")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	utils.StartHealthMonitor(ctx, time.Minute, utils.GetMetricsClient(), database.MongoClient)

	// repositories.
	repo := signalRepo.NewMongoSignalRepo(database.Database())

	// signal updates go through the queue unless it is disabled.
	var sink signalsvc.Sink = signalsvc.RepoSink{Repo: repo}
	var worker *asynq.Server
	if cfg.SignalQueueEnabled {
		queueClient := asynq.NewClient(utils.QueueRedisOpt())
		defer queueClient.Close()
		sink = signalsvc.QueueSink{Client: queueClient, Queue: cron.SignalQueue}

		worker = cron.NewSignalWorker(utils.QueueRedisOpt(), logger)
		cron.StartSignalWorker(worker, repo, logger)
	}

	// services.
	metricsSvc := metrics.NewService(
		metrics.NewRedisHistory(utils.GetMetricsClient(), cfg.MetricsHistorySize),
		logger,
	)
	signalSvc := signalsvc.NewService(sink, repo, logger)

	authClient, err := authclient.New(cfg.AuthServiceURL,
		authclient.WithTimeout(cfg.AuthTimeout),
		authclient.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("main: invalid auth service", zap.Error(err))
	}
	registry := attempts.NewRegistry(func(nav authflow.Navigator) *authflow.Controller {
		return authflow.New(authClient.Session(), nav,
			authflow.WithTimeout(cfg.AuthTimeout),
			authflow.WithLogger(logger),
		)
	}, cfg.AttemptTTL, logger)
	go registry.Run(ctx, time.Minute)

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = []byte(utils.RandomSecret())
		logger.Warn("JWT_SECRET not set; console sessions will not survive a restart")
	}

	// handlers.
	loginHandler := &handlers.LoginHandler{
		Registry:     registry,
		Secret:       secret,
		SessionTTL:   cfg.ConsoleSessionTTL,
		AttemptTTL:   cfg.AttemptTTL,
		CookieSecure: cfg.CookieSecure,
		RedactionKey: []byte(cfg.LogRedactionKey),
		Logger:       logger,
	}
	consoleHandler := &handlers.ConsoleHandler{
		Metrics:        metricsSvc,
		Signals:        signalSvc,
		VideoStreamURL: cfg.VideoStreamURL,
		Logger:         logger,
	}
	metricsHandler := &handlers.MetricsHandler{Service: metricsSvc, Logger: logger}
	signalHandler := &handlers.SignalHandler{Service: signalSvc, Logger: logger}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		ConsolePageAuth: middleware.ConsoleAuthMiddleware(secret, false),
		ConsoleAPIAuth:  middleware.ConsoleAuthMiddleware(secret, true),
		LoginThrottle:   middleware.LoginThrottle(loginThrottlePerMinute),

		// Login endpoints.
		MountLoginHandler: loginHandler.MountLoginHandler,
		ShowLoginHandler:  loginHandler.ShowLoginHandler,
		SendOTPHandler:    loginHandler.SendOTPHandler,
		VerifyOTPHandler:  loginHandler.VerifyOTPHandler,
		ResetLoginHandler: loginHandler.ResetLoginHandler,

		// Console endpoints.
		DashboardHandler: consoleHandler.DashboardHandler,
		LogoutHandler:    loginHandler.LogoutHandler,
		HealthHandler:    handlers.HealthHandler,

		// Traffic endpoints.
		IngestMetricsHandler:   metricsHandler.IngestMetricsHandler,
		LatestMetricsHandler:   metricsHandler.LatestMetricsHandler,
		MetricsHistoryHandler:  metricsHandler.MetricsHistoryHandler,
		OptimizeSignalsHandler: signalHandler.OptimizeSignalsHandler,
		UpdateSignalsHandler:   signalHandler.UpdateSignalsHandler,
		SignalUpdatesHandler:   signalHandler.SignalUpdatesHandler,
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler(logger))
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))
	router.SetHTMLTemplate(views.MustTemplates())

	routes.RegisterRoutes(router, handlerBundle, cfg.AllowedOrigins())

	// Start the HTTP server.
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	if err := database.Close(shutdownCtx); err != nil {
		logger.Sugar().Warnf("main: mongo disconnect: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
