package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"parking-system/config"
	"parking-system/handlers"
	_ "parking-system/migrations"
	"parking-system/monitoring"
	"parking-system/security"
	"parking-system/services"
	"parking-system/store"
	"parking-system/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub (optional: falls back to a noop publisher)
	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		notifier = services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig))
	} else {
		log.Println("PubNub keys not configured, realtime notifications disabled")
	}

	// Initialize services
	st := store.New(app)
	clock := services.NewClock()
	locks := services.NewKeyedMutex()
	issuer := services.NewCodeIssuer(st, redisClient, cfg.CodeRetryLimit, cfg.GateCacheTTL)
	ledgerService := services.NewLedgerService(st, issuer, locks, clock, notifier, cfg.MaxBookingWindow)
	bookingService := services.NewBookingService(st, issuer, locks, clock, notifier, cfg.SweepInterval)
	paymentService := services.NewPaymentService(st, locks, clock, notifier)
	reviewService := services.NewReviewService(st, bookingService, clock)
	gateService := services.NewGateService(st, issuer, bookingService, clock)

	// Initialize handlers
	resourceHandler := handlers.NewResourceHandler(st, ledgerService)
	bookingHandler := handlers.NewBookingHandler(ledgerService, bookingService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	gateHandler := handlers.NewGateHandler(gateService)
	adminHandler := handlers.NewAdminHandler(st, bookingService, ledgerService, redisClient)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMin, cfg.RateLimitInterval)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background tasks
	go bookingService.SweepLoop(ctx)

	if cfg.EnableMetrics {
		monitoring.NewMonitor(redisClient)
		go serveMetrics(cfg.MetricsPort)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		g := e.Router.Group("/api/v1")
		g.BindFunc(rateLimiter.Guard)

		// Resource endpoints
		g.POST("/resources", resourceHandler.Create).Bind(apis.RequireAuth())
		g.PATCH("/resources/{resourceId}/active", resourceHandler.SetActive).Bind(apis.RequireAuth())
		g.POST("/resources/{resourceId}/blackouts", resourceHandler.CreateBlackout).Bind(apis.RequireAuth())
		g.GET("/resources/{resourceId}/availability", resourceHandler.Availability)

		// Booking endpoints
		g.POST("/bookings", bookingHandler.Reserve).Bind(apis.RequireAuth())
		g.GET("/bookings", bookingHandler.History).Bind(apis.RequireAuth())
		g.GET("/bookings/{bookingId}", bookingHandler.Get).Bind(apis.RequireAuth())
		g.POST("/bookings/{bookingId}/cancel", bookingHandler.Cancel).Bind(apis.RequireAuth())

		// Payment endpoints
		g.POST("/bookings/{bookingId}/proof", paymentHandler.SubmitProof).Bind(apis.RequireAuth())
		g.POST("/bookings/{bookingId}/proof/resolve", paymentHandler.ResolveProof).Bind(apis.RequireAuth())

		// Review endpoints
		g.POST("/bookings/{bookingId}/review", reviewHandler.Submit).Bind(apis.RequireAuth())

		// Gate terminal: authenticates by credential pair, no session
		g.POST("/gate/checkin", gateHandler.CheckIn)

		// Admin endpoints
		g.GET("/admin/occupancy", adminHandler.Occupancy).Bind(apis.RequireSuperuserAuth())
		g.POST("/admin/force-sweep", adminHandler.ForceSweep).Bind(apis.RequireSuperuserAuth())

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// serveMetrics exposes the Prometheus registry on its own port so the
// scrape endpoint stays off the public API.
func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
