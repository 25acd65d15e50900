package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/naodludzie/backend/internal/http/handlers"
	httpmw "github.com/naodludzie/backend/internal/http/middleware"
	"github.com/naodludzie/backend/internal/notify"
	"github.com/naodludzie/backend/internal/offgrid"
	"github.com/naodludzie/backend/internal/platform/cache"
	"github.com/naodludzie/backend/internal/platform/mailer"
	"github.com/naodludzie/backend/internal/platform/stripegw"
	"github.com/naodludzie/backend/internal/repo/postgres"
	"github.com/naodludzie/backend/internal/service"
	"github.com/naodludzie/backend/internal/sweeper"
	"github.com/naodludzie/backend/pkg/config"
	"github.com/naodludzie/backend/pkg/database"
	"github.com/naodludzie/backend/pkg/events"
	"github.com/naodludzie/backend/pkg/logger"
	mw "github.com/naodludzie/backend/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisStore, err := cache.NewStore(cfg.Redis.URL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisStore.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Repositories
	bookingRepo := postgres.NewBookingRepository(pool)
	cabinRepo := postgres.NewCabinRepository(pool)
	calendarRepo := postgres.NewCalendarRepository(pool)
	chatRepo := postgres.NewChatRepository(pool)
	newsletterRepo := postgres.NewNewsletterRepository(pool)
	rateLimitRepo := postgres.NewRateLimitRepository(pool)
	stripeRepo := postgres.NewStripeAccountRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// Outbound integrations
	stripeClient := stripegw.NewClient(cfg.Stripe.SecretKey)
	scorer := offgrid.NewScorer(cfg.Platform.OverpassURL, cfg.Platform.OverpassTimeout)

	var mailSvc mailer.Service
	if cfg.Email.DevMode {
		mailSvc = mailer.NewDevMailer()
	} else {
		mailSvc = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	// Services
	authService := service.NewAuthService(userRepo, cfg)
	bookingService := service.NewBookingService(bookingRepo, cabinRepo, calendarRepo, userRepo, eventBus, cfg)
	cabinService := service.NewCabinService(cabinRepo, userRepo, eventBus, cfg)
	calendarService := service.NewCalendarService(cabinRepo, calendarRepo, cfg.Calendar.FetchTimeout)
	chatService := service.NewChatService(chatRepo, bookingRepo)
	miscService := service.NewMiscService(newsletterRepo, eventBus)
	paymentService := service.NewPaymentService(stripeRepo, cabinRepo, bookingRepo, userRepo, stripeClient, eventBus, cfg)

	// Email fan-out off the event bus
	dispatcher := notify.NewDispatcher(eventBus, mailSvc, cfg)
	if err := dispatcher.Start(); err != nil {
		logger.Error("Failed to start notification dispatcher", "error", err)
		os.Exit(1)
	}

	// Background jobs
	sweep := sweeper.New(bookingService, cabinService, calendarService, rateLimitRepo, cfg.Calendar.SyncSpec)
	if err := sweep.Start(); err != nil {
		logger.Error("Failed to start sweeper", "error", err)
		os.Exit(1)
	}
	defer sweep.Stop()

	// Handlers
	secret := cfg.Auth.JWTSecret
	authHandler := handlers.NewAuthHandler(authService, secret)
	bookingsHandler := handlers.NewBookingsHandler(bookingService, chatService, secret)
	cabinsHandler := handlers.NewCabinsHandler(cabinService, bookingService, calendarService, scorer, secret)
	paymentsHandler := handlers.NewPaymentsHandler(paymentService, secret)
	miscHandler := handlers.NewMiscHandler(miscService, cabinService, cfg.Platform.BaseURL)
	opsHandler := handlers.NewOpsHandler(bookingService, cabinService, calendarService, cfg.Auth.ServiceRoleKey)

	publicLimiter := httpmw.NewRateLimiter(rateLimitRepo, httpmw.RateLimitConfig{
		Requests: 30,
		Window:   time.Minute,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Platform.BaseURL, "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/cabins", cabinsHandler.Routes())
		r.With(publicLimiter.Middleware(), mw.Idempotency(redisStore)).
			Mount("/bookings", bookingsHandler.Routes())
		r.Mount("/payments", paymentsHandler.Routes())
		r.With(publicLimiter.Middleware()).Mount("/", miscHandler.Routes())
		r.Mount("/ops", opsHandler.Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
}
