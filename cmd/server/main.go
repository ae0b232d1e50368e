package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/migrations"
	"storefront/internal/pricing"
	"storefront/internal/redis"
	"storefront/internal/repository"
	"storefront/internal/services"
	"storefront/internal/websocket"
	"storefront/pkg/mailer"
	"storefront/pkg/payment"
	"storefront/pkg/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, cfg.LogLevel, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close(db)

	err = migrations.RunMigrations(ctx, db, migrations.Options{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		SeedMenu:      cfg.SeedMenu,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	hub := websocket.NewHub(log, cfg.AllowedOrigins)
	go hub.Run(ctx)

	wa := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppUsername, cfg.WhatsAppPassword, cfg.WhatsAppPath)
	notifications, closeNotifiers := buildNotifications(cfg, wa, hub, log)
	defer closeNotifiers()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	gateway, err := buildGateway(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure payment gateway")
	}

	// Initialize services
	rules := pricing.DefaultRules
	dispatcher := &services.Dispatcher{}
	userService := services.NewUserService(userRepo)
	catalogService := services.NewCatalogService(catalogRepo)
	cartService := services.NewCartService(redisClient, catalogService, rules, cfg.CartTTL)
	orderService := services.NewOrderService(orderRepo, notifications, log, services.OrderServiceConfig{
		Rules:          rules,
		PersistTimeout: cfg.PersistTimeout,
		NotifyTimeout:  cfg.NotifyTimeout,
		NextNumber:     services.NewOrderNumberGenerator(cfg.OrderNumberPrefix),
		Dispatch:       dispatcher.Go,
	})
	checkoutService := services.NewCheckoutService(
		catalogService,
		orderService,
		redisClient,
		redisClient,
		gateway,
		log,
		services.CheckoutConfig{
			Rules:          rules,
			Currency:       cfg.Currency,
			PaymentTimeout: cfg.PaymentTimeout,
			IntentTTL:      cfg.IntentTTL,
		},
	)

	// Initialize handlers
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	apiHandler := handlers.NewAPIHandler(userService, catalogService, cartService, checkoutService, orderService, tokens, hub, log)
	apiHandler.AddHealthCheck("database", func(ctx context.Context) error { return database.Ping(ctx, db) })
	apiHandler.AddHealthCheck("redis", redisClient.Ping)

	router := newRouter(log)
	apiHandler.RegisterRoutes(router)
	if wa.Enabled() {
		handlers.NewWhatsAppHandler(wa, orderService, log).RegisterRoutes(router)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.ServerPort).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	// Notification channels are closed by deferred calls once this returns.
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("Pending order notifications abandoned")
	}
	log.Info("Server exited")
}

func newRouter(log *logrus.Logger) *gin.Engine {
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(log))
	return router
}

// buildGateway only uses the fake gateway when it is asked for by name.
// Any other value fails startup instead of running a shop that takes no money.
func buildGateway(cfg *config.Config, log *logrus.Logger) (payment.Gateway, error) {
	switch cfg.PaymentProvider {
	case "stripe":
		if cfg.StripeSecretKey == "" {
			return nil, errors.New("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=stripe")
		}
		return payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeReturnURL, log), nil
	case "fake":
		log.Warn("Using the fake payment gateway; no real charges will be made")
		return payment.NewFakeGateway(), nil
	default:
		return nil, fmt.Errorf("unknown PAYMENT_PROVIDER %q", cfg.PaymentProvider)
	}
}

// buildNotifications registers every configured channel. The returned func
// releases channel resources on shutdown.
func buildNotifications(cfg *config.Config, wa *whatsapp.Client, hub *websocket.Hub, log *logrus.Logger) (services.NotificationService, func()) {
	notifications := services.NewNotificationService(log)
	closers := []func() error{}

	mail := mailer.NewClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
	if mail.Enabled() {
		notifications.Register("email", services.NewEmailNotifier(mail))
	}

	if wa.Enabled() {
		notifications.Register("whatsapp", services.NewWhatsAppNotifier(wa))
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewKafkaProducer(cfg.KafkaBrokers, log)
		if err != nil {
			log.WithError(err).Error("Kafka unavailable; order events will not be published")
		} else {
			notifications.Register("kafka", producer)
			closers = append(closers, producer.Close)
		}
	}

	notifications.Register("staff_feed", hub)

	log.WithField("channels", notifications.Channels()).Info("Order notifications configured")
	return notifications, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.WithError(err).Warn("Failed to close notification channel")
			}
		}
	}
}
