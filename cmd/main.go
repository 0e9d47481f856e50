package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"dinerhub/internal/analytics"
	"dinerhub/internal/caching"
	"dinerhub/internal/config"
	"dinerhub/internal/handlers"
	"dinerhub/internal/jobs/background"
	"dinerhub/internal/logger"
	"dinerhub/internal/middleware"
	"dinerhub/internal/repositories"
	"dinerhub/internal/services"
	"dinerhub/pkg/database"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New("dinerhub", "info").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New("dinerhub", cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	pool, err := database.NewPool(ctx, database.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	}, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(ctx, pool, log); err != nil {
			return err
		}
	}
	transactor := database.NewTransactor(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	defer cacheSvc.Close()

	// Object storage
	store, err := services.NewMinioStore(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
	if err != nil {
		return err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Warn("object storage unavailable, uploads will fail", "error", err)
	}

	// Create repositories
	userRepo := repositories.NewUserRepo(pool)
	roleRepo := repositories.NewRoleRepo(pool)
	permissionRepo := repositories.NewPermissionRepo(pool)
	rolePermissionRepo := repositories.NewRolePermissionRepo(pool)
	addressRepo := repositories.NewAddressRepo(pool)
	categoryRepo := repositories.NewCategoryRepo(pool)
	dishRepo := repositories.NewDishRepo(pool)
	cartRepo := repositories.NewCartRepo(pool)
	orderRepo := repositories.NewOrderRepo(pool)
	orderItemRepo := repositories.NewOrderItemRepo(pool)
	promotionRepo := repositories.NewPromotionRepo(pool)
	tableRepo := repositories.NewTableRepo(pool)
	reservationRepo := repositories.NewReservationRepo(pool)
	notificationRepo := repositories.NewNotificationRepo(pool)
	statsRepo := repositories.NewStatsRepo(pool)

	// Create services
	publisher := services.NewEventPublisher(cacheSvc, services.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic), log)
	defer publisher.Close()

	rbacSvc := services.NewRBACService(rolePermissionRepo, cacheSvc, log)
	authSvc := services.NewAuthService(userRepo, roleRepo, tableRepo, cacheSvc, services.NewLogOTPSender(log), cfg.Auth, log)
	userSvc := services.NewUserService(userRepo, roleRepo, addressRepo, authSvc, log)
	roleSvc := services.NewRoleService(transactor, roleRepo, permissionRepo, rolePermissionRepo, rbacSvc, log)
	permissionSvc := services.NewPermissionService(permissionRepo)
	categorySvc := services.NewCategoryService(categoryRepo)
	dishSvc := services.NewDishService(transactor, dishRepo, categoryRepo, cacheSvc, log)
	uploadSvc := services.NewUploadService(store, cfg.Minio.PublicURL+"/"+cfg.Minio.Bucket, log)
	tableSvc := services.NewTableService(tableRepo, cfg.Server.PublicBaseURL, log)
	cartSvc := services.NewCartService(cartRepo, dishRepo)
	promotionSvc := services.NewPromotionService(promotionRepo, log)
	notificationSvc := services.NewNotificationService(notificationRepo, publisher, cacheSvc, log)
	orderSvc := services.NewOrderService(transactor, orderRepo, orderItemRepo, cartRepo, dishRepo, addressRepo, tableRepo, promotionSvc, notificationSvc, cfg.Pricing, log)
	reservationSvc := services.NewReservationService(reservationRepo, tableRepo, cfg.Jobs.ReservationLength, log)
	analyticsSvc := analytics.NewAnalyticsService(statsRepo, cacheSvc, log)

	// Background jobs
	scheduler, err := background.NewJobScheduler(analyticsSvc, reservationSvc, cfg.Jobs, log)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Warn("job scheduler shutdown failed", "error", err)
		}
	}()

	// RBAC middleware
	gate := middleware.NewRBACMiddleware(rbacSvc)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{AllowOrigins: cfg.Server.AllowOrigins}))
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	// Version middleware
	versionMiddleware := middleware.NewVersionMiddleware()
	e.Use(versionMiddleware.APIVersionResolver())

	handlers.RegisterRoutes(e, handlers.Handlers{
		Health:        handlers.NewHealthHandlers(pool, cacheSvc, version),
		Auth:          handlers.NewAuthHandlers(authSvc),
		Users:         handlers.NewUserHandlers(userSvc, analyticsSvc),
		Access:        handlers.NewAccessHandlers(roleSvc, permissionSvc),
		Categories:    handlers.NewCategoryHandlers(categorySvc),
		Dishes:        handlers.NewDishHandlers(dishSvc),
		Uploads:       handlers.NewUploadHandlers(uploadSvc),
		Tables:        handlers.NewTableHandlers(tableSvc),
		Cart:          handlers.NewCartHandlers(cartSvc),
		Orders:        handlers.NewOrderHandlers(orderSvc, gate),
		Promotions:    handlers.NewPromotionHandlers(promotionSvc),
		Reservations:  handlers.NewReservationHandlers(reservationSvc, gate),
		Notifications: handlers.NewNotificationHandlers(notificationSvc, gate, log),
	}, middleware.JWTMiddleware(authSvc), gate, versionMiddleware, middleware.NewAuditMiddleware(log))

	// Start server
	errCh := make(chan error, 1)
	go func() {
		log.Info("dinerhub server starting", "version", version, "port", cfg.Server.Port)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
