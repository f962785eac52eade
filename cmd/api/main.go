package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-show-booking/internal/api"
	"github.com/sanosuguru/go-show-booking/internal/api/handler"
	apimiddleware "github.com/sanosuguru/go-show-booking/internal/api/middleware"
	"github.com/sanosuguru/go-show-booking/internal/application"
	"github.com/sanosuguru/go-show-booking/internal/config"
	"github.com/sanosuguru/go-show-booking/internal/domain/seatassign"
	"github.com/sanosuguru/go-show-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-show-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-show-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-show-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-show-booking/internal/queue"
	"github.com/sanosuguru/go-show-booking/internal/worker"
)

func main() {
	cfg := config.Load()
	defer logger.Sync()

	m := metrics.Init()

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	showRepo := postgres.NewShowRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	seatRepo := postgres.NewSeatAssignmentRepository(db)
	userRepo := postgres.NewUserRepository(db)
	maintenanceRepo := postgres.NewMaintenanceRepository(db)

	// Redis は任意（未接続なら仮押さえとキャッシュなしで動く）
	var (
		holdManager *redisinfra.HoldManager
		cache       *redisinfra.AvailabilityCache
	)
	exclusions := seatassign.MultiSource{maintenanceRepo}

	redisClient := redisinfra.NewClient(&cfg.Redis)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	pingErr := redisinfra.Ping(pingCtx, redisClient)
	cancelPing()
	if pingErr != nil {
		logger.Warn("Redis未接続のため仮押さえとキャッシュを無効化", zap.Error(pingErr))
		redisClient = nil
	} else {
		holdManager = redisinfra.NewHoldManager(redisClient)
		cache = redisinfra.NewAvailabilityCache(redisClient)
		exclusions = append(exclusions, holdManager)
	}

	// RabbitMQ は設定で有効な場合のみ
	var publisher *queue.Publisher
	if cfg.Queue.Enabled {
		publisher, err = queue.NewPublisher(cfg.Queue.URL)
		if err != nil {
			logger.Warn("RabbitMQ接続に失敗したためイベント配信を無効化", zap.Error(err))
		} else {
			defer publisher.Close()
		}
	}

	// サービス
	bookingService := application.NewBookingService(
		txManager, bookingRepo, showRepo, seatRepo, exclusions, cache, publisher)
	bookingService.SetCacheTTL(cfg.Booking.AvailabilityCacheTTL)
	showService := application.NewShowService(showRepo)
	userService := application.NewUserService(userRepo)
	adminService := application.NewAdminService(
		bookingService, showRepo, bookingRepo, seatRepo, maintenanceRepo, holdManager)

	// 期限切れスイープワーカー
	expirer := worker.NewBookingExpirer(bookingService, cfg.Booking.SweepInterval, cfg.Booking.ExpiryWindow)
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	go expirer.Start(workerCtx)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	apimiddleware.SetupMiddleware(e)
	e.Use(apimiddleware.PrometheusMiddleware(m))

	registerRoutes(e, cfg, db, redisClient, bookingService, showService, userService, adminService, holdManager)

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()
	logger.Info("サーバー起動", zap.String("port", cfg.Server.Port))

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("シャットダウン開始")

	// ワーカーを先に止め、進行中のリクエストを待つ
	cancelWorker()
	expirer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}

func registerRoutes(
	e *echo.Echo,
	cfg *config.Config,
	db *sqlx.DB,
	redisClient *redis.Client,
	bookingService *application.BookingService,
	showService *application.ShowService,
	userService *application.UserService,
	adminService *application.AdminService,
	holdManager *redisinfra.HoldManager,
) {
	healthHandler := handler.NewHealthHandler(db, redisClient)
	showHandler := handler.NewShowHandler(showService, bookingService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	userHandler := handler.NewUserHandler(userService)
	adminHandler := handler.NewAdminHandler(adminService)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), apimiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)
	v1.GET("/health/ready", healthHandler.Ready)

	v1.POST("/shows", showHandler.Create)
	v1.GET("/shows", showHandler.List)
	v1.GET("/shows/:id", showHandler.GetByID)
	v1.PUT("/shows/:id", showHandler.Update)
	v1.DELETE("/shows/:id", showHandler.Delete)
	v1.GET("/shows/:id/seats", showHandler.AvailableSeats)
	v1.GET("/shows/:id/stats", showHandler.Stats)
	v1.GET("/shows/:id/bookings", bookingHandler.GetShowBookings)

	v1.POST("/bookings", bookingHandler.Create)
	v1.GET("/bookings/:id", bookingHandler.GetByID)
	v1.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	v1.POST("/users", userHandler.Register)
	v1.GET("/users", userHandler.List)
	v1.GET("/users/:id", userHandler.GetByID)
	v1.GET("/users/:id/bookings", bookingHandler.GetUserBookings)

	admin := v1.Group("/admin")
	admin.GET("/shows/:id/seat-map", adminHandler.SeatMap)
	admin.GET("/shows/:id/occupancy", adminHandler.Occupancy)
	admin.POST("/shows/:id/block", adminHandler.BlockSeats)
	admin.POST("/shows/:id/unblock", adminHandler.UnblockSeats)
	admin.POST("/shows/:id/release-holds", adminHandler.ReleaseHolds)
	admin.POST("/bookings/:id/cancel", adminHandler.ForceCancel)
	admin.POST("/bookings/expire", adminHandler.ExpireBookings)

	// 仮押さえはRedis接続時のみ公開
	if holdManager != nil {
		holdHandler := handler.NewHoldHandler(holdManager, cfg.Booking.HoldTTL)
		v1.POST("/shows/:id/holds", holdHandler.Hold)
		v1.POST("/shows/:id/holds/release", holdHandler.Release)
	}
}
