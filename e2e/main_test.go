package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-show-booking/internal/api"
	"github.com/sanosuguru/go-show-booking/internal/api/handler"
	"github.com/sanosuguru/go-show-booking/internal/api/middleware"
	"github.com/sanosuguru/go-show-booking/internal/application"
	"github.com/sanosuguru/go-show-booking/internal/config"
	"github.com/sanosuguru/go-show-booking/internal/domain/seatassign"
	"github.com/sanosuguru/go-show-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-show-booking/internal/infrastructure/redis"
)

// TestServer はE2Eテスト用のサーバー
type TestServer struct {
	Echo *echo.Echo
}

// Request はHTTPリクエストを実行
func (s *TestServer) Request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

var (
	testServer  *TestServer
	testDB      *sqlx.DB
	redisClient *redis.Client
)

// TestMain はE2Eテストのエントリポイント
// パッケージ全体で1回だけサーバーを起動することで高速化
func TestMain(m *testing.M) {
	cfg := config.Load()

	// DB接続（未起動時はスキップ）
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		os.Exit(0)
	}
	testDB = db

	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		db.Close()
		os.Exit(0)
	}

	// Redis は任意
	var (
		holdManager *redisinfra.HoldManager
		cache       *redisinfra.AvailabilityCache
	)
	maintenanceRepo := postgres.NewMaintenanceRepository(db)
	exclusions := seatassign.MultiSource{maintenanceRepo}

	rc := redisinfra.NewClient(&cfg.Redis)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisinfra.Ping(pingCtx, rc); err == nil {
		redisClient = rc
		holdManager = redisinfra.NewHoldManager(rc)
		cache = redisinfra.NewAvailabilityCache(rc)
		exclusions = append(exclusions, holdManager)
	}
	cancelPing()

	// サービス初期化
	txManager := postgres.NewTxManager(db)
	showRepo := postgres.NewShowRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	seatRepo := postgres.NewSeatAssignmentRepository(db)
	userRepo := postgres.NewUserRepository(db)

	bookingService := application.NewBookingService(
		txManager, bookingRepo, showRepo, seatRepo, exclusions, cache, nil)
	showService := application.NewShowService(showRepo)
	userService := application.NewUserService(userRepo)
	adminService := application.NewAdminService(
		bookingService, showRepo, bookingRepo, seatRepo, maintenanceRepo, holdManager)

	showHandler := handler.NewShowHandler(showService, bookingService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	userHandler := handler.NewUserHandler(userService)
	adminHandler := handler.NewAdminHandler(adminService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Echo セットアップ
	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	middleware.SetupMiddleware(e)

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
	v1.GET("/users/:id", userHandler.GetByID)
	v1.GET("/users/:id/bookings", bookingHandler.GetUserBookings)

	admin := v1.Group("/admin")
	admin.GET("/shows/:id/seat-map", adminHandler.SeatMap)
	admin.GET("/shows/:id/occupancy", adminHandler.Occupancy)
	admin.POST("/shows/:id/block", adminHandler.BlockSeats)
	admin.POST("/shows/:id/unblock", adminHandler.UnblockSeats)
	admin.POST("/bookings/:id/cancel", adminHandler.ForceCancel)
	admin.POST("/bookings/expire", adminHandler.ExpireBookings)

	testServer = &TestServer{Echo: e}

	// テスト実行
	code := m.Run()

	// 最終クリーンアップ
	cleanupTables()
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()

	os.Exit(code)
}

// cleanupTables はテーブルをクリーンアップ
func cleanupTables() {
	testDB.Exec("TRUNCATE TABLE booking_seats, seat_maintenance, bookings, shows, users RESTART IDENTITY CASCADE")
	if redisClient != nil {
		redisClient.FlushDB(context.Background())
	}
}

// getTestServer は共有サーバーを取得（テスト前にテーブルをクリーンアップ）
func getTestServer(t *testing.T) *TestServer {
	t.Helper()
	if testServer == nil {
		t.Skip("テスト環境が利用できません")
	}
	cleanupTables()
	return testServer
}
