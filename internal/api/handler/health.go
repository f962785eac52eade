package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler はヘルスチェックハンドラー
// db / rdb は nil 可（未接続の依存はチェック対象から外れる）
type HealthHandler struct {
	db  *sqlx.DB
	rdb *redis.Client
}

// NewHealthHandler はHealthHandlerを作成する
func NewHealthHandler(db *sqlx.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse は依存コンポーネントごとの状態を含むレスポンス
type ReadyResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	Timestamp  string            `json:"timestamp"`
}

// Check は生存確認を行う（依存には触れない）
// @Summary ヘルスチェック
// @Description プロセスの生存を確認する
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Ready は依存コンポーネントへの疎通を確認する
// PostgreSQL が落ちていれば503、Redis は任意依存なので劣化扱いで200を返す
// @Summary レディネスチェック
// @Description データベースとRedisへの疎通を確認する
// @Tags health
// @Produce json
// @Success 200 {object} ReadyResponse
// @Failure 503 {object} ReadyResponse
// @Router /health/ready [get]
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string)
	overall := "ok"

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			components["postgres"] = "down"
			overall = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			components["postgres"] = "ok"
		}
	}

	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			components["redis"] = "down"
			if overall == "ok" {
				overall = "degraded"
			}
		} else {
			components["redis"] = "ok"
		}
	}

	return c.JSON(status, ReadyResponse{
		Status:     overall,
		Components: components,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}
