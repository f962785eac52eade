package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約試行の総数（status: confirmed, insufficient_seats, not_found, error）
	BookingsTotal *prometheus.CounterVec

	// 予約トランザクションの所要時間（operation: book, cancel, expire）
	BookingTxDuration *prometheus.HistogramVec

	// キャンセル・期限切れで返却された座席数
	SeatsReleasedTotal *prometheus.CounterVec

	// 期限切れスイープで処理された予約数
	ExpiredBookingsTotal prometheus.Counter
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking attempts",
			},
			[]string{"status"},
		),
		BookingTxDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "booking_tx_duration_seconds",
				Help:    "Time spent in booking engine transactions",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		SeatsReleasedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seats_released_total",
				Help: "Seats returned to availability",
			},
			[]string{"cause"},
		),
		ExpiredBookingsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "expired_bookings_total",
				Help: "Pending bookings expired by the sweeper",
			},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.BookingTxDuration,
		m.SeatsReleasedTotal,
		m.ExpiredBookingsTotal,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
