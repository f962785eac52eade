package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	// 各テストで新しいレジストリを使用
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.BookingsTotal)
	assert.NotNil(t, m.BookingTxDuration)
	assert.NotNil(t, m.SeatsReleasedTotal)
	assert.NotNil(t, m.ExpiredBookingsTotal)
}

func TestHTTPRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/shows", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/bookings", "201").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/bookings", "409").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "http_requests_total" {
			found = true
			assert.Equal(t, 3, len(f.GetMetric()))
		}
	}
	assert.True(t, found, "http_requests_total metric not found")
}

func TestBookingsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	// 予約成功・失敗をカウント
	m.BookingsTotal.WithLabelValues("confirmed").Inc()
	m.BookingsTotal.WithLabelValues("confirmed").Inc()
	m.BookingsTotal.WithLabelValues("insufficient_seats").Inc()
	m.BookingsTotal.WithLabelValues("not_found").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "bookings_total" {
			found = true
			assert.Equal(t, 3, len(f.GetMetric()))
		}
	}
	assert.True(t, found, "bookings_total metric not found")
}

func TestBookingTxDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.BookingTxDuration.WithLabelValues("book").Observe(0.015)
	m.BookingTxDuration.WithLabelValues("cancel").Observe(0.005)
	m.BookingTxDuration.WithLabelValues("expire").Observe(0.002)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "booking_tx_duration_seconds" {
			found = true
		}
	}
	assert.True(t, found, "booking_tx_duration_seconds metric not found")
}

func TestSeatsReleasedTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.SeatsReleasedTotal.WithLabelValues("cancel").Add(3)
	m.SeatsReleasedTotal.WithLabelValues("expire").Add(2)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "seats_released_total" {
			found = true
			assert.Equal(t, 2, len(f.GetMetric()))
		}
	}
	assert.True(t, found, "seats_released_total metric not found")
}

func TestGet_ReturnsDefaultMetrics(t *testing.T) {
	// Getは defaultMetrics を返す
	// 注意: Init が呼ばれていない場合は nil を返す可能性がある
	m := Get()
	if m != nil {
		assert.NotNil(t, m.HTTPRequestsTotal)
	}
}

func TestInit_CreatesDefaultMetrics(t *testing.T) {
	// 既存のdefaultMetricsをバックアップ
	oldMetrics := defaultMetrics
	defer func() { defaultMetrics = oldMetrics }()

	// Initを呼ぶとデフォルトレジストリに登録するため、テストでは直接セット
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	defaultMetrics = m

	got := Get()
	assert.NotNil(t, got)
	assert.Equal(t, m, got)
}
