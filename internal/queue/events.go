package queue

import "time"

// 予約ライフサイクルイベントのルーティングキー
const (
	BookingEventsExchange  = "booking.events"
	RoutingBookingConfirmed = "booking.confirmed"
	RoutingBookingCancelled = "booking.cancelled"
	RoutingBookingExpired   = "booking.expired"
)

// BookingEvent は下流の通知・分析コンシューマへ配信するペイロード
// 主DBへの問い合わせなしで処理できるだけの情報を持つ
type BookingEvent struct {
	BookingID   int64     `json:"booking_id"`
	UserID      int64     `json:"user_id"`
	ShowID      int64     `json:"show_id"`
	SeatsBooked int       `json:"seats_booked"`
	SeatNumbers []int     `json:"seat_numbers,omitempty"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}
