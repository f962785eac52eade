package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-show-booking/internal/application"
	"github.com/sanosuguru/go-show-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-booking/internal/domain/show"
	"github.com/sanosuguru/go-show-booking/internal/domain/user"
)

// ShowServiceInterface は公演サービスのインターフェース
type ShowServiceInterface interface {
	CreateShow(ctx context.Context, input application.CreateShowInput) (*show.Show, error)
	GetShow(ctx context.Context, id int64) (*show.Show, error)
	ListUpcomingShows(ctx context.Context) ([]*show.Show, error)
	ListShowsByType(ctx context.Context, showType show.Type) ([]*show.Show, error)
	UpdateShow(ctx context.Context, input application.UpdateShowInput) (*show.Show, error)
	DeleteShow(ctx context.Context, id int64) error
	GetShowStats(ctx context.Context, id int64) (*show.Show, *show.Stats, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	BookSeats(ctx context.Context, userID, showID int64, count int) (*booking.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64) (*booking.Booking, error)
	GetBooking(ctx context.Context, id int64) (*booking.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*booking.Booking, error)
	GetShowBookings(ctx context.Context, showID int64) ([]*booking.Booking, error)
	GetAvailableSeats(ctx context.Context, showID int64) ([]int, error)
}

// UserServiceInterface はユーザーサービスのインターフェース
type UserServiceInterface interface {
	GetOrCreateUser(ctx context.Context, name, email string) (*user.User, error)
	GetUser(ctx context.Context, id int64) (*user.User, error)
	ListUsers(ctx context.Context) ([]*user.User, error)
}

// AdminServiceInterface は管理者サービスのインターフェース
type AdminServiceInterface interface {
	ShowSeatMap(ctx context.Context, showID int64) ([]application.SeatMapEntry, error)
	ForceCancelBooking(ctx context.Context, bookingID int64) (*booking.Booking, error)
	BlockSeats(ctx context.Context, showID int64, seatNumbers []int, reason string) error
	UnblockSeats(ctx context.Context, showID int64, seatNumbers []int) error
	ReleaseHolds(ctx context.Context, showID int64, seatNumbers []int) (int, error)
	Occupancy(ctx context.Context, showID int64) (*application.OccupancyReport, error)
	ExpireBookings(ctx context.Context, olderThan time.Duration) (int, error)
}

// HoldServiceInterface はチェックアウトホールドのインターフェース
type HoldServiceInterface interface {
	HoldSeats(ctx context.Context, showID int64, seatNumbers []int, ttl time.Duration) (string, error)
	ReleaseHolds(ctx context.Context, showID int64, seatNumbers []int, token string) error
}
