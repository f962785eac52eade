package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-show-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-booking/internal/domain/seatassign"
	"github.com/sanosuguru/go-show-booking/internal/domain/show"
	"github.com/sanosuguru/go-show-booking/internal/pkg/logger"
)

// SeatStatus は座席マップ上の座席状態
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusBooked    SeatStatus = "booked"
	SeatStatusBlocked   SeatStatus = "blocked"
	SeatStatusHeld      SeatStatus = "held"
)

// SeatMapEntry は座席マップの1座席分の情報
type SeatMapEntry struct {
	SeatNumber int        `json:"seat_number"`
	Status     SeatStatus `json:"status"`
	BookingID  int64      `json:"booking_id,omitempty"`
}

// MaintenanceStore はメンテナンス座席の登録・解除を行う
type MaintenanceStore interface {
	Block(ctx context.Context, showID int64, seatNumbers []int, reason string) error
	Unblock(ctx context.Context, showID int64, seatNumbers []int) error
	ExcludedSeats(ctx context.Context, showID int64) (seatassign.NumberSet, error)
}

// HoldStore はチェックアウトホールドの参照・強制解放を行う
type HoldStore interface {
	HeldSeats(ctx context.Context, showID int64) (seatassign.NumberSet, error)
	ForceRelease(ctx context.Context, showID int64, seatNumbers []int) (int, error)
}

// AdminService は管理者向けの座席運用操作を提供する
// 強制キャンセルは予約エンジンのキャンセル経路をそのまま使う
type AdminService struct {
	bookingSvc  *BookingService
	showRepo    show.Repository
	bookingRepo booking.Repository
	seatRepo    seatassign.Repository
	maintenance MaintenanceStore
	holds       HoldStore
}

// NewAdminService はAdminServiceを作成する
// holds は nil 可（Redis未接続時はホールド関連操作が縮退する）
func NewAdminService(
	bookingSvc *BookingService,
	showRepo show.Repository,
	bookingRepo booking.Repository,
	seatRepo seatassign.Repository,
	maintenance MaintenanceStore,
	holds HoldStore,
) *AdminService {
	return &AdminService{
		bookingSvc:  bookingSvc,
		showRepo:    showRepo,
		bookingRepo: bookingRepo,
		seatRepo:    seatRepo,
		maintenance: maintenance,
		holds:       holds,
	}
}

// ShowSeatMap は公演の全座席の状態マップを返す
// 優先順位: booked > blocked > held > available
func (s *AdminService) ShowSeatMap(ctx context.Context, showID int64) ([]SeatMapEntry, error) {
	sh, err := s.showRepo.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	// 座席→予約IDの対応は確定済み予約から組み立てる
	bookings, err := s.bookingRepo.GetConfirmedByShowID(ctx, showID)
	if err != nil {
		return nil, err
	}
	seatOwner := make(map[int]int64)
	for _, b := range bookings {
		for _, n := range b.SeatNumbers {
			seatOwner[n] = b.ID
		}
	}

	assigned, err := s.seatRepo.ListNumbersByShow(ctx, nil, showID)
	if err != nil {
		return nil, err
	}
	taken := seatassign.NewNumberSet(assigned)

	blocked, err := s.maintenance.ExcludedSeats(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("ブロック座席の取得に失敗: %w", err)
	}

	held := make(seatassign.NumberSet)
	if s.holds != nil {
		held, err = s.holds.HeldSeats(ctx, showID)
		if err != nil {
			return nil, fmt.Errorf("ホールド座席の取得に失敗: %w", err)
		}
	}

	entries := make([]SeatMapEntry, 0, sh.TotalSeats)
	for n := 1; n <= sh.TotalSeats; n++ {
		entry := SeatMapEntry{SeatNumber: n, Status: SeatStatusAvailable}
		switch {
		case taken.Contains(n):
			entry.Status = SeatStatusBooked
			entry.BookingID = seatOwner[n]
		case blocked.Contains(n):
			entry.Status = SeatStatusBlocked
		case held.Contains(n):
			entry.Status = SeatStatusHeld
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ForceCancelBooking は管理者権限で予約をキャンセルする
// 座席返却・キャッシュ無効化・イベント発行は通常キャンセルと同一経路
func (s *AdminService) ForceCancelBooking(ctx context.Context, bookingID int64) (*booking.Booking, error) {
	b, err := s.bookingSvc.CancelBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	logger.Info("管理者による強制キャンセル",
		zap.Int64("booking_id", b.ID),
		zap.Int64("show_id", b.ShowID),
	)
	return b, nil
}

// BlockSeats は座席をメンテナンス対象としてブロックする
// 割当済み座席のブロックは拒否する（既存予約を壊さない）
func (s *AdminService) BlockSeats(ctx context.Context, showID int64, seatNumbers []int, reason string) error {
	sh, err := s.showRepo.GetByID(ctx, showID)
	if err != nil {
		return err
	}
	for _, n := range seatNumbers {
		if n < 1 || n > sh.TotalSeats {
			return fmt.Errorf("座席番号 %d は範囲外です（1〜%d）", n, sh.TotalSeats)
		}
	}

	assigned, err := s.seatRepo.ListNumbersByShow(ctx, nil, showID)
	if err != nil {
		return err
	}
	taken := seatassign.NewNumberSet(assigned)
	for _, n := range seatNumbers {
		if taken.Contains(n) {
			return fmt.Errorf("座席 %d: %w", n, seatassign.ErrSeatTaken)
		}
	}

	if err := s.maintenance.Block(ctx, showID, seatNumbers, reason); err != nil {
		return err
	}
	s.bookingSvc.invalidateCache(ctx, showID)
	logger.Info("座席をブロック",
		zap.Int64("show_id", showID),
		zap.Ints("seat_numbers", seatNumbers),
		zap.String("reason", reason),
	)
	return nil
}

// UnblockSeats は座席のメンテナンスブロックを解除する
func (s *AdminService) UnblockSeats(ctx context.Context, showID int64, seatNumbers []int) error {
	if err := s.maintenance.Unblock(ctx, showID, seatNumbers); err != nil {
		return err
	}
	s.bookingSvc.invalidateCache(ctx, showID)
	logger.Info("座席ブロックを解除",
		zap.Int64("show_id", showID),
		zap.Ints("seat_numbers", seatNumbers),
	)
	return nil
}

// ReleaseHolds は所有者確認なしでチェックアウトホールドを解放する
// 放置されたホールドの手動回収用。解放できた座席数を返す
func (s *AdminService) ReleaseHolds(ctx context.Context, showID int64, seatNumbers []int) (int, error) {
	if s.holds == nil {
		return 0, nil
	}
	released, err := s.holds.ForceRelease(ctx, showID, seatNumbers)
	if err != nil {
		return 0, err
	}
	if released > 0 {
		s.bookingSvc.invalidateCache(ctx, showID)
		logger.Info("ホールドを強制解放",
			zap.Int64("show_id", showID),
			zap.Int("released", released),
		)
	}
	return released, nil
}

// ExpireBookings は期限切れ保留予約の掃き出しを即時実行する
// 定期スイープを待たずに回収したいときの管理者向け入口
func (s *AdminService) ExpireBookings(ctx context.Context, olderThan time.Duration) (int, error) {
	return s.bookingSvc.ExpireOldBookings(ctx, olderThan)
}

// OccupancyReport は公演の稼働状況レポート
type OccupancyReport struct {
	ShowID            int64   `json:"show_id"`
	Name              string  `json:"name"`
	TotalSeats        int     `json:"total_seats"`
	AvailableSeats    int     `json:"available_seats"`
	OccupancyRate     float64 `json:"occupancy_rate"`
	ConfirmedBookings int     `json:"confirmed_bookings"`
	PendingBookings   int     `json:"pending_bookings"`
	CancelledBookings int     `json:"cancelled_bookings"`
	ExpiredBookings   int     `json:"expired_bookings"`
}

// Occupancy は公演の稼働率と予約内訳を集計する
func (s *AdminService) Occupancy(ctx context.Context, showID int64) (*OccupancyReport, error) {
	sh, err := s.showRepo.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	stats, err := s.showRepo.GetStats(ctx, showID)
	if err != nil {
		return nil, err
	}
	return &OccupancyReport{
		ShowID:            sh.ID,
		Name:              sh.Name,
		TotalSeats:        sh.TotalSeats,
		AvailableSeats:    sh.AvailableSeats,
		OccupancyRate:     sh.OccupancyRate(),
		ConfirmedBookings: stats.ConfirmedBookings,
		PendingBookings:   stats.PendingBookings,
		CancelledBookings: stats.CancelledBookings,
		ExpiredBookings:   stats.ExpiredBookings,
	}, nil
}
