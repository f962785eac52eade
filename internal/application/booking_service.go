package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-show-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-booking/internal/domain/seatassign"
	"github.com/sanosuguru/go-show-booking/internal/domain/show"
	"github.com/sanosuguru/go-show-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-show-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-show-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-show-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-show-booking/internal/queue"
)

const defaultAvailabilityCacheTTL = 30 * time.Second

// BookingService は予約エンジンの本体
// 予約・キャンセル・期限切れの各操作を1トランザクションに閉じ、
// 公演行の行ロックで同一公演の変更を直列化する
type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	showRepo    show.Repository
	seatRepo    seatassign.Repository
	exclusions  seatassign.ExclusionSource
	cache       *redisinfra.AvailabilityCache
	publisher   *queue.Publisher
	cacheTTL    time.Duration
}

// NewBookingService はBookingServiceを作成する
// exclusions / cache / publisher は nil 可（縮退動作）
func NewBookingService(
	txm transaction.Manager,
	br booking.Repository,
	sr show.Repository,
	sar seatassign.Repository,
	exclusions seatassign.ExclusionSource,
	cache *redisinfra.AvailabilityCache,
	publisher *queue.Publisher,
) *BookingService {
	return &BookingService{
		txManager:   txm,
		bookingRepo: br,
		showRepo:    sr,
		seatRepo:    sar,
		exclusions:  exclusions,
		cache:       cache,
		publisher:   publisher,
		cacheTTL:    defaultAvailabilityCacheTTL,
	}
}

// SetCacheTTL は空席一覧キャッシュの有効期間を設定する
func (s *BookingService) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// BookSeats は count 席を原子的に予約する
// 手順: 公演行ロック → 空席検証 → PENDING予約作成 → 空席数減算 →
// 最小番号優先で座席割当 → CONFIRMED遷移 → コミット
// いずれかの段階で失敗すれば全体がロールバックされ、部分割当は残らない
// エンジン自身はリトライしない（検証エラーは業務結果であり一時障害ではない）
func (s *BookingService) BookSeats(ctx context.Context, userID, showID int64, count int) (*booking.Booking, error) {
	b := booking.NewBooking(userID, showID, count)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	// 除外座席（メンテナンス・ホールド）はロック取得前に集める
	// 割当済み座席は必ずロック下で読み直す
	excluded, err := s.excludedSeats(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("除外座席の取得に失敗: %w", err)
	}

	start := time.Now()
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		s.countBooking("error")
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 公演行ロック: 同一公演の予約者をここで直列化する
	sh, err := s.showRepo.GetForUpdate(ctx, tx, showID)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			s.countBooking("not_found")
		} else {
			s.countBooking("error")
		}
		return nil, err
	}

	if !sh.HasCapacity(count) {
		s.countBooking("insufficient_seats")
		return nil, &booking.InsufficientSeatsError{Available: sh.AvailableSeats, Requested: count}
	}

	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		s.countBooking("error")
		return nil, err
	}

	if err := s.showRepo.AdjustAvailable(ctx, tx, showID, -count); err != nil {
		s.countBooking("error")
		return nil, err
	}

	assigned, err := s.seatRepo.ListNumbersByShow(ctx, tx, showID)
	if err != nil {
		s.countBooking("error")
		return nil, err
	}

	seats := seatassign.AllocateLowestFirst(sh.TotalSeats, count, seatassign.NewNumberSet(assigned), excluded)
	if len(seats) < count {
		// カウンタ上は空席でも、除外座席により割当可能数が不足するケース
		s.countBooking("insufficient_seats")
		return nil, &booking.InsufficientSeatsError{Available: len(seats), Requested: count}
	}

	for _, n := range seats {
		if err := s.seatRepo.Assign(ctx, tx, b.ID, showID, n); err != nil {
			s.countBooking("error")
			return nil, err
		}
	}

	// 決済ゲートは持たないため、割当が済んだ予約は同一トランザクション内で確定する
	if err := b.Confirm(); err != nil {
		s.countBooking("error")
		return nil, err
	}
	if err := s.bookingRepo.UpdateStatus(ctx, tx, b.ID, booking.StatusConfirmed); err != nil {
		s.countBooking("error")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.countBooking("error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	b.SeatNumbers = seats

	s.observeTx("book", start)
	s.countBooking("confirmed")
	s.invalidateCache(ctx, showID)
	s.publishEvent(ctx, queue.RoutingBookingConfirmed, b)

	logger.Info("予約確定",
		zap.Int64("booking_id", b.ID),
		zap.Int64("show_id", showID),
		zap.Int("seats", count),
		zap.Ints("seat_numbers", seats),
	)
	return b, nil
}

// CancelBooking は予約をキャンセルし座席を返却する
// 2回目のキャンセルは ErrAlreadyCancelled で失敗する（冪等に成功しない）
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) (*booking.Booking, error) {
	start := time.Now()
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	b, err := s.bookingRepo.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := b.Cancel(); err != nil {
		return nil, err
	}

	if err := s.bookingRepo.UpdateStatus(ctx, tx, b.ID, booking.StatusCancelled); err != nil {
		return nil, err
	}
	if err := s.showRepo.AdjustAvailable(ctx, tx, b.ShowID, b.SeatsBooked); err != nil {
		return nil, err
	}
	if err := s.seatRepo.DeleteByBooking(ctx, tx, b.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.observeTx("cancel", start)
	s.countReleased("cancel", b.SeatsBooked)
	s.invalidateCache(ctx, b.ShowID)
	s.publishEvent(ctx, queue.RoutingBookingCancelled, b)

	logger.Info("予約キャンセル",
		zap.Int64("booking_id", b.ID),
		zap.Int64("show_id", b.ShowID),
		zap.Int("seats_released", b.SeatsBooked),
	)
	return b, nil
}

// ExpireOldBookings は期限を過ぎた保留中予約を期限切れにし座席を返却する
// 予約ごとに独立したトランザクションで処理し、1件の失敗が他を妨げない
// 戻り値は処理に成功した件数
func (s *BookingService) ExpireOldBookings(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.bookingRepo.GetPendingOlderThan(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("期限切れ予約の検索に失敗: %w", err)
	}

	expired := 0
	for _, b := range stale {
		if err := s.expireOne(ctx, b.ID); err != nil {
			logger.Error("予約の期限切れ処理に失敗",
				zap.Int64("booking_id", b.ID),
				zap.Error(err),
			)
			continue
		}
		expired++
	}
	if m := metrics.Get(); m != nil && expired > 0 {
		m.ExpiredBookingsTotal.Add(float64(expired))
	}
	return expired, nil
}

// expireOne は1予約の期限切れ処理を1トランザクションで行う
func (s *BookingService) expireOne(ctx context.Context, bookingID int64) error {
	start := time.Now()
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 行ロック下で再検証（スイープと並行するキャンセルとの競合を避ける）
	b, err := s.bookingRepo.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if err := b.Expire(); err != nil {
		return err
	}

	if err := s.bookingRepo.UpdateStatus(ctx, tx, b.ID, booking.StatusExpired); err != nil {
		return err
	}
	if err := s.showRepo.AdjustAvailable(ctx, tx, b.ShowID, b.SeatsBooked); err != nil {
		return err
	}
	if err := s.seatRepo.DeleteByBooking(ctx, tx, b.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	s.observeTx("expire", start)
	s.countReleased("expire", b.SeatsBooked)
	s.invalidateCache(ctx, b.ShowID)
	s.publishEvent(ctx, queue.RoutingBookingExpired, b)
	return nil
}

// GetAvailableSeats は公演の空席番号を昇順で返す
// ロックなしの読み取りで多少の遅延は許容する（予約時にロック下で再検証される）
func (s *BookingService) GetAvailableSeats(ctx context.Context, showID int64) ([]int, error) {
	if s.cache != nil {
		seats, err := s.cache.GetAvailableSeats(ctx, showID)
		if err == nil {
			return seats, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	sh, err := s.showRepo.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}
	assigned, err := s.seatRepo.ListNumbersByShow(ctx, nil, showID)
	if err != nil {
		return nil, err
	}
	excluded, err := s.excludedSeats(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("除外座席の取得に失敗: %w", err)
	}

	taken := seatassign.NewNumberSet(assigned)
	available := make([]int, 0, sh.TotalSeats-len(assigned))
	for n := 1; n <= sh.TotalSeats; n++ {
		if taken.Contains(n) || excluded.Contains(n) {
			continue
		}
		available = append(available, n)
	}

	if s.cache != nil {
		if err := s.cache.SetAvailableSeats(ctx, showID, available, s.cacheTTL); err != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(err))
		}
	}
	return available, nil
}

// GetBooking は予約を座席番号付きで取得する
func (s *BookingService) GetBooking(ctx context.Context, id int64) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	seats, err := s.seatRepo.ListNumbersByBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	b.SeatNumbers = seats
	return b, nil
}

// GetUserBookings はユーザーの予約一覧を取得する
func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) ([]*booking.Booking, error) {
	return s.bookingRepo.GetByUserID(ctx, userID)
}

// GetShowBookings は公演の確定済み予約一覧を取得する（観測用）
func (s *BookingService) GetShowBookings(ctx context.Context, showID int64) ([]*booking.Booking, error) {
	return s.bookingRepo.GetConfirmedByShowID(ctx, showID)
}

func (s *BookingService) excludedSeats(ctx context.Context, showID int64) (seatassign.NumberSet, error) {
	if s.exclusions == nil {
		return make(seatassign.NumberSet), nil
	}
	return s.exclusions.ExcludedSeats(ctx, showID)
}

func (s *BookingService) invalidateCache(ctx context.Context, showID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, showID); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.Int64("show_id", showID), zap.Error(err))
	}
}

func (s *BookingService) publishEvent(ctx context.Context, routingKey string, b *booking.Booking) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishAsync(ctx, routingKey, queue.BookingEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		ShowID:      b.ShowID,
		SeatsBooked: b.SeatsBooked,
		SeatNumbers: b.SeatNumbers,
		Status:      string(b.Status),
		OccurredAt:  time.Now(),
	})
}

func (s *BookingService) countBooking(status string) {
	if m := metrics.Get(); m != nil {
		m.BookingsTotal.WithLabelValues(status).Inc()
	}
}

func (s *BookingService) countReleased(cause string, seats int) {
	if m := metrics.Get(); m != nil {
		m.SeatsReleasedTotal.WithLabelValues(cause).Add(float64(seats))
	}
}

func (s *BookingService) observeTx(operation string, start time.Time) {
	if m := metrics.Get(); m != nil {
		m.BookingTxDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
