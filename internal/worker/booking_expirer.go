package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-show-booking/internal/pkg/logger"
)

// BookingSweeper は期限切れの保留中予約を期限切れにするインターフェース
type BookingSweeper interface {
	ExpireOldBookings(ctx context.Context, olderThan time.Duration) (int, error)
}

// BookingExpirer は保留中のまま放置された予約を定期的に回収するワーカー
// 予約ごとに独立したトランザクションで処理されるため、
// 1回のスイープで一部が失敗しても残りは回収される
type BookingExpirer struct {
	bookingService BookingSweeper
	interval       time.Duration
	expiryWindow   time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewBookingExpirer は新しいスイープワーカーを作成
func NewBookingExpirer(
	bs BookingSweeper,
	interval time.Duration,
	expiryWindow time.Duration,
) *BookingExpirer {
	return &BookingExpirer{
		bookingService: bs,
		interval:       interval,
		expiryWindow:   expiryWindow,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はワーカーを開始
func (w *BookingExpirer) Start(ctx context.Context) {
	logger.Info("予約スイープワーカー開始",
		zap.Duration("interval", w.interval),
		zap.Duration("expiry_window", w.expiryWindow),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("予約スイープワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("予約スイープワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop はワーカーを停止
func (w *BookingExpirer) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// sweep は期限切れ予約を回収
func (w *BookingExpirer) sweep(ctx context.Context) {
	log := logger.Get()
	log.Debug("期限切れ予約のスイープ開始")

	count, err := w.bookingService.ExpireOldBookings(ctx, w.expiryWindow)
	if err != nil {
		log.Error("期限切れ予約のスイープ失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("予約を期限切れにした", zap.Int("count", count))
	} else {
		log.Debug("期限切れ予約なし")
	}
}
