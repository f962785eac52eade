package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBookingSweeper はBookingSweeperのモック
type MockBookingSweeper struct {
	mock.Mock
}

func (m *MockBookingSweeper) ExpireOldBookings(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

func TestNewBookingExpirer(t *testing.T) {
	mockService := new(MockBookingSweeper)
	interval := 1 * time.Minute
	expiryWindow := 2 * time.Minute

	expirer := NewBookingExpirer(mockService, interval, expiryWindow)

	assert.NotNil(t, expirer)
	assert.Equal(t, interval, expirer.interval)
	assert.Equal(t, expiryWindow, expirer.expiryWindow)
	assert.NotNil(t, expirer.stopCh)
	assert.NotNil(t, expirer.doneCh)
}

func TestBookingExpirer_Sweep(t *testing.T) {
	t.Run("正常にスイープが実行される", func(t *testing.T) {
		mockService := new(MockBookingSweeper)
		mockService.On("ExpireOldBookings", mock.Anything, 2*time.Minute).Return(5, nil)

		expirer := &BookingExpirer{
			bookingService: mockService,
			interval:       1 * time.Minute,
			expiryWindow:   2 * time.Minute,
			stopCh:         make(chan struct{}),
			doneCh:         make(chan struct{}),
		}

		expirer.sweep(context.Background())

		mockService.AssertExpectations(t)
	})

	t.Run("対象がない場合も正常に動作する", func(t *testing.T) {
		mockService := new(MockBookingSweeper)
		mockService.On("ExpireOldBookings", mock.Anything, 2*time.Minute).Return(0, nil)

		expirer := &BookingExpirer{
			bookingService: mockService,
			interval:       1 * time.Minute,
			expiryWindow:   2 * time.Minute,
			stopCh:         make(chan struct{}),
			doneCh:         make(chan struct{}),
		}

		expirer.sweep(context.Background())

		mockService.AssertExpectations(t)
	})

	t.Run("エラーが発生しても継続する", func(t *testing.T) {
		mockService := new(MockBookingSweeper)
		mockService.On("ExpireOldBookings", mock.Anything, 2*time.Minute).Return(0, assert.AnError)

		expirer := &BookingExpirer{
			bookingService: mockService,
			interval:       1 * time.Minute,
			expiryWindow:   2 * time.Minute,
			stopCh:         make(chan struct{}),
			doneCh:         make(chan struct{}),
		}

		// パニックしないことを確認
		expirer.sweep(context.Background())

		mockService.AssertExpectations(t)
	})
}

func TestBookingExpirer_StartStop(t *testing.T) {
	t.Run("開始と停止が正常に動作する", func(t *testing.T) {
		mockService := new(MockBookingSweeper)
		// sweep が呼ばれる可能性があるので、任意回数マッチさせる
		mockService.On("ExpireOldBookings", mock.Anything, 100*time.Millisecond).Return(0, nil).Maybe()

		expirer := NewBookingExpirer(mockService, 50*time.Millisecond, 100*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go expirer.Start(ctx)

		time.Sleep(120 * time.Millisecond)

		expirer.Stop()

		select {
		case <-expirer.doneCh:
			// 正常に終了
		case <-time.After(1 * time.Second):
			t.Error("expirer did not stop in time")
		}
	})

	t.Run("コンテキストキャンセルで停止する", func(t *testing.T) {
		mockService := new(MockBookingSweeper)
		mockService.On("ExpireOldBookings", mock.Anything, 100*time.Millisecond).Return(0, nil).Maybe()

		expirer := NewBookingExpirer(mockService, 50*time.Millisecond, 100*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			expirer.Start(ctx)
			close(done)
		}()

		time.Sleep(80 * time.Millisecond)
		cancel()

		select {
		case <-done:
			// 正常に終了
		case <-time.After(1 * time.Second):
			t.Error("expirer did not stop after context cancel")
		}
	})
}
