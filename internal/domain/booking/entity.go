package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// Booking は予約エンティティを表す
type Booking struct {
	ID          int64
	UserID      int64
	ShowID      int64
	SeatsBooked int
	Status      Status
	SeatNumbers []int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBooking は新しい予約をPENDING状態で作成する
func NewBooking(userID, showID int64, seatsBooked int) *Booking {
	now := time.Now()
	return &Booking{
		UserID:      userID,
		ShowID:      showID,
		SeatsBooked: seatsBooked,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsSettled は予約が終端状態かを返す
func (b *Booking) IsSettled() bool {
	return b.Status != StatusPending
}

// Confirm は予約を確定する
func (b *Booking) Confirm() error {
	if b.Status != StatusPending {
		return ErrBookingNotPending
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = time.Now()
	return nil
}

// Cancel は予約をキャンセルする
// 2回目のキャンセルは必ずエラーになる（黙って成功してはならない）
func (b *Booking) Cancel() error {
	if b.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	b.Status = StatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

// Expire は保留中の予約を期限切れにする
func (b *Booking) Expire() error {
	if b.Status != StatusPending {
		return ErrBookingNotPending
	}
	b.Status = StatusExpired
	b.UpdatedAt = time.Now()
	return nil
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.UserID == 0 {
		return ErrUserIDRequired
	}
	if b.ShowID == 0 {
		return ErrShowIDRequired
	}
	if b.SeatsBooked <= 0 {
		return ErrInvalidSeatCount
	}
	return nil
}
