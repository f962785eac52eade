package booking

import (
	"errors"
	"fmt"
)

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound   = errors.New("予約が見つかりません")
	ErrBookingNotPending = errors.New("予約は保留中ではありません")
	ErrAlreadyCancelled  = errors.New("予約は既にキャンセルされています")
	ErrUserIDRequired    = errors.New("ユーザーIDは必須です")
	ErrShowIDRequired    = errors.New("公演IDは必須です")
	ErrInvalidSeatCount  = errors.New("予約席数は1以上である必要があります")
)

// InsufficientSeatsError は空席不足を表す
// 呼び出し側へ空席数と要求席数の両方を報告する
type InsufficientSeatsError struct {
	Available int
	Requested int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("空席が不足しています（空席: %d, 要求: %d）", e.Available, e.Requested)
}

// IsInsufficientSeats は err が空席不足エラーかを返す
func IsInsufficientSeats(err error) bool {
	var target *InsufficientSeatsError
	return errors.As(err, &target)
}
