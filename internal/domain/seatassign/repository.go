package seatassign

import (
	"context"

	"github.com/sanosuguru/go-show-booking/internal/domain/transaction"
)

// Repository は座席割当リポジトリのインターフェース
type Repository interface {
	// ListNumbersByShow は公演の割当済み座席番号を取得する
	// tx が nil の場合は通常読み取り（予約外の参照クエリ向け）
	ListNumbersByShow(ctx context.Context, tx transaction.Tx, showID int64) ([]int, error)

	// ListNumbersByBooking は予約に割り当てられた座席番号を昇順で取得する
	ListNumbersByBooking(ctx context.Context, bookingID int64) ([]int, error)

	// Assign は座席を予約に割り当てる（トランザクション必須）
	// (show_id, seat_number) の一意制約違反は ErrSeatTaken になる
	Assign(ctx context.Context, tx transaction.Tx, bookingID, showID int64, seatNumber int) error

	// DeleteByBooking は予約の座席割当をすべて削除する（トランザクション必須）
	DeleteByBooking(ctx context.Context, tx transaction.Tx, bookingID int64) error
}

// ExclusionSource は割当から除外する座席の供給元
// メンテナンス座席やチェックアウト中のホールドがこれにあたる
type ExclusionSource interface {
	// ExcludedSeats は除外対象の座席番号集合を返す
	ExcludedSeats(ctx context.Context, showID int64) (NumberSet, error)
}
