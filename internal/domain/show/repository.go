package show

import (
	"context"

	"github.com/sanosuguru/go-show-booking/internal/domain/transaction"
)

// Stats は公演の予約集計を表す
type Stats struct {
	TotalBookings     int
	ConfirmedBookings int
	PendingBookings   int
	CancelledBookings int
	ExpiredBookings   int
	SeatsSold         int
}

// Repository は公演リポジトリのインターフェース
type Repository interface {
	// Create は新しい公演を作成する
	Create(ctx context.Context, s *Show) error

	// GetByID はIDから公演を取得する
	GetByID(ctx context.Context, id int64) (*Show, error)

	// GetForUpdate は公演行を行ロック付きで取得する（トランザクション必須）
	// 同一公演の予約・キャンセルを直列化する唯一のポイント
	GetForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*Show, error)

	// ListUpcoming は開演前の公演一覧を取得する
	ListUpcoming(ctx context.Context) ([]*Show, error)

	// ListByType は種別ごとの公演一覧を取得する
	ListByType(ctx context.Context, showType Type) ([]*Show, error)

	// Update は公演の基本情報を更新する
	Update(ctx context.Context, s *Show) error

	// Delete は公演を削除する
	Delete(ctx context.Context, id int64) error

	// AdjustAvailable は空席数を増減する（トランザクション必須）
	// delta が負なら予約による減算、正ならキャンセル・期限切れによる返却
	AdjustAvailable(ctx context.Context, tx transaction.Tx, id int64, delta int) error

	// GetStats は公演の予約集計を取得する
	GetStats(ctx context.Context, id int64) (*Stats, error)
}
