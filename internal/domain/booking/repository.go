package booking

import (
	"context"
	"time"

	"github.com/sanosuguru/go-show-booking/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id int64) (*Booking, error)

	// GetForUpdate は予約行を行ロック付きで取得する（トランザクション必須）
	GetForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*Booking, error)

	// GetByUserID はユーザーの予約一覧を取得する
	GetByUserID(ctx context.Context, userID int64) ([]*Booking, error)

	// GetConfirmedByShowID は公演の確定済み予約一覧を座席番号付きで取得する
	GetConfirmedByShowID(ctx context.Context, showID int64) ([]*Booking, error)

	// UpdateStatus は予約の状態を更新する（トランザクション必須）
	UpdateStatus(ctx context.Context, tx transaction.Tx, id int64, status Status) error

	// GetPendingOlderThan は指定期間より古い保留中予約を取得する
	GetPendingOlderThan(ctx context.Context, olderThan time.Duration) ([]*Booking, error)
}
