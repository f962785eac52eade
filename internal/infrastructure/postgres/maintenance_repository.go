package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-show-booking/internal/domain/seatassign"
)

// MaintenanceRepository は管理者によるメンテナンス座席ブロックを管理する
// 割当スキャンの ExclusionSource としても機能する
type MaintenanceRepository struct {
	db *sqlx.DB
}

// NewMaintenanceRepository はMaintenanceRepositoryを作成する
func NewMaintenanceRepository(db *sqlx.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// Block は座席をメンテナンス対象として登録する（登録済みは無視）
func (r *MaintenanceRepository) Block(ctx context.Context, showID int64, seatNumbers []int, reason string) error {
	if len(seatNumbers) == 0 {
		return nil
	}
	query := `
		INSERT INTO seat_maintenance (show_id, seat_number, reason, created_at)
		SELECT $1, unnest($2::int[]), $3, NOW()
		ON CONFLICT (show_id, seat_number) DO NOTHING
	`
	nums := make(pq.Int64Array, len(seatNumbers))
	for i, n := range seatNumbers {
		nums[i] = int64(n)
	}
	if _, err := r.db.ExecContext(ctx, query, showID, nums, reason); err != nil {
		return fmt.Errorf("座席ブロックに失敗: %w", err)
	}
	return nil
}

// Unblock は座席のメンテナンス登録を解除する
func (r *MaintenanceRepository) Unblock(ctx context.Context, showID int64, seatNumbers []int) error {
	if len(seatNumbers) == 0 {
		return nil
	}
	nums := make(pq.Int64Array, len(seatNumbers))
	for i, n := range seatNumbers {
		nums[i] = int64(n)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM seat_maintenance WHERE show_id = $1 AND seat_number = ANY($2)`, showID, nums); err != nil {
		return fmt.Errorf("座席ブロック解除に失敗: %w", err)
	}
	return nil
}

// ExcludedSeats はメンテナンス中の座席番号集合を返す
func (r *MaintenanceRepository) ExcludedSeats(ctx context.Context, showID int64) (seatassign.NumberSet, error) {
	var numbers []int
	query := `SELECT seat_number FROM seat_maintenance WHERE show_id = $1`
	if err := r.db.SelectContext(ctx, &numbers, query, showID); err != nil {
		return nil, fmt.Errorf("メンテナンス座席取得に失敗: %w", err)
	}
	return seatassign.NewNumberSet(numbers), nil
}

var _ seatassign.ExclusionSource = (*MaintenanceRepository)(nil)
