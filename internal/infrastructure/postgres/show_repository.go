package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-show-booking/internal/domain/show"
	"github.com/sanosuguru/go-show-booking/internal/domain/transaction"
)

// showRow はDBの行を表す構造体
type showRow struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name"`
	StartTime      time.Time `db:"start_time"`
	TotalSeats     int       `db:"total_seats"`
	AvailableSeats int       `db:"available_seats"`
	ShowType       string    `db:"show_type"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r *showRow) toEntity() *show.Show {
	return &show.Show{
		ID:             r.ID,
		Name:           r.Name,
		StartTime:      r.StartTime,
		TotalSeats:     r.TotalSeats,
		AvailableSeats: r.AvailableSeats,
		ShowType:       show.Type(r.ShowType),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

const showColumns = `id, name, start_time, total_seats, available_seats, show_type, created_at, updated_at`

// ShowRepository は公演リポジトリのPostgreSQL実装
type ShowRepository struct {
	db *sqlx.DB
}

// NewShowRepository はShowRepositoryを作成する
func NewShowRepository(db *sqlx.DB) *ShowRepository {
	return &ShowRepository{db: db}
}

// Create は新しい公演を作成する
func (r *ShowRepository) Create(ctx context.Context, s *show.Show) error {
	query := `
		INSERT INTO shows (name, start_time, total_seats, available_seats, show_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		s.Name, s.StartTime, s.TotalSeats, s.AvailableSeats, string(s.ShowType), s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("公演作成に失敗: %w", err)
	}
	return nil
}

// GetByID はIDから公演を取得する
func (r *ShowRepository) GetByID(ctx context.Context, id int64) (*show.Show, error) {
	var row showRow
	query := `SELECT ` + showColumns + ` FROM shows WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, show.ErrShowNotFound
		}
		return nil, fmt.Errorf("公演取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetForUpdate は公演行を FOR UPDATE で取得する
// 同一公演に対する予約・キャンセル・期限切れ処理をここで直列化する
func (r *ShowRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*show.Show, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, ErrInvalidTx
	}
	var row showRow
	query := `SELECT ` + showColumns + ` FROM shows WHERE id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, show.ErrShowNotFound
		}
		return nil, fmt.Errorf("公演行ロック取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// ListUpcoming は開演前の公演一覧を取得する
func (r *ShowRepository) ListUpcoming(ctx context.Context) ([]*show.Show, error) {
	var rows []showRow
	query := `SELECT ` + showColumns + ` FROM shows WHERE start_time > NOW() ORDER BY start_time ASC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("公演一覧取得に失敗: %w", err)
	}
	return toShowEntities(rows), nil
}

// ListByType は種別ごとの公演一覧を取得する
func (r *ShowRepository) ListByType(ctx context.Context, showType show.Type) ([]*show.Show, error) {
	var rows []showRow
	query := `SELECT ` + showColumns + ` FROM shows WHERE show_type = $1 AND start_time > NOW() ORDER BY start_time ASC`
	if err := r.db.SelectContext(ctx, &rows, query, string(showType)); err != nil {
		return nil, fmt.Errorf("公演一覧取得に失敗: %w", err)
	}
	return toShowEntities(rows), nil
}

// Update は公演の基本情報を更新する（座席数は対象外）
func (r *ShowRepository) Update(ctx context.Context, s *show.Show) error {
	query := `UPDATE shows SET name = $1, start_time = $2, show_type = $3, updated_at = NOW() WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, s.Name, s.StartTime, string(s.ShowType), s.ID)
	if err != nil {
		return fmt.Errorf("公演更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return show.ErrShowNotFound
	}
	return nil
}

// Delete は公演を削除する
func (r *ShowRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("公演削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return show.ErrShowNotFound
	}
	return nil
}

// AdjustAvailable は空席数を増減する
// CHECK制約 (available_seats >= 0, <= total_seats) が最後の防衛線になる
func (r *ShowRepository) AdjustAvailable(ctx context.Context, tx transaction.Tx, id int64, delta int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return ErrInvalidTx
	}
	query := `UPDATE shows SET available_seats = available_seats + $1, updated_at = NOW() WHERE id = $2`
	result, err := sqlxTx.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("空席数更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return show.ErrShowNotFound
	}
	return nil
}

// GetStats は公演の予約集計を取得する
func (r *ShowRepository) GetStats(ctx context.Context, id int64) (*show.Stats, error) {
	query := `
		SELECT
			COUNT(*) AS total_bookings,
			COUNT(*) FILTER (WHERE status = 'CONFIRMED') AS confirmed_bookings,
			COUNT(*) FILTER (WHERE status = 'PENDING') AS pending_bookings,
			COUNT(*) FILTER (WHERE status = 'CANCELLED') AS cancelled_bookings,
			COUNT(*) FILTER (WHERE status = 'EXPIRED') AS expired_bookings,
			COALESCE(SUM(seats_booked) FILTER (WHERE status = 'CONFIRMED'), 0) AS seats_sold
		FROM bookings WHERE show_id = $1
	`
	var row struct {
		TotalBookings     int `db:"total_bookings"`
		ConfirmedBookings int `db:"confirmed_bookings"`
		PendingBookings   int `db:"pending_bookings"`
		CancelledBookings int `db:"cancelled_bookings"`
		ExpiredBookings   int `db:"expired_bookings"`
		SeatsSold         int `db:"seats_sold"`
	}
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("公演集計取得に失敗: %w", err)
	}
	return &show.Stats{
		TotalBookings:     row.TotalBookings,
		ConfirmedBookings: row.ConfirmedBookings,
		PendingBookings:   row.PendingBookings,
		CancelledBookings: row.CancelledBookings,
		ExpiredBookings:   row.ExpiredBookings,
		SeatsSold:         row.SeatsSold,
	}, nil
}

func toShowEntities(rows []showRow) []*show.Show {
	shows := make([]*show.Show, len(rows))
	for i, row := range rows {
		shows[i] = row.toEntity()
	}
	return shows
}

var _ show.Repository = (*ShowRepository)(nil)
