package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-show-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-booking/internal/domain/transaction"
)

type bookingRow struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	ShowID      int64     `db:"show_id"`
	SeatsBooked int       `db:"seats_booked"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID:          r.ID,
		UserID:      r.UserID,
		ShowID:      r.ShowID,
		SeatsBooked: r.SeatsBooked,
		Status:      booking.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const bookingColumns = `id, user_id, show_id, seats_booked, status, created_at, updated_at`

// BookingRepository は予約リポジトリのPostgreSQL実装
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository はBookingRepositoryを作成する
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は新しい予約を作成する
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return ErrInvalidTx
	}
	query := `
		INSERT INTO bookings (user_id, show_id, seats_booked, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query,
		b.UserID, b.ShowID, b.SeatsBooked, string(b.Status), b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

// GetByID はIDから予約を取得する
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetForUpdate は予約行を FOR UPDATE で取得する
func (r *BookingRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*booking.Booking, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, ErrInvalidTx
	}
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約行ロック取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByUserID はユーザーの予約一覧を新しい順で取得する
func (r *BookingRepository) GetByUserID(ctx context.Context, userID int64) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

// GetConfirmedByShowID は公演の確定済み予約を座席番号付きで取得する
// N+1 を避けるため座席番号は配列集約で1クエリにまとめる
func (r *BookingRepository) GetConfirmedByShowID(ctx context.Context, showID int64) ([]*booking.Booking, error) {
	query := `
		SELECT b.id, b.user_id, b.show_id, b.seats_booked, b.status, b.created_at, b.updated_at,
		       COALESCE(ARRAY_AGG(bs.seat_number ORDER BY bs.seat_number)
		                FILTER (WHERE bs.seat_number IS NOT NULL), '{}') AS seat_numbers
		FROM bookings b
		LEFT JOIN booking_seats bs ON b.id = bs.booking_id
		WHERE b.show_id = $1 AND b.status = 'CONFIRMED'
		GROUP BY b.id
		ORDER BY b.created_at DESC
	`
	rows, err := r.db.QueryxContext(ctx, query, showID)
	if err != nil {
		return nil, fmt.Errorf("公演予約一覧取得に失敗: %w", err)
	}
	defer rows.Close()

	var result []*booking.Booking
	for rows.Next() {
		var row bookingRow
		var seatNumbers pq.Int64Array
		if err := rows.Scan(&row.ID, &row.UserID, &row.ShowID, &row.SeatsBooked,
			&row.Status, &row.CreatedAt, &row.UpdatedAt, &seatNumbers); err != nil {
			return nil, fmt.Errorf("公演予約行の読み取りに失敗: %w", err)
		}
		b := row.toEntity()
		b.SeatNumbers = make([]int, len(seatNumbers))
		for i, n := range seatNumbers {
			b.SeatNumbers[i] = int(n)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// UpdateStatus は予約の状態を更新する
func (r *BookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, id int64, status booking.Status) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return ErrInvalidTx
	}
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := sqlxTx.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("予約状態更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

// GetPendingOlderThan は指定期間より古い保留中予約を取得する
func (r *BookingRepository) GetPendingOlderThan(ctx context.Context, olderThan time.Duration) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = 'PENDING' AND created_at < NOW() - make_interval(secs => $1)`
	if err := r.db.SelectContext(ctx, &rows, query, olderThan.Seconds()); err != nil {
		return nil, fmt.Errorf("期限切れ予約取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

var _ booking.Repository = (*BookingRepository)(nil)
