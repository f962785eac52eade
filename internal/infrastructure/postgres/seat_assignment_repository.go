package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-show-booking/internal/domain/seatassign"
	"github.com/sanosuguru/go-show-booking/internal/domain/transaction"
)

// SeatAssignmentRepository は座席割当リポジトリのPostgreSQL実装
// booking_seats の UNIQUE(show_id, seat_number) が二重割当を防ぐ
type SeatAssignmentRepository struct {
	db *sqlx.DB
}

// NewSeatAssignmentRepository はSeatAssignmentRepositoryを作成する
func NewSeatAssignmentRepository(db *sqlx.DB) *SeatAssignmentRepository {
	return &SeatAssignmentRepository{db: db}
}

// ListNumbersByShow は公演の割当済み座席番号を昇順で取得する
// tx が nil の場合は通常読み取りになる
func (r *SeatAssignmentRepository) ListNumbersByShow(ctx context.Context, tx transaction.Tx, showID int64) ([]int, error) {
	query := `SELECT seat_number FROM booking_seats WHERE show_id = $1 ORDER BY seat_number`
	var numbers []int
	var err error
	if tx != nil {
		sqlxTx := UnwrapTx(tx)
		if sqlxTx == nil {
			return nil, ErrInvalidTx
		}
		err = sqlxTx.SelectContext(ctx, &numbers, query, showID)
	} else {
		err = r.db.SelectContext(ctx, &numbers, query, showID)
	}
	if err != nil {
		return nil, fmt.Errorf("割当済み座席取得に失敗: %w", err)
	}
	return numbers, nil
}

// ListNumbersByBooking は予約の座席番号を昇順で取得する
func (r *SeatAssignmentRepository) ListNumbersByBooking(ctx context.Context, bookingID int64) ([]int, error) {
	var numbers []int
	query := `SELECT seat_number FROM booking_seats WHERE booking_id = $1 ORDER BY seat_number`
	if err := r.db.SelectContext(ctx, &numbers, query, bookingID); err != nil {
		return nil, fmt.Errorf("予約座席取得に失敗: %w", err)
	}
	return numbers, nil
}

// Assign は座席を予約に割り当てる
func (r *SeatAssignmentRepository) Assign(ctx context.Context, tx transaction.Tx, bookingID, showID int64, seatNumber int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return ErrInvalidTx
	}
	query := `INSERT INTO booking_seats (booking_id, show_id, seat_number, created_at) VALUES ($1, $2, $3, NOW())`
	if _, err := sqlxTx.ExecContext(ctx, query, bookingID, showID, seatNumber); err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return seatassign.ErrSeatTaken
		}
		return fmt.Errorf("座席割当に失敗: %w", err)
	}
	return nil
}

// DeleteByBooking は予約の座席割当をすべて削除する
func (r *SeatAssignmentRepository) DeleteByBooking(ctx context.Context, tx transaction.Tx, bookingID int64) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return ErrInvalidTx
	}
	if _, err := sqlxTx.ExecContext(ctx, `DELETE FROM booking_seats WHERE booking_id = $1`, bookingID); err != nil {
		return fmt.Errorf("座席割当削除に失敗: %w", err)
	}
	return nil
}

var _ seatassign.Repository = (*SeatAssignmentRepository)(nil)
