package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-show-booking/internal/domain/user"
)

type userRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *userRow) toEntity() *user.User {
	return &user.User{ID: r.ID, Name: r.Name, Email: r.Email, CreatedAt: r.CreatedAt}
}

// UserRepository はユーザーリポジトリのPostgreSQL実装
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository はUserRepositoryを作成する
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail はメールアドレスからユーザーを取得する
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, email, created_at FROM users WHERE email = $1`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// Create は新しいユーザーを作成する
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (name, email, created_at) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, u.Name, u.Email, u.CreatedAt).Scan(&u.ID); err != nil {
		return fmt.Errorf("ユーザー作成に失敗: %w", err)
	}
	return nil
}

// GetByID はIDからユーザーを取得する
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, email, created_at FROM users WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// List はユーザー一覧を新しい順で取得する
func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, email, created_at FROM users ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("ユーザー一覧取得に失敗: %w", err)
	}
	users := make([]*user.User, len(rows))
	for i, row := range rows {
		users[i] = row.toEntity()
	}
	return users, nil
}

var _ user.Repository = (*UserRepository)(nil)
