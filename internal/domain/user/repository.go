package user

import "context"

// Repository はユーザーリポジトリのインターフェース
type Repository interface {
	// GetByEmail はメールアドレスからユーザーを取得する
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create は新しいユーザーを作成する
	Create(ctx context.Context, u *User) error

	// GetByID はIDからユーザーを取得する
	GetByID(ctx context.Context, id int64) (*User, error)

	// List はユーザー一覧を取得する
	List(ctx context.Context) ([]*User, error)
}
