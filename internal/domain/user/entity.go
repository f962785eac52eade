package user

import (
	"errors"
	"strings"
	"time"
)

// User はユーザーエンティティを表す
// 認証は扱わず、メールアドレスでの lookup-or-create のみ
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

var (
	ErrUserNotFound  = errors.New("ユーザーが見つかりません")
	ErrNameRequired  = errors.New("ユーザー名は必須です")
	ErrEmailRequired = errors.New("メールアドレスは必須です")
)

// NewUser は新しいユーザーを作成する
func NewUser(name, email string) *User {
	return &User{
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: time.Now(),
	}
}

// Validate はユーザーの検証を行う
func (u *User) Validate() error {
	if u.Name == "" {
		return ErrNameRequired
	}
	if u.Email == "" {
		return ErrEmailRequired
	}
	return nil
}
