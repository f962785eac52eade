package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanosuguru/go-show-booking/internal/domain/user"
)

type UserService struct {
	userRepo user.Repository
}

func NewUserService(userRepo user.Repository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetOrCreateUser はメールアドレスでユーザーを検索し、なければ作成する
func (s *UserService) GetOrCreateUser(ctx context.Context, name, email string) (*user.User, error) {
	u := user.NewUser(name, email)
	if err := u.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, u.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("ユーザー検索に失敗: %w", err)
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*user.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.userRepo.List(ctx)
}
