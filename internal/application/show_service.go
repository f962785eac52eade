package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sanosuguru/go-show-booking/internal/domain/show"
)

type ShowService struct {
	showRepo show.Repository
}

func NewShowService(showRepo show.Repository) *ShowService {
	return &ShowService{showRepo: showRepo}
}

type CreateShowInput struct {
	Name       string
	StartTime  time.Time
	TotalSeats int
	ShowType   show.Type
}

func (s *ShowService) CreateShow(ctx context.Context, input CreateShowInput) (*show.Show, error) {
	sh := show.NewShow(input.Name, input.StartTime, input.TotalSeats, input.ShowType)
	if err := sh.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.showRepo.Create(ctx, sh); err != nil {
		return nil, fmt.Errorf("公演作成に失敗しました: %w", err)
	}
	return sh, nil
}

func (s *ShowService) GetShow(ctx context.Context, id int64) (*show.Show, error) {
	return s.showRepo.GetByID(ctx, id)
}

func (s *ShowService) ListUpcomingShows(ctx context.Context) ([]*show.Show, error) {
	return s.showRepo.ListUpcoming(ctx)
}

func (s *ShowService) ListShowsByType(ctx context.Context, showType show.Type) ([]*show.Show, error) {
	return s.showRepo.ListByType(ctx, showType)
}

type UpdateShowInput struct {
	ID        int64
	Name      string
	StartTime time.Time
	ShowType  show.Type
}

// UpdateShow は公演の基本情報のみ更新する
// 座席数の変更は予約エンジンの整合性を壊すため許可しない
func (s *ShowService) UpdateShow(ctx context.Context, input UpdateShowInput) (*show.Show, error) {
	sh, err := s.showRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	sh.Name = input.Name
	sh.StartTime = input.StartTime
	sh.ShowType = input.ShowType
	if err := sh.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.showRepo.Update(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// DeleteShow は確定済み予約のない公演を削除する
func (s *ShowService) DeleteShow(ctx context.Context, id int64) error {
	stats, err := s.showRepo.GetStats(ctx, id)
	if err != nil {
		return err
	}
	if stats.ConfirmedBookings > 0 {
		return show.ErrShowHasBookings
	}
	return s.showRepo.Delete(ctx, id)
}

// GetShowStats は公演の予約集計を取得する
func (s *ShowService) GetShowStats(ctx context.Context, id int64) (*show.Show, *show.Stats, error) {
	sh, err := s.showRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.showRepo.GetStats(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return sh, stats, nil
}
