package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCache は公演ごとの空席番号リストをキャッシュする
// 予約・キャンセルのコミット後に無効化され、読み取りの多少の遅延は許容する
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache はAvailabilityCacheを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetAvailableSeats は空席番号リストをキャッシュから取得する
func (c *AvailabilityCache) GetAvailableSeats(ctx context.Context, showID int64) ([]int, error) {
	val, err := c.client.Get(ctx, c.availableSeatsKey(showID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var seats []int
	if err := json.Unmarshal(val, &seats); err != nil {
		return nil, fmt.Errorf("キャッシュ復元に失敗: %w", err)
	}
	return seats, nil
}

// SetAvailableSeats は空席番号リストをキャッシュに保存する
func (c *AvailabilityCache) SetAvailableSeats(ctx context.Context, showID int64, seats []int, ttl time.Duration) error {
	val, err := json.Marshal(seats)
	if err != nil {
		return fmt.Errorf("キャッシュ変換に失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.availableSeatsKey(showID), val, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は公演のキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, showID int64) error {
	if err := c.client.Del(ctx, c.availableSeatsKey(showID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) availableSeatsKey(showID int64) string {
	return fmt.Sprintf("seats:available:%d", showID)
}
