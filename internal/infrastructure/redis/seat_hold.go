package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-show-booking/internal/domain/seatassign"
)

var (
	ErrSeatHeld     = errors.New("座席は他のユーザーがチェックアウト中です")
	ErrHoldNotOwned = errors.New("ホールドの所有者ではありません")
)

// HoldManager はチェックアウト中の座席を短期TTLで仮押さえする
// キーは hold:{showID}:{seatNumber}、値は所有者トークン
// 予約エンジンは割当スキャン時にここをExclusionSourceとして参照する
type HoldManager struct {
	client *redis.Client
}

// NewHoldManager はHoldManagerを作成する
func NewHoldManager(client *redis.Client) *HoldManager {
	return &HoldManager{client: client}
}

// HoldSeats は指定座席をまとめて仮押さえし、所有者トークンを返す
// 1席でも取得できなければ取得済みの座席を解放して ErrSeatHeld を返す
func (m *HoldManager) HoldSeats(ctx context.Context, showID int64, seatNumbers []int, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	acquired := make([]int, 0, len(seatNumbers))

	for _, n := range seatNumbers {
		ok, err := m.client.SetNX(ctx, holdKey(showID, n), token, ttl).Result()
		if err != nil {
			m.releaseAcquired(ctx, showID, acquired, token)
			return "", fmt.Errorf("座席ホールドに失敗: %w", err)
		}
		if !ok {
			m.releaseAcquired(ctx, showID, acquired, token)
			return "", ErrSeatHeld
		}
		acquired = append(acquired, n)
	}
	return token, nil
}

// releaseHoldScript は所有者確認と削除をアトミックに実行する
const releaseHoldScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// ReleaseHolds はトークンの所有者だけがホールドを解放できる
func (m *HoldManager) ReleaseHolds(ctx context.Context, showID int64, seatNumbers []int, token string) error {
	released := 0
	for _, n := range seatNumbers {
		result, err := m.client.Eval(ctx, releaseHoldScript, []string{holdKey(showID, n)}, token).Int()
		if err != nil {
			return fmt.Errorf("ホールド解放に失敗: %w", err)
		}
		released += result
	}
	if released == 0 && len(seatNumbers) > 0 {
		return ErrHoldNotOwned
	}
	return nil
}

// ForceRelease は所有者確認なしでホールドを削除する（管理者用）
// 解放できた座席数を返す
func (m *HoldManager) ForceRelease(ctx context.Context, showID int64, seatNumbers []int) (int, error) {
	if len(seatNumbers) == 0 {
		return 0, nil
	}
	keys := make([]string, len(seatNumbers))
	for i, n := range seatNumbers {
		keys[i] = holdKey(showID, n)
	}
	deleted, err := m.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("ホールド強制解放に失敗: %w", err)
	}
	return int(deleted), nil
}

// HeldSeats は公演のホールド中座席番号集合を返す
func (m *HoldManager) HeldSeats(ctx context.Context, showID int64) (seatassign.NumberSet, error) {
	pattern := fmt.Sprintf("hold:%d:*", showID)
	set := make(seatassign.NumberSet)

	iter := m.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		parts := strings.Split(iter.Val(), ":")
		if len(parts) != 3 {
			continue
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			continue
		}
		set[n] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("ホールド座席取得に失敗: %w", err)
	}
	return set, nil
}

// ExcludedSeats は割当スキャンから除外すべき座席集合を返す
func (m *HoldManager) ExcludedSeats(ctx context.Context, showID int64) (seatassign.NumberSet, error) {
	return m.HeldSeats(ctx, showID)
}

func (m *HoldManager) releaseAcquired(ctx context.Context, showID int64, seatNumbers []int, token string) {
	for _, n := range seatNumbers {
		m.client.Eval(ctx, releaseHoldScript, []string{holdKey(showID, n)}, token)
	}
}

func holdKey(showID int64, seatNumber int) string {
	return fmt.Sprintf("hold:%d:%d", showID, seatNumber)
}

var _ seatassign.ExclusionSource = (*HoldManager)(nil)
