package seatassign

import "time"

// Assignment は座席割当を表す
// (show_id, seat_number) の組は同時に1予約のみが保持できる
type Assignment struct {
	ID         int64
	BookingID  int64
	ShowID     int64
	SeatNumber int
	CreatedAt  time.Time
}

// NumberSet は座席番号の集合
type NumberSet map[int]struct{}

// NewNumberSet は座席番号スライスから集合を作成する
func NewNumberSet(numbers []int) NumberSet {
	set := make(NumberSet, len(numbers))
	for _, n := range numbers {
		set[n] = struct{}{}
	}
	return set
}

// Contains は集合に座席番号が含まれるかを返す
func (s NumberSet) Contains(n int) bool {
	_, ok := s[n]
	return ok
}

// Merge は別の集合の要素をすべて取り込む
func (s NumberSet) Merge(other NumberSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// AllocateLowestFirst は 1..totalSeats を昇順に走査し、
// 割当済み・除外座席を飛ばして先頭 count 席を選ぶ
// 決定的な最小番号優先ポリシー。確保できた分だけ返すため、
// 呼び出し側は len で不足を判定する
func AllocateLowestFirst(totalSeats, count int, taken, excluded NumberSet) []int {
	if count <= 0 {
		return nil
	}
	allocated := make([]int, 0, count)
	for n := 1; n <= totalSeats && len(allocated) < count; n++ {
		if taken.Contains(n) || excluded.Contains(n) {
			continue
		}
		allocated = append(allocated, n)
	}
	return allocated
}
