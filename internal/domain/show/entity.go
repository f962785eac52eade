package show

import "time"

// Type は公演の種別を表す
type Type string

const (
	TypeShow   Type = "show"
	TypeBus    Type = "bus"
	TypeDoctor Type = "doctor"
)

// Show は公演エンティティを表す
type Show struct {
	ID             int64
	Name           string
	StartTime      time.Time
	TotalSeats     int
	AvailableSeats int
	ShowType       Type
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewShow は新しい公演を作成する（空席数は総座席数で初期化）
func NewShow(name string, startTime time.Time, totalSeats int, showType Type) *Show {
	if showType == "" {
		showType = TypeShow
	}
	now := time.Now()
	return &Show{
		Name:           name,
		StartTime:      startTime,
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		ShowType:       showType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// HasCapacity は指定席数を予約できるかを返す
func (s *Show) HasCapacity(count int) bool {
	return s.AvailableSeats >= count
}

// OccupancyRate は占有率（0-100）を返す
func (s *Show) OccupancyRate() float64 {
	if s.TotalSeats == 0 {
		return 0
	}
	return float64(s.TotalSeats-s.AvailableSeats) / float64(s.TotalSeats) * 100
}

// Validate は公演の検証を行う
func (s *Show) Validate() error {
	if s.Name == "" {
		return ErrShowNameRequired
	}
	if s.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	if s.AvailableSeats < 0 || s.AvailableSeats > s.TotalSeats {
		return ErrInvalidAvailableSeats
	}
	if s.StartTime.IsZero() {
		return ErrStartTimeRequired
	}
	return nil
}
