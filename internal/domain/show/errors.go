package show

import "errors"

// Show ドメインのエラー定義
var (
	ErrShowNotFound          = errors.New("公演が見つかりません")
	ErrShowNameRequired      = errors.New("公演名は必須です")
	ErrInvalidTotalSeats     = errors.New("総座席数は1以上である必要があります")
	ErrInvalidAvailableSeats = errors.New("空席数は0以上かつ総座席数以下である必要があります")
	ErrStartTimeRequired     = errors.New("開演時刻は必須です")
	ErrShowHasBookings       = errors.New("確定済み予約がある公演は削除できません")
)
