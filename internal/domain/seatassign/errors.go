package seatassign

import "errors"

// 座席割当ドメインのエラー定義
var (
	ErrSeatTaken = errors.New("座席は既に割り当てられています")
)
