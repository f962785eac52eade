package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-show-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-booking/internal/domain/seatassign"
	"github.com/sanosuguru/go-show-booking/internal/domain/show"
)

type AdminHandler struct {
	service AdminServiceInterface
}

func NewAdminHandler(s AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: s}
}

// SeatMap godoc
// @Summary 座席マップを取得
// @Description 公演の全座席の状態（available/booked/blocked/held）を返します
// @Tags admin
// @Produce json
// @Param id path int true "公演ID"
// @Success 200 {array} application.SeatMapEntry
// @Failure 404 {object} map[string]string
// @Router /admin/shows/{id}/seat-map [get]
func (h *AdminHandler) SeatMap(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.ShowSeatMap(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

// ForceCancel godoc
// @Summary 予約を強制キャンセル
// @Description 管理者権限で予約をキャンセルし座席を解放します
// @Tags admin
// @Produce json
// @Param id path int true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "キャンセル済み"
// @Router /admin/bookings/{id}/cancel [post]
func (h *AdminHandler) ForceCancel(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	b, err := h.service.ForceCancelBooking(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, booking.ErrAlreadyCancelled):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

type BlockSeatsRequest struct {
	SeatNumbers []int  `json:"seat_numbers" validate:"required,min=1" example:"5,6,7"`
	Reason      string `json:"reason" example:"座席破損"`
}

// BlockSeats godoc
// @Summary 座席をブロック
// @Description 座席をメンテナンス対象にし、割当から除外します
// @Tags admin
// @Accept json
// @Param id path int true "公演ID"
// @Param request body BlockSeatsRequest true "ブロック対象"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "座席が割当済み"
// @Router /admin/shows/{id}/block [post]
func (h *AdminHandler) BlockSeats(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req BlockSeatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.service.BlockSeats(c.Request().Context(), id, req.SeatNumbers, req.Reason); err != nil {
		switch {
		case errors.Is(err, show.ErrShowNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, seatassign.ErrSeatTaken):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type UnblockSeatsRequest struct {
	SeatNumbers []int `json:"seat_numbers" validate:"required,min=1" example:"5,6"`
}

// UnblockSeats godoc
// @Summary 座席ブロックを解除
// @Tags admin
// @Accept json
// @Param id path int true "公演ID"
// @Param request body UnblockSeatsRequest true "解除対象"
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /admin/shows/{id}/unblock [post]
func (h *AdminHandler) UnblockSeats(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req UnblockSeatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.service.UnblockSeats(c.Request().Context(), id, req.SeatNumbers); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type ReleaseHoldsRequest struct {
	SeatNumbers []int `json:"seat_numbers" validate:"required,min=1" example:"3,4"`
}

type ReleaseHoldsResponse struct {
	Released int `json:"released" example:"2"`
}

// ReleaseHolds godoc
// @Summary ホールドを強制解放
// @Description 所有者確認なしでチェックアウトホールドを解放します
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "公演ID"
// @Param request body ReleaseHoldsRequest true "解放対象"
// @Success 200 {object} ReleaseHoldsResponse
// @Failure 400 {object} map[string]string
// @Router /admin/shows/{id}/release-holds [post]
func (h *AdminHandler) ReleaseHolds(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req ReleaseHoldsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	released, err := h.service.ReleaseHolds(c.Request().Context(), id, req.SeatNumbers)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ReleaseHoldsResponse{Released: released})
}

type ExpireBookingsRequest struct {
	OlderThanSeconds int `json:"older_than_seconds" validate:"gte=0" example:"120"`
}

type ExpireBookingsResponse struct {
	Expired int `json:"expired" example:"3"`
}

// ExpireBookings godoc
// @Summary 期限切れ予約の掃き出しを即時実行
// @Description 指定秒数より古い保留予約を期限切れにして座席を返却します（0で全保留が対象）
// @Tags admin
// @Accept json
// @Produce json
// @Param request body ExpireBookingsRequest false "掃き出し条件"
// @Success 200 {object} ExpireBookingsResponse
// @Failure 400 {object} map[string]string
// @Router /admin/bookings/expire [post]
func (h *AdminHandler) ExpireBookings(c echo.Context) error {
	var req ExpireBookingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	expired, err := h.service.ExpireBookings(c.Request().Context(), time.Duration(req.OlderThanSeconds)*time.Second)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ExpireBookingsResponse{Expired: expired})
}

// Occupancy godoc
// @Summary 公演の稼働状況を取得
// @Description 公演の稼働率と予約内訳レポートを返します
// @Tags admin
// @Produce json
// @Param id path int true "公演ID"
// @Success 200 {object} application.OccupancyReport
// @Failure 404 {object} map[string]string
// @Router /admin/shows/{id}/occupancy [get]
func (h *AdminHandler) Occupancy(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	report, err := h.service.Occupancy(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}
