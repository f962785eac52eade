package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	redisinfra "github.com/sanosuguru/go-show-booking/internal/infrastructure/redis"
)

// HoldHandler はチェックアウト中の座席仮押さえAPI
// Redis未接続の場合はルート自体が登録されない
type HoldHandler struct {
	service HoldServiceInterface
	ttl     time.Duration
}

func NewHoldHandler(s HoldServiceInterface, ttl time.Duration) *HoldHandler {
	return &HoldHandler{service: s, ttl: ttl}
}

type HoldSeatsRequest struct {
	SeatNumbers []int `json:"seat_numbers" validate:"required,min=1" example:"3,4"`
}

type HoldSeatsResponse struct {
	Token       string `json:"token" example:"550e8400-e29b-41d4-a716-446655440000"`
	SeatNumbers []int  `json:"seat_numbers" example:"3,4"`
	ExpiresIn   int    `json:"expires_in_seconds" example:"300"`
}

// Hold godoc
// @Summary 座席を仮押さえ
// @Description チェックアウト中の座席を短期TTLで仮押さえします
// @Tags holds
// @Accept json
// @Produce json
// @Param id path int true "公演ID"
// @Param request body HoldSeatsRequest true "仮押さえ対象"
// @Success 201 {object} HoldSeatsResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "他のユーザーが仮押さえ中"
// @Router /shows/{id}/holds [post]
func (h *HoldHandler) Hold(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req HoldSeatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.service.HoldSeats(c.Request().Context(), id, req.SeatNumbers, h.ttl)
	if err != nil {
		if errors.Is(err, redisinfra.ErrSeatHeld) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, HoldSeatsResponse{
		Token:       token,
		SeatNumbers: req.SeatNumbers,
		ExpiresIn:   int(h.ttl.Seconds()),
	})
}

type ReleaseRequest struct {
	SeatNumbers []int  `json:"seat_numbers" validate:"required,min=1" example:"3,4"`
	Token       string `json:"token" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// Release godoc
// @Summary 仮押さえを解放
// @Description 仮押さえ時のトークンを使って座席を解放します
// @Tags holds
// @Accept json
// @Param id path int true "公演ID"
// @Param request body ReleaseRequest true "解放対象"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "トークンが一致しない"
// @Router /shows/{id}/holds/release [post]
func (h *HoldHandler) Release(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req ReleaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.service.ReleaseHolds(c.Request().Context(), id, req.SeatNumbers, req.Token); err != nil {
		if errors.Is(err, redisinfra.ErrHoldNotOwned) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
