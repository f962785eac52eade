package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-show-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-booking/internal/domain/show"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type CreateBookingRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0" example:"42"`
	ShowID int64 `json:"show_id" validate:"required,gt=0" example:"1"`
	Count  int   `json:"count" validate:"required,gt=0" example:"2"`
}

type BookingResponse struct {
	ID          int64  `json:"id" example:"101"`
	UserID      int64  `json:"user_id" example:"42"`
	ShowID      int64  `json:"show_id" example:"1"`
	SeatsBooked int    `json:"seats_booked" example:"2"`
	SeatNumbers []int  `json:"seat_numbers" example:"3,4"`
	Status      string `json:"status" example:"CONFIRMED"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		ShowID:      b.ShowID,
		SeatsBooked: b.SeatsBooked,
		SeatNumbers: b.SeatNumbers,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary 座席を予約
// @Description 指定席数を原子的に予約します。成功時は座席番号が割り当てられ確定済みで返ります
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "公演が存在しない"
// @Failure 409 {object} map[string]interface{} "空席不足"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	b, err := h.service.BookSeats(c.Request().Context(), req.UserID, req.ShowID, req.Count)
	if err != nil {
		var insufficient *booking.InsufficientSeatsError
		switch {
		case errors.Is(err, show.ErrShowNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.As(err, &insufficient):
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"error":     insufficient.Error(),
				"available": insufficient.Available,
				"requested": insufficient.Requested,
			})
		case errors.Is(err, booking.ErrInvalidSeatCount),
			errors.Is(err, booking.ErrUserIDRequired),
			errors.Is(err, booking.ErrShowIDRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を座席番号付きで取得します
// @Tags bookings
// @Produce json
// @Param id path int true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	b, err := h.service.GetBooking(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし座席を解放します。2回目のキャンセルは409で失敗します
// @Tags bookings
// @Produce json
// @Param id path int true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "キャンセル済み"
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	b, err := h.service.CancelBooking(c.Request().Context(), id)
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

// GetUserBookings godoc
// @Summary ユーザーの予約一覧を取得
// @Description 指定ユーザーの予約一覧を取得します
// @Tags bookings
// @Produce json
// @Param id path int true "ユーザーID"
// @Success 200 {array} BookingResponse
// @Router /users/{id}/bookings [get]
func (h *BookingHandler) GetUserBookings(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	bookings, err := h.service.GetUserBookings(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetShowBookings godoc
// @Summary 公演の確定済み予約一覧を取得
// @Description 公演の確定済み予約を座席番号付きで取得します
// @Tags bookings
// @Produce json
// @Param id path int true "公演ID"
// @Success 200 {array} BookingResponse
// @Router /shows/{id}/bookings [get]
func (h *BookingHandler) GetShowBookings(c echo.Context) error {
	showID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	bookings, err := h.service.GetShowBookings(c.Request().Context(), showID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}
