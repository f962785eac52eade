package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-show-booking/internal/application"
	"github.com/sanosuguru/go-show-booking/internal/domain/show"
)

type ShowHandler struct {
	showService    ShowServiceInterface
	bookingService BookingServiceInterface
}

func NewShowHandler(ss ShowServiceInterface, bs BookingServiceInterface) *ShowHandler {
	return &ShowHandler{showService: ss, bookingService: bs}
}

type CreateShowRequest struct {
	Name       string `json:"name" validate:"required" example:"夜公演 12/31"`
	StartTime  string `json:"start_time" validate:"required" example:"2026-12-31T18:00:00+09:00"`
	TotalSeats int    `json:"total_seats" validate:"required,gt=0" example:"100"`
	ShowType   string `json:"show_type" validate:"omitempty,oneof=show bus doctor" example:"show"`
}

type ShowResponse struct {
	ID             int64  `json:"id" example:"1"`
	Name           string `json:"name" example:"夜公演 12/31"`
	StartTime      string `json:"start_time" example:"2026-12-31T18:00:00+09:00"`
	TotalSeats     int    `json:"total_seats" example:"100"`
	AvailableSeats int    `json:"available_seats" example:"97"`
	ShowType       string `json:"show_type" example:"show"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toShowResponse(s *show.Show) *ShowResponse {
	return &ShowResponse{
		ID:             s.ID,
		Name:           s.Name,
		StartTime:      s.StartTime.Format(time.RFC3339),
		TotalSeats:     s.TotalSeats,
		AvailableSeats: s.AvailableSeats,
		ShowType:       string(s.ShowType),
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      s.UpdatedAt.Format(time.RFC3339),
	}
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "IDの形式が不正です")
	}
	return id, nil
}

// Create godoc
// @Summary 公演を作成
// @Description 新しい公演を作成します（空席数は総座席数で初期化）
// @Tags shows
// @Accept json
// @Produce json
// @Param request body CreateShowRequest true "公演情報"
// @Success 201 {object} ShowResponse
// @Failure 400 {object} map[string]string
// @Router /shows [post]
func (h *ShowHandler) Create(c echo.Context) error {
	var req CreateShowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "開演時刻の形式が不正です")
	}

	s, err := h.showService.CreateShow(c.Request().Context(), application.CreateShowInput{
		Name:       req.Name,
		StartTime:  startTime,
		TotalSeats: req.TotalSeats,
		ShowType:   show.Type(req.ShowType),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toShowResponse(s))
}

// GetByID godoc
// @Summary 公演を取得
// @Description 指定IDの公演を取得します
// @Tags shows
// @Produce json
// @Param id path int true "公演ID"
// @Success 200 {object} ShowResponse
// @Failure 404 {object} map[string]string
// @Router /shows/{id} [get]
func (h *ShowHandler) GetByID(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	s, err := h.showService.GetShow(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toShowResponse(s))
}

// List godoc
// @Summary 公演一覧を取得
// @Description 開演前の公演一覧を取得します。type クエリで種別を絞り込めます
// @Tags shows
// @Produce json
// @Param type query string false "公演種別" Enums(show, bus, doctor)
// @Success 200 {array} ShowResponse
// @Router /shows [get]
func (h *ShowHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		shows []*show.Show
		err   error
	)
	if showType := c.QueryParam("type"); showType != "" {
		shows, err = h.showService.ListShowsByType(ctx, show.Type(showType))
	} else {
		shows, err = h.showService.ListUpcomingShows(ctx)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]*ShowResponse, len(shows))
	for i, s := range shows {
		resp[i] = toShowResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary 公演を更新
// @Description 公演の基本情報を更新します（座席数は変更できません）
// @Tags shows
// @Accept json
// @Produce json
// @Param id path int true "公演ID"
// @Param request body CreateShowRequest true "公演情報"
// @Success 200 {object} ShowResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /shows/{id} [put]
func (h *ShowHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req CreateShowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "開演時刻の形式が不正です")
	}

	s, err := h.showService.UpdateShow(c.Request().Context(), application.UpdateShowInput{
		ID:        id,
		Name:      req.Name,
		StartTime: startTime,
		ShowType:  show.Type(req.ShowType),
	})
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, toShowResponse(s))
}

// Delete godoc
// @Summary 公演を削除
// @Description 確定済み予約のない公演を削除します
// @Tags shows
// @Param id path int true "公演ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "確定済み予約が存在する"
// @Router /shows/{id} [delete]
func (h *ShowHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.showService.DeleteShow(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, show.ErrShowNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, show.ErrShowHasBookings):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type AvailableSeatsResponse struct {
	ShowID         int64 `json:"show_id" example:"1"`
	AvailableSeats []int `json:"available_seats" example:"1,2,5,8"`
	Count          int   `json:"count" example:"4"`
}

// AvailableSeats godoc
// @Summary 空席番号一覧を取得
// @Description 公演の空席番号を昇順で返します
// @Tags shows
// @Produce json
// @Param id path int true "公演ID"
// @Success 200 {object} AvailableSeatsResponse
// @Failure 404 {object} map[string]string
// @Router /shows/{id}/seats [get]
func (h *ShowHandler) AvailableSeats(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	seats, err := h.bookingService.GetAvailableSeats(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, AvailableSeatsResponse{
		ShowID:         id,
		AvailableSeats: seats,
		Count:          len(seats),
	})
}

type ShowStatsResponse struct {
	ShowID            int64   `json:"show_id" example:"1"`
	Name              string  `json:"name"`
	TotalSeats        int     `json:"total_seats" example:"100"`
	AvailableSeats    int     `json:"available_seats" example:"40"`
	OccupancyRate     float64 `json:"occupancy_rate" example:"60"`
	TotalBookings     int     `json:"total_bookings" example:"25"`
	ConfirmedBookings int     `json:"confirmed_bookings" example:"20"`
	PendingBookings   int     `json:"pending_bookings" example:"1"`
	CancelledBookings int     `json:"cancelled_bookings" example:"3"`
	ExpiredBookings   int     `json:"expired_bookings" example:"1"`
	SeatsSold         int     `json:"seats_sold" example:"60"`
}

// Stats godoc
// @Summary 公演の予約集計を取得
// @Description 公演の稼働率と予約状況の内訳を返します
// @Tags shows
// @Produce json
// @Param id path int true "公演ID"
// @Success 200 {object} ShowStatsResponse
// @Failure 404 {object} map[string]string
// @Router /shows/{id}/stats [get]
func (h *ShowHandler) Stats(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	s, stats, err := h.showService.GetShowStats(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, show.ErrShowNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ShowStatsResponse{
		ShowID:            s.ID,
		Name:              s.Name,
		TotalSeats:        s.TotalSeats,
		AvailableSeats:    s.AvailableSeats,
		OccupancyRate:     s.OccupancyRate(),
		TotalBookings:     stats.TotalBookings,
		ConfirmedBookings: stats.ConfirmedBookings,
		PendingBookings:   stats.PendingBookings,
		CancelledBookings: stats.CancelledBookings,
		ExpiredBookings:   stats.ExpiredBookings,
		SeatsSold:         stats.SeatsSold,
	})
}
