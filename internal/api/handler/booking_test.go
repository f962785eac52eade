package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-show-booking/internal/domain/booking"
	"github.com/sanosuguru/go-show-booking/internal/domain/show"
)

// MockBookingService はBookingServiceInterfaceのモック
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) BookSeats(ctx context.Context, userID, showID int64, count int) (*booking.Booking, error) {
	args := m.Called(ctx, userID, showID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, bookingID int64) (*booking.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, id int64) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) GetUserBookings(ctx context.Context, userID int64) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingService) GetShowBookings(ctx context.Context, showID int64) ([]*booking.Booking, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingService) GetAvailableSeats(ctx context.Context, showID int64) ([]int, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func TestBookingHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に予約を作成できる", func(t *testing.T) {
		mockService := new(MockBookingService)
		now := time.Now()
		expected := &booking.Booking{
			ID:          101,
			UserID:      42,
			ShowID:      1,
			SeatsBooked: 2,
			SeatNumbers: []int{3, 4},
			Status:      booking.StatusConfirmed,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		mockService.On("BookSeats", mock.Anything, int64(42), int64(1), 2).Return(expected, nil)

		handler := NewBookingHandler(mockService)

		reqBody := `{"user_id": 42, "show_id": 1, "count": 2}`
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp BookingResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, int64(101), resp.ID)
		assert.Equal(t, "CONFIRMED", resp.Status)
		assert.Equal(t, []int{3, 4}, resp.SeatNumbers)

		mockService.AssertExpectations(t)
	})

	t.Run("空席不足で409と内訳を返す", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("BookSeats", mock.Anything, int64(42), int64(1), 5).
			Return(nil, &booking.InsufficientSeatsError{Available: 2, Requested: 5})

		handler := NewBookingHandler(mockService)

		reqBody := `{"user_id": 42, "show_id": 1, "count": 5}`
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, rec.Code)

		var resp map[string]interface{}
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, float64(2), resp["available"])
		assert.Equal(t, float64(5), resp["requested"])

		mockService.AssertExpectations(t)
	})

	t.Run("公演が存在しない場合404", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("BookSeats", mock.Anything, int64(42), int64(999), 1).
			Return(nil, show.ErrShowNotFound)

		handler := NewBookingHandler(mockService)

		reqBody := `{"user_id": 42, "show_id": 999, "count": 1}`
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)

		mockService.AssertExpectations(t)
	})

	t.Run("バリデーションエラーで400", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := NewBookingHandler(mockService)

		// count がゼロ
		reqBody := `{"user_id": 42, "show_id": 1, "count": 0}`
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}

func TestBookingHandler_GetByID(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に予約を取得できる", func(t *testing.T) {
		mockService := new(MockBookingService)
		now := time.Now()
		expected := &booking.Booking{
			ID:          101,
			UserID:      42,
			ShowID:      1,
			SeatsBooked: 1,
			SeatNumbers: []int{7},
			Status:      booking.StatusConfirmed,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		mockService.On("GetBooking", mock.Anything, int64(101)).Return(expected, nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/bookings/101", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("101")

		err := handler.GetByID(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		mockService.AssertExpectations(t)
	})

	t.Run("予約が見つからない場合404", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("GetBooking", mock.Anything, int64(999)).Return(nil, booking.ErrBookingNotFound)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/bookings/999", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("999")

		err := handler.GetByID(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)

		mockService.AssertExpectations(t)
	})

	t.Run("IDが数値でない場合400", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/bookings/abc", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("abc")

		err := handler.GetByID(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}

func TestBookingHandler_Cancel(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に予約をキャンセルできる", func(t *testing.T) {
		mockService := new(MockBookingService)
		now := time.Now()
		expected := &booking.Booking{
			ID:          101,
			UserID:      42,
			ShowID:      1,
			SeatsBooked: 2,
			Status:      booking.StatusCancelled,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		mockService.On("CancelBooking", mock.Anything, int64(101)).Return(expected, nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings/101/cancel", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("101")

		err := handler.Cancel(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp BookingResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)

		mockService.AssertExpectations(t)
	})

	t.Run("キャンセル済みの場合409", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("CancelBooking", mock.Anything, int64(101)).Return(nil, booking.ErrAlreadyCancelled)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings/101/cancel", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("101")

		err := handler.Cancel(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)

		mockService.AssertExpectations(t)
	})

	t.Run("予約が見つからない場合404", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("CancelBooking", mock.Anything, int64(999)).Return(nil, booking.ErrBookingNotFound)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings/999/cancel", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("999")

		err := handler.Cancel(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)

		mockService.AssertExpectations(t)
	})
}

func TestBookingHandler_GetUserBookings(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にユーザーの予約一覧を取得できる", func(t *testing.T) {
		mockService := new(MockBookingService)
		now := time.Now()
		bookings := []*booking.Booking{
			{ID: 1, UserID: 42, ShowID: 1, SeatsBooked: 1, Status: booking.StatusConfirmed, CreatedAt: now, UpdatedAt: now},
			{ID: 2, UserID: 42, ShowID: 2, SeatsBooked: 2, Status: booking.StatusCancelled, CreatedAt: now, UpdatedAt: now},
		}
		mockService.On("GetUserBookings", mock.Anything, int64(42)).Return(bookings, nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/users/42/bookings", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("42")

		err := handler.GetUserBookings(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []BookingResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Len(t, resp, 2)

		mockService.AssertExpectations(t)
	})
}
