package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-show-booking/internal/domain/user"
)

type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(s UserServiceInterface) *UserHandler {
	return &UserHandler{service: s}
}

type RegisterUserRequest struct {
	Name  string `json:"name" validate:"required" example:"山田太郎"`
	Email string `json:"email" validate:"required,email" example:"taro@example.com"`
}

type UserResponse struct {
	ID        int64  `json:"id" example:"42"`
	Name      string `json:"name" example:"山田太郎"`
	Email     string `json:"email" example:"taro@example.com"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// Register godoc
// @Summary ユーザーを登録
// @Description メールアドレスでユーザーを検索し、なければ作成します
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterUserRequest true "ユーザー情報"
// @Success 200 {object} UserResponse
// @Failure 400 {object} map[string]string
// @Router /users [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	u, err := h.service.GetOrCreateUser(c.Request().Context(), req.Name, req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// GetByID godoc
// @Summary ユーザーを取得
// @Description 指定IDのユーザーを取得します
// @Tags users
// @Produce json
// @Param id path int true "ユーザーID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} map[string]string
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	u, err := h.service.GetUser(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// List godoc
// @Summary ユーザー一覧を取得
// @Tags users
// @Produce json
// @Success 200 {array} UserResponse
// @Router /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	return c.JSON(http.StatusOK, resp)
}
