package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator はEcho用のカスタムバリデーター
// 検証エラーはフィールドごとの読めるメッセージに変換して400で返す
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate はリクエストのバリデーションを実行する
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldMessage(fe))
	}
	return echo.NewHTTPError(http.StatusBadRequest, strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s は必須です", fe.Field())
	case "gt":
		return fmt.Sprintf("%s は %s より大きい必要があります", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s は %s 以上である必要があります", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s は %s 件以上必要です", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s の形式が不正です", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s は次のいずれかである必要があります: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s の値が不正です（%s）", fe.Field(), fe.Tag())
	}
}
