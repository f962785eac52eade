package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricsRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "metrics")
	})
	return rec, handler(c)
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestMetricsBasicAuth(t *testing.T) {
	t.Run("認証設定がなければパススルー", func(t *testing.T) {
		os.Unsetenv("METRICS_USER")
		os.Unsetenv("METRICS_PASSWORD")

		rec, err := metricsRequest(t, MetricsBasicAuth(), "")

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "metrics", rec.Body.String())
	})

	t.Run("正しい認証情報で通過できる", func(t *testing.T) {
		t.Setenv("METRICS_USER", "testuser")
		t.Setenv("METRICS_PASSWORD", "testpass")

		rec, err := metricsRequest(t, MetricsBasicAuth(), basicAuth("testuser", "testpass"))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("誤った認証情報は401", func(t *testing.T) {
		t.Setenv("METRICS_USER", "testuser")
		t.Setenv("METRICS_PASSWORD", "testpass")

		rec, err := metricsRequest(t, MetricsBasicAuth(), basicAuth("wronguser", "wrongpass"))

		if err != nil {
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		} else {
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("認証ヘッダーなしは401", func(t *testing.T) {
		t.Setenv("METRICS_USER", "testuser")
		t.Setenv("METRICS_PASSWORD", "testpass")

		_, err := metricsRequest(t, MetricsBasicAuth(), "")

		if err != nil {
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		}
	})
}

func TestMetricsConfig_IsEnabled(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		want     bool
	}{
		{"両方設定あり", "user", "pass", true},
		{"ユーザーのみ", "user", "", false},
		{"パスワードのみ", "", "pass", false},
		{"両方なし", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &MetricsConfig{User: tt.user, Password: tt.password}
			assert.Equal(t, tt.want, cfg.IsEnabled())
		})
	}
}

func TestMetricsConfig_Verify(t *testing.T) {
	cfg := &MetricsConfig{User: "admin", Password: "secret"}

	ok, err := cfg.verify("admin", "secret", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cfg.verify("admin", "wrong", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = cfg.verify("other", "secret", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
