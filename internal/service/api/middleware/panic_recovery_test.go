package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darkkaiser/catalog-server/internal/service/api/httputil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPanicRecovery는 패닉 복구 미들웨어의 동작을 검증합니다.
func TestPanicRecovery(t *testing.T) {
	tests := []struct {
		name           string
		handler        echo.HandlerFunc
		expectedStatus int
	}{
		{
			name: "error 타입 panic 복구",
			handler: func(c echo.Context) error {
				panic(errors.New("handler 내부 오류"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "string 타입 panic 복구",
			handler: func(c echo.Context) error {
				panic("예상치 못한 상황")
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "정상 핸들러는 영향 없음",
			handler: func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = httputil.ErrorHandler
			e.Use(PanicRecovery())
			e.GET("/", tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			// panic이 테스트 프로세스까지 전파되지 않아야 함
			require.NotPanics(t, func() {
				e.ServeHTTP(rec, req)
			})

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}
