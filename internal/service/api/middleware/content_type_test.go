package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// TestValidateContentType는 Content-Type 검증 미들웨어의 동작을 검증합니다.
func TestValidateContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		contentType    string
		body           string
		expectedStatus int
	}{
		{
			name:           "일치하는 Content-Type 허용",
			method:         http.MethodPut,
			contentType:    "application/json",
			body:           `{"categoryId":"c1","visible":false}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "charset 파라미터 포함 허용",
			method:         http.MethodPost,
			contentType:    "application/json; charset=utf-8",
			body:           `{}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "대소문자 무시 허용",
			method:         http.MethodPost,
			contentType:    "Application/JSON",
			body:           `{}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "다른 Content-Type 거부",
			method:         http.MethodPut,
			contentType:    "text/plain",
			body:           "categoryId=c1",
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "Content-Type 누락 거부",
			method:         http.MethodPost,
			contentType:    "",
			body:           `{}`,
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "본문 없는 요청은 검증 건너뜀",
			method:         http.MethodGet,
			contentType:    "",
			body:           "",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			e.Use(ValidateContentType(echo.MIMEApplicationJSON))
			handler := func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}
			e.GET("/", handler)
			e.PUT("/", handler)
			e.POST("/", handler)

			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}

			req := httptest.NewRequest(tt.method, "/", body)
			if tt.contentType != "" {
				req.Header.Set(echo.HeaderContentType, tt.contentType)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}
