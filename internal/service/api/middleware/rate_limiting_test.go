package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/darkkaiser/catalog-server/internal/service/api/httputil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedServer(requestsPerSecond, burst int) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = httputil.ErrorHandler
	e.Use(RateLimiting(requestsPerSecond, burst))
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

// TestRateLimiting_BurstExceeded는 버스트 허용량 초과 시 429가 반환되는지 검증합니다.
func TestRateLimiting_BurstExceeded(t *testing.T) {
	e := newRateLimitedServer(1, 3)

	statuses := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:40000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	// 처음 burst(3)개는 허용, 이후는 거부
	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Equal(t, http.StatusOK, statuses[1])
	assert.Equal(t, http.StatusOK, statuses[2])
	assert.Equal(t, http.StatusTooManyRequests, statuses[3])
	assert.Equal(t, http.StatusTooManyRequests, statuses[4])
}

// TestRateLimiting_RetryAfterHeader는 429 응답에 Retry-After 헤더가 포함되는지 검증합니다.
func TestRateLimiting_RetryAfterHeader(t *testing.T) {
	e := newRateLimitedServer(1, 1)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:40000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if i == 1 {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		}
	}
}

// TestRateLimiting_PerIPIsolation은 IP별로 제한이 독립적으로 적용되는지 검증합니다.
func TestRateLimiting_PerIPIsolation(t *testing.T) {
	e := newRateLimitedServer(1, 1)

	// 첫 번째 IP의 토큰 소진
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.3:40000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.3:40000"
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// 다른 IP는 여전히 허용
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.4:40000"
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestRateLimiting_InvalidConfigPanics는 잘못된 설정값으로 생성 시 panic이 발생하는지 검증합니다.
func TestRateLimiting_InvalidConfigPanics(t *testing.T) {
	assert.Panics(t, func() { RateLimiting(0, 10) })
	assert.Panics(t, func() { RateLimiting(10, 0) })
	assert.Panics(t, func() { RateLimiting(-1, -1) })
}

// TestIPRateLimiter_ConcurrentAccess는 getLimiter의 동시 접근 안전성을 검증합니다.
func TestIPRateLimiter_ConcurrentAccess(t *testing.T) {
	limiter := newIPRateLimiter(10, 20)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := limiter.getLimiter("10.0.0.5")
			assert.NotNil(t, l)
		}()
	}
	wg.Wait()

	// 동일 IP에 대해 단일 Limiter 인스턴스만 생성되어야 함
	assert.Len(t, limiter.limiters, 1)
}
