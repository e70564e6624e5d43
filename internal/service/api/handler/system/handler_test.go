package system_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/darkkaiser/catalog-server/internal/pkg/version"
	"github.com/darkkaiser/catalog-server/internal/service/api/handler/system"
	modelsystem "github.com/darkkaiser/catalog-server/internal/service/api/model/system"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHealthChecker 헬스체크 대상 의존성 스텁
type stubHealthChecker struct {
	err error
}

func (s *stubHealthChecker) Health() error {
	return s.err
}

func doRequest(t *testing.T, h echo.HandlerFunc, path string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h(c))

	return rec
}

func TestHealthCheckHandler_Healthy(t *testing.T) {
	h := system.NewHandler(&stubHealthChecker{}, version.Info{})

	rec := doRequest(t, h.HealthCheckHandler, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp modelsystem.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "healthy", resp.Status)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))

	dep, ok := resp.Dependencies["catalog_service"]
	require.True(t, ok, "catalog_service 의존성 상태가 포함되어야 합니다")
	assert.Equal(t, "healthy", dep.Status)
}

func TestHealthCheckHandler_UnhealthyDependency(t *testing.T) {
	h := system.NewHandler(&stubHealthChecker{err: errors.New("상위 API 클라이언트가 초기화되지 않았습니다")}, version.Info{})

	rec := doRequest(t, h.HealthCheckHandler, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp modelsystem.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "unhealthy", resp.Status)

	dep := resp.Dependencies["catalog_service"]
	assert.Equal(t, "unhealthy", dep.Status)
	assert.Contains(t, dep.Message, "초기화되지 않았습니다")
}

func TestVersionHandler(t *testing.T) {
	buildInfo := version.Info{
		Version:   "v1.2.3",
		Commit:    "abc1234",
		BuildDate: "2026-08-01T00:00:00Z",
	}
	h := system.NewHandler(&stubHealthChecker{}, buildInfo)

	rec := doRequest(t, h.VersionHandler, "/version")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp modelsystem.VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "v1.2.3", resp.Version)
	assert.Equal(t, "abc1234", resp.Commit)
	assert.Equal(t, "2026-08-01T00:00:00Z", resp.BuildDate)
	assert.Equal(t, runtime.Version(), resp.GoVersion)
}

func TestNewHandler_NilCatalogPanics(t *testing.T) {
	assert.Panics(t, func() {
		system.NewHandler(nil, version.Info{})
	})
}
