// Package system 시스템 엔드포인트 핸들러를 제공합니다.
//
// 헬스체크, 버전 정보 등 시스템 수준의 API를 처리합니다.
package system

import (
	"net/http"
	"runtime"
	"time"

	"github.com/darkkaiser/catalog-server/internal/pkg/version"
	"github.com/darkkaiser/catalog-server/internal/service/api/constants"
	"github.com/darkkaiser/catalog-server/internal/service/api/model/system"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
	"github.com/labstack/echo/v4"
)

// HealthChecker 헬스체크 대상 의존성이 구현해야 하는 인터페이스입니다.
type HealthChecker interface {
	Health() error
}

// Handler 시스템 엔드포인트 핸들러 (헬스체크, 버전 정보)
type Handler struct {
	catalog HealthChecker

	buildInfo version.Info

	serverStartTime time.Time
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(catalog HealthChecker, buildInfo version.Info) *Handler {
	if catalog == nil {
		panic(constants.PanicMsgCatalogRequired)
	}

	return &Handler{
		catalog: catalog,

		buildInfo: buildInfo,

		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler 서버와 외부 의존성의 상태를 반환합니다.
//
// 인증 없이 호출 가능하며, 모니터링 시스템에서 사용됩니다.
//
// 응답 필드:
//   - status: 전체 서버 상태 (healthy, unhealthy)
//   - uptime: 서버 가동 시간(초)
//   - dependencies: 외부 의존성별 상태 (catalog_service 등)
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":  "/health",
		"method":    c.Request().Method,
		"remote_ip": c.RealIP(),
	}).Debug(constants.LogMsgHealthCheck)

	uptime := int64(time.Since(h.serverStartTime).Seconds())

	// 외부 의존성 상태 수집
	deps := make(map[string]system.DependencyStatus)

	// 카탈로그 서비스 상태 확인
	if h.catalog != nil {
		if err := h.catalog.Health(); err != nil {
			deps[constants.DependencyCatalogService] = system.DependencyStatus{
				Status:  constants.HealthStatusUnhealthy,
				Message: err.Error(),
			}
		} else {
			deps[constants.DependencyCatalogService] = system.DependencyStatus{
				Status:  constants.HealthStatusHealthy,
				Message: constants.MsgDepStatusHealthy,
			}
		}
	} else {
		deps[constants.DependencyCatalogService] = system.DependencyStatus{
			Status:  constants.HealthStatusUnhealthy,
			Message: constants.MsgDepStatusNotInitialized,
		}
	}

	// 하나라도 unhealthy면 전체 상태를 unhealthy로 설정
	serverStatus := constants.HealthStatusHealthy
	for _, dep := range deps {
		if dep.Status != constants.HealthStatusHealthy {
			serverStatus = constants.HealthStatusUnhealthy
			break
		}
	}

	return c.JSON(http.StatusOK, system.HealthResponse{
		Status:       serverStatus,
		Uptime:       uptime,
		Dependencies: deps,
	})
}

// VersionHandler 서버의 버전, Git 커밋 해시, 빌드 날짜, Go 버전을 반환합니다.
// 디버깅 및 배포 버전 확인에 사용됩니다.
func (h *Handler) VersionHandler(c echo.Context) error {
	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":  "/version",
		"method":    c.Request().Method,
		"remote_ip": c.RealIP(),
	}).Debug(constants.LogMsgVersionInfo)

	return c.JSON(http.StatusOK, system.VersionResponse{
		Version:   h.buildInfo.Version,
		Commit:    h.buildInfo.Commit,
		BuildDate: h.buildInfo.BuildDate,
		GoVersion: runtime.Version(),
	})
}
