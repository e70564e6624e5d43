package api

import (
	"github.com/labstack/echo/v4"

	cataloghandler "github.com/darkkaiser/catalog-server/internal/service/api/handler/catalog"
	"github.com/darkkaiser/catalog-server/internal/service/api/handler/system"
	appmiddleware "github.com/darkkaiser/catalog-server/internal/service/api/middleware"
)

// RegisterRoutes API 서비스의 전체 라우트를 등록합니다.
//
// 등록되는 엔드포인트:
//   - 시스템: 서비스 상태 확인(/health) 및 버전 정보(/version)
//   - 카탈로그 조회: 상품 목록/상세/이미지, 카테고리 목록, 검색
//   - 이미지 프록시: 상품 이미지 및 플레이스홀더
//   - 카테고리 노출 설정: 조회/변경/일괄 저장/초기화
//   - 진단: 카탈로그 통계, 상위 API 연결 테스트
func RegisterRoutes(e *echo.Echo, systemHandler *system.Handler, catalogHandler *cataloghandler.Handler) {
	registerSystemRoutes(e, systemHandler)
	registerCatalogRoutes(e, catalogHandler)
}

func registerSystemRoutes(e *echo.Echo, h *system.Handler) {
	e.GET("/health", h.HealthCheckHandler)
	e.GET("/version", h.VersionHandler)
}

func registerCatalogRoutes(e *echo.Echo, h *cataloghandler.Handler) {
	api := e.Group("/api")

	// 상품 조회
	api.GET("/products", h.ProductListHandler)
	api.GET("/products/:productId", h.ProductHandler)
	api.GET("/products/:productId/images", h.ProductImagesHandler)
	api.GET("/search", h.SearchHandler)

	// 카테고리 조회
	api.GET("/categories", h.CategoriesHandler)
	api.GET("/all-categories", h.AllCategoriesHandler)

	// 이미지 프록시
	// "placeholder"는 상품 ID와 충돌하지 않는 고정 경로 세그먼트로 먼저 매칭됩니다.
	api.GET("/images/placeholder/:productId", h.PlaceholderHandler)
	api.GET("/images/:productId/:imageId", h.ImageHandler)

	// 카테고리 노출 설정 (본문을 받는 엔드포인트는 JSON Content-Type 검증)
	jsonOnly := appmiddleware.ValidateContentType(echo.MIMEApplicationJSON)
	api.GET("/category-settings", h.CategorySettingsGetHandler)
	api.PUT("/category-settings", h.CategorySettingsPutHandler, jsonOnly)
	api.POST("/category-settings", h.CategorySettingsPostHandler, jsonOnly)
	api.POST("/reset-category-settings", h.CategorySettingsResetHandler)

	// 진단
	api.GET("/stats", h.StatsHandler)
	api.GET("/test-connection", h.TestConnectionHandler)
}
