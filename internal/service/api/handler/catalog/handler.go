// Package catalog 카탈로그 엔드포인트 핸들러를 제공합니다.
//
// 미니앱(WebApp)이 사용하는 상품/카테고리 조회, 이미지 프록시, 카테고리 노출 설정,
// 진단(통계, 연결 테스트) API를 처리합니다.
package catalog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/darkkaiser/catalog-server/internal/service/api/constants"
	"github.com/darkkaiser/catalog-server/internal/service/api/httputil"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
	"github.com/labstack/echo/v4"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	catalogsvc "github.com/darkkaiser/catalog-server/internal/service/catalog"
	"github.com/darkkaiser/catalog-server/internal/service/catalog/settings"
)

// Service 핸들러가 의존하는 카탈로그 서비스 인터페이스입니다.
// *catalog.Catalog가 이 인터페이스를 구현하며, 테스트에서는 스텁으로 대체합니다.
type Service interface {
	Products(ctx context.Context, query catalogsvc.ProductQuery) *catalogsvc.ProductPage
	Product(ctx context.Context, productID string) (*catalogsvc.Product, error)
	ProductImages(ctx context.Context, productID string) ([]catalogsvc.ProductImage, error)
	VisibleCategories(ctx context.Context) ([]catalogsvc.Category, error)
	AllCategories(ctx context.Context) ([]catalogsvc.Category, error)
	Image(ctx context.Context, productID, imageID string) ([]byte, string, error)
	Placeholder(productID string) ([]byte, string)
	Stats(ctx context.Context) (catalogsvc.Stats, error)
	TestConnection(ctx context.Context) *catalogsvc.ConnectionStatus
	Settings() *settings.Store
}

// Handler 카탈로그 엔드포인트 핸들러
type Handler struct {
	catalog Service
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(catalog Service) *Handler {
	if catalog == nil {
		panic(constants.PanicMsgCatalogRequired)
	}

	return &Handler{
		catalog: catalog,
	}
}

// ProductListHandler 상품 목록을 페이지 단위로 반환합니다.
//
// 쿼리 파라미터:
//   - page: 페이지 번호 (기본값 1)
//   - limit: 페이지당 상품 수 (기본값 20, 최대 100)
//   - category: 카테고리 ID 필터 ("all"이면 전체)
//   - search: 검색어
//
// 상위 API 장애 시에도 빈 목록으로 응답하므로 항상 200을 반환합니다.
func (h *Handler) ProductListHandler(c echo.Context) error {
	query := h.parseProductQuery(c)

	page := h.catalog.Products(c.Request().Context(), query)

	return c.JSON(http.StatusOK, page)
}

// ProductHandler 단일 상품의 상세 정보를 반환합니다.
func (h *Handler) ProductHandler(c echo.Context) error {
	productID := c.Param(constants.PathParamProductID)

	product, err := h.catalog.Product(c.Request().Context(), productID)
	if err != nil {
		if apperrors.Is(err, apperrors.NotFound) {
			return httputil.NewNotFoundError(constants.ErrMsgNotFoundProduct)
		}
		return httputil.NewInternalServerError(constants.ErrMsgInternalServer)
	}

	return c.JSON(http.StatusOK, product)
}

// ProductImagesHandler 상품에 등록된 이미지 메타데이터 목록을 반환합니다.
// 상위 API 장애 시 빈 목록으로 응답합니다.
func (h *Handler) ProductImagesHandler(c echo.Context) error {
	productID := c.Param(constants.PathParamProductID)

	images, err := h.catalog.ProductImages(c.Request().Context(), productID)
	if err != nil {
		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"product_id": productID,
			"error":      err,
		}).Warn(constants.LogMsgProductImagesDegraded)

		images = []catalogsvc.ProductImage{}
	}
	if images == nil {
		images = []catalogsvc.ProductImage{}
	}

	return c.JSON(http.StatusOK, images)
}

// CategoriesHandler 노출 설정이 적용된 카테고리 목록을 반환합니다.
//
// 상위 API 조회에 실패하더라도 미니앱의 초기 화면이 깨지지 않도록
// 빈 목록으로 응답합니다. 실패 원인은 로그로만 남깁니다.
func (h *Handler) CategoriesHandler(c echo.Context) error {
	categories, err := h.catalog.VisibleCategories(c.Request().Context())
	if err != nil {
		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"endpoint": "/api/categories",
			"error":    err,
		}).Warn(constants.LogMsgCategoriesDegraded)

		categories = []catalogsvc.Category{}
	}

	return c.JSON(http.StatusOK, categories)
}

// AllCategoriesHandler 노출 여부와 무관하게 전체 카테고리 목록을 반환합니다.
// 관리자 설정 화면에서 사용됩니다.
func (h *Handler) AllCategoriesHandler(c echo.Context) error {
	categories, err := h.catalog.AllCategories(c.Request().Context())
	if err != nil {
		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"endpoint": "/api/all-categories",
			"error":    err,
		}).Warn(constants.LogMsgCategoriesDegraded)

		categories = []catalogsvc.Category{}
	}

	return c.JSON(http.StatusOK, categories)
}

// categoryVisibilityRequest 단일 카테고리 노출 설정 변경 요청 본문입니다.
type categoryVisibilityRequest struct {
	CategoryID string `json:"categoryId"`
	Visible    bool   `json:"visible"`
}

// CategorySettingsGetHandler 저장된 카테고리 노출 설정 전체를 반환합니다.
func (h *Handler) CategorySettingsGetHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Settings().All())
}

// CategorySettingsPutHandler 단일 카테고리의 노출 여부를 변경합니다.
func (h *Handler) CategorySettingsPutHandler(c echo.Context) error {
	var req categoryVisibilityRequest
	if err := c.Bind(&req); err != nil {
		return httputil.NewBadRequestError(constants.ErrMsgBadRequestInvalidBody)
	}

	req.CategoryID = strings.TrimSpace(req.CategoryID)
	if req.CategoryID == "" {
		return httputil.NewBadRequestError(constants.ErrMsgCategoryIDRequired)
	}

	if err := h.catalog.Settings().SetVisible(req.CategoryID, req.Visible); err != nil {
		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"category_id": req.CategoryID,
			"error":       err,
		}).Error(constants.ErrMsgSettingsSaveFailed)

		return httputil.NewInternalServerError(constants.ErrMsgSettingsSaveFailed)
	}

	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"category_id": req.CategoryID,
		"visible":     req.Visible,
	}).Info(constants.LogMsgCategorySettingsChanged)

	return httputil.Success(c)
}

// CategorySettingsPostHandler 카테고리 노출 설정 전체를 일괄 저장합니다.
// 요청 본문의 설정으로 기존 설정을 완전히 대체합니다.
func (h *Handler) CategorySettingsPostHandler(c echo.Context) error {
	var req map[string]bool
	if err := c.Bind(&req); err != nil {
		return httputil.NewBadRequestError(constants.ErrMsgBadRequestInvalidBody)
	}

	if err := h.catalog.Settings().Save(settings.Settings(req)); err != nil {
		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"error": err,
		}).Error(constants.ErrMsgSettingsSaveFailed)

		return httputil.NewInternalServerError(constants.ErrMsgSettingsSaveFailed)
	}

	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"count": len(req),
	}).Info(constants.LogMsgCategorySettingsReplaced)

	return httputil.Success(c)
}

// CategorySettingsResetHandler 카테고리 노출 설정을 초기 상태(모두 노출)로 되돌립니다.
func (h *Handler) CategorySettingsResetHandler(c echo.Context) error {
	if err := h.catalog.Settings().Reset(); err != nil {
		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"error": err,
		}).Error(constants.ErrMsgSettingsSaveFailed)

		return httputil.NewInternalServerError(constants.ErrMsgSettingsSaveFailed)
	}

	applog.WithComponent(constants.ComponentHandler).Info(constants.LogMsgCategorySettingsReset)

	return httputil.Success(c)
}

// ImageHandler 상품 이미지를 프록시하여 반환합니다.
//
// 일치하는 이미지가 존재하지 않으면 404를 반환하고, 그 외 상위 API 장애 시에는
// 플레이스홀더 SVG로 대체하여 미니앱에 깨진 이미지가 노출되지 않도록 합니다.
func (h *Handler) ImageHandler(c echo.Context) error {
	productID := c.Param(constants.PathParamProductID)
	imageID := c.Param(constants.PathParamImageID)

	data, contentType, err := h.catalog.Image(c.Request().Context(), productID, imageID)
	if err != nil {
		if apperrors.Is(err, apperrors.NotFound) {
			return httputil.NewNotFoundError(constants.ErrMsgNotFoundImage)
		}

		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"product_id": productID,
			"image_id":   imageID,
			"error":      err,
		}).Warn(constants.LogMsgImageDegraded)

		data, contentType = h.catalog.Placeholder(productID)
	}

	c.Response().Header().Set("Cache-Control", constants.CacheControlImages)

	return c.Blob(http.StatusOK, contentType, data)
}

// PlaceholderHandler 상품 ID 기반의 플레이스홀더 SVG 이미지를 반환합니다.
func (h *Handler) PlaceholderHandler(c echo.Context) error {
	productID := c.Param(constants.PathParamProductID)

	data, contentType := h.catalog.Placeholder(productID)

	c.Response().Header().Set("Cache-Control", constants.CacheControlImages)

	return c.Blob(http.StatusOK, contentType, data)
}

// SearchHandler 검색어로 상품을 조회합니다. 검색어(q)가 없으면 400을 반환합니다.
func (h *Handler) SearchHandler(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam(constants.QueryParamQuery))
	if keyword == "" {
		return httputil.NewBadRequestError(constants.ErrMsgSearchQueryRequired)
	}

	query := h.parseProductQuery(c)
	query.Search = keyword

	page := h.catalog.Products(c.Request().Context(), query)

	return c.JSON(http.StatusOK, page)
}

// StatsHandler 카탈로그 통계 스냅샷을 반환합니다. 관리자 화면에서 사용됩니다.
func (h *Handler) StatsHandler(c echo.Context) error {
	stats, err := h.catalog.Stats(c.Request().Context())
	if err != nil {
		return httputil.NewInternalServerError(constants.ErrMsgStatsUnavailable)
	}

	return c.JSON(http.StatusOK, stats)
}

// TestConnectionHandler 상위 API와의 연결 상태를 진단하여 반환합니다.
// 실패하더라도 원인을 응답 본문에 담아 200으로 반환합니다.
func (h *Handler) TestConnectionHandler(c echo.Context) error {
	status := h.catalog.TestConnection(c.Request().Context())

	return c.JSON(http.StatusOK, status)
}

// parseProductQuery 쿼리 스트링에서 상품 목록 조회 조건을 추출합니다.
// 숫자 파라미터가 잘못된 경우 거부하는 대신 기본값으로 대체합니다.
func (h *Handler) parseProductQuery(c echo.Context) catalogsvc.ProductQuery {
	query := catalogsvc.ProductQuery{
		CategoryID: strings.TrimSpace(c.QueryParam(constants.QueryParamCategory)),
		Search:     strings.TrimSpace(c.QueryParam(constants.QueryParamSearch)),
	}

	if page, err := strconv.Atoi(c.QueryParam(constants.QueryParamPage)); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(c.QueryParam(constants.QueryParamLimit)); err == nil {
		query.Limit = limit
	}

	return query
}
