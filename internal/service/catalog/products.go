package catalog

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
)

// defaultCurrency 상위 API가 취급하는 기준 통화
const defaultCurrency = "RUB"

// Products 조건에 맞는 상품 목록 한 페이지를 반환합니다.
//
// 이 함수는 사용자용 읽기 경로이므로 상위 API 장애가 발생해도 에러를 반환하지
// 않습니다. 권한 없음(403)이면 데모 상품 목록으로, 그 외의 실패면 빈 페이지로
// 성능을 저하시켜 클라이언트 화면이 깨지지 않도록 합니다.
//
// 처리 순서:
//  1. 숨김 카테고리 조회는 상위 API 호출 없이 빈 페이지로 즉시 반환
//  2. 조건에 따라 무필터/카테고리 필터/배치 필터 질의로 상품 수집
//  3. 수집 결과에 노출 설정 기반 필터를 다시 적용한 뒤 요청된 페이지 범위로 재절단
//  4. 페이지에 담긴 상품에 한해 이미지 URL을 해석 (비용이 페이지 크기에 비례)
func (c *Catalog) Products(ctx context.Context, query ProductQuery) *ProductPage {
	q := query.normalize()
	q.Search = strings.TrimSpace(q.Search)

	start := (q.Page - 1) * q.Limit
	end := start + q.Limit

	// 숨김 카테고리는 상위 API를 조회하지 않고 즉시 빈 결과를 반환합니다.
	// 가상 카테고리("all")는 노출 설정의 영향을 받지 않습니다.
	if q.CategoryID != "" && q.CategoryID != AllCategoriesID && !c.store.IsVisible(q.CategoryID) {
		return emptyPage(q.Page, q.Limit)
	}

	list, err := c.collectWindow(ctx, q, end)
	if err != nil {
		if apperrors.Is(err, apperrors.Forbidden) {
			applog.WithComponent(component).Warn("상품 조회 권한이 없어 데모 상품 목록으로 대체합니다")

			return c.demoPage(q)
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"category_id": q.CategoryID,
			"search":      q.Search,
			"error":       err,
		}).Warn("상품 목록 조회 실패: 빈 페이지로 대체합니다")

		return emptyPage(q.Page, q.Limit)
	}

	rows, removed := c.applyVisibilityFilter(list.Rows)

	// 상위 API가 보고한 전체 건수에서 필터로 제외된 건수를 차감하여 추정합니다.
	// 제외 건수는 수집된 범위 안에서만 알 수 있으므로 근사치입니다.
	filteredTotal := list.Total - removed
	if filteredTotal < len(rows) {
		filteredTotal = len(rows)
	}

	// 요청된 페이지 범위로 재절단
	sliceEnd := end
	if sliceEnd > len(rows) {
		sliceEnd = len(rows)
	}
	var window []upstreamProduct
	if start < len(rows) {
		window = rows[start:sliceEnd]
	}

	products := make([]Product, 0, len(window))
	for _, row := range window {
		products = append(products, c.buildProduct(ctx, row))
	}

	return &ProductPage{
		Products: products,
		Total:    filteredTotal,
		Page:     q.Page,
		Limit:    q.Limit,
		HasMore:  end < filteredTotal,
	}
}

// Product 단일 상품의 상세 정보를 반환합니다.
// 숨김 카테고리에 속한 상품은 존재하지 않는 것으로 처리됩니다.
func (c *Catalog) Product(ctx context.Context, productID string) (*Product, error) {
	row, err := c.client.product(ctx, productID)
	if err != nil {
		return nil, err
	}

	if row.CategoryID != "" && !c.store.IsVisible(row.CategoryID) {
		return nil, apperrors.New(apperrors.NotFound,
			fmt.Sprintf("상품을 찾을 수 없습니다. (ID: %s)", productID))
	}

	product := c.buildProduct(ctx, *row)
	return &product, nil
}

// collectWindow 요청된 페이지 범위(end)를 덮을 만큼의 상품을 상위 API에서 수집합니다.
//
// 수집 목표치는 이후의 클라이언트 측 필터링으로 줄어들 수 있는 분량을 감안하여
// 요청 범위보다 한 페이지만큼 늘려 잡습니다. 상위 API의 단일 요청 한도를 넘는
// 범위는 offset을 증가시키며 나누어 수집합니다.
func (c *Catalog) collectWindow(ctx context.Context, q ProductQuery, end int) (*upstreamProductList, error) {
	want := end + q.Limit

	// 특정 카테고리 조회: 해당 카테고리 하나만 필터로 전달
	if q.CategoryID != "" && q.CategoryID != AllCategoriesID {
		return c.collectRows(ctx, []string{q.CategoryID}, q.Search, want)
	}

	// 숨김 카테고리가 하나도 없으면 전체 카테고리 노출 상태이므로 무필터 질의 한 번으로 충분합니다.
	hidden := c.store.HiddenIDs()
	if len(hidden) == 0 {
		return c.collectRows(ctx, nil, q.Search, want)
	}

	// 숨김 카테고리가 존재하면 노출 카테고리 ID들을 배치로 나누어 필터 질의합니다.
	// filter 질의 문자열 길이가 제한되어 있어 한 요청에 모든 ID를 담을 수 없습니다.
	visibleIDs, err := c.visibleCategoryIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(visibleIDs) == 0 {
		return &upstreamProductList{}, nil
	}

	combined := &upstreamProductList{}
	for batchStart := 0; batchStart < len(visibleIDs); batchStart += c.filterBatchSize {
		batchEnd := batchStart + c.filterBatchSize
		if batchEnd > len(visibleIDs) {
			batchEnd = len(visibleIDs)
		}

		list, err := c.collectRows(ctx, visibleIDs[batchStart:batchEnd], q.Search, want)
		if err != nil {
			return nil, err
		}

		combined.Rows = append(combined.Rows, list.Rows...)
		combined.Total += list.Total
	}

	return combined, nil
}

// collectRows 지정된 조건으로 상위 API를 반복 조회하여 목표 건수(want)만큼 수집합니다.
func (c *Catalog) collectRows(ctx context.Context, categoryIDs []string, search string, want int) (*upstreamProductList, error) {
	collected := &upstreamProductList{}

	offset := 0
	for len(collected.Rows) < want {
		batchLimit := want - len(collected.Rows)
		if batchLimit > upstreamProductFetchLimit {
			batchLimit = upstreamProductFetchLimit
		}

		list, err := c.client.products(ctx, productListQuery{
			Limit:       batchLimit,
			Offset:      offset,
			CategoryIDs: categoryIDs,
			Search:      search,
		})
		if err != nil {
			return nil, err
		}

		collected.Total = list.Total
		collected.Rows = append(collected.Rows, list.Rows...)

		// 더 이상 받아올 상품이 없으면 중단
		if len(list.Rows) < batchLimit || len(collected.Rows) >= list.Total {
			break
		}
		offset += len(list.Rows)
	}

	return collected, nil
}

// applyVisibilityFilter 수집된 상품에 노출 설정 기반 필터를 다시 적용합니다.
//
// 상위 API 필터가 구성된 이후에 설정이 변경되었거나 무필터 질의였던 경우를 대비한
// 안전망입니다. 카테고리 미지정 상품의 포함 여부는 설정 플래그를 따릅니다.
// 반환값은 필터를 통과한 상품 목록과 제외된 건수입니다.
func (c *Catalog) applyVisibilityFilter(rows []upstreamProduct) ([]upstreamProduct, int) {
	filtered := make([]upstreamProduct, 0, len(rows))
	removed := 0

	for _, row := range rows {
		if row.CategoryID == "" {
			if !c.includeUncategorized {
				removed++
				continue
			}
		} else if !c.store.IsVisible(row.CategoryID) {
			removed++
			continue
		}

		filtered = append(filtered, row)
	}

	return filtered, removed
}

// buildProduct 상위 API의 상품 정보를 클라이언트에 노출되는 형태로 가공합니다.
// 이미지 목록 조회가 한 번 발생하므로 페이지에 담긴 상품에 대해서만 호출되어야 합니다.
func (c *Catalog) buildProduct(ctx context.Context, row upstreamProduct) Product {
	product := Product{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Code:         row.Code,
		Price:        row.Price,
		Currency:     defaultCurrency,
		CategoryID:   row.CategoryID,
		CategoryName: row.CategoryName,
	}

	product.ImageURL, product.HasImages = c.resolveImageURL(ctx, row.ID)

	return product
}

// resolveImageURL 상품의 첫 번째 이미지를 기준으로 이 서버가 제공하는 이미지 경로를 결정합니다.
// 이미지가 없거나 목록 조회에 실패하면 플레이스홀더 경로를 반환합니다.
func (c *Catalog) resolveImageURL(ctx context.Context, productID string) (string, bool) {
	images, err := c.client.productImages(ctx, productID)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"product_id": productID,
			"error":      err,
		}).Debug("상품 이미지 목록 조회 실패: 플레이스홀더로 대체합니다")

		return placeholderURL(productID), false
	}

	if len(images) == 0 {
		return placeholderURL(productID), false
	}

	return fmt.Sprintf("/api/images/%s/%s", productID, images[0].ID), true
}

// placeholderURL 플레이스홀더 이미지의 서버 제공 경로를 반환합니다.
func placeholderURL(productID string) string {
	return "/api/images/placeholder/" + productID
}
