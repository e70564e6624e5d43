package catalog

import (
	"context"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
)

// allCategoryName 전체 상품을 아우르는 가상 카테고리의 표시 이름
const allCategoryName = "전체 상품"

// VisibleCategories 최종 사용자에게 노출되는 카테고리 목록을 반환합니다.
//
// 상위 API에서 전체 카테고리를 조회한 뒤 노출 설정에 따라 필터링하며,
// 목록의 맨 앞에 전체 상품을 나타내는 가상 카테고리("all")를 추가합니다.
// 카테고리별 상품 수는 카테고리 수가 적을 때만 정확하게 집계하고,
// 많을 때는 근사치 마커("~")로 대체합니다.
//
// 상위 API가 카테고리 조회 권한 없음(403)을 반환하면 실패 대신
// 가상 카테고리 하나만 담긴 목록을 반환합니다. 그 외의 조회 실패는
// 호출자에게 에러로 전파됩니다.
func (c *Catalog) VisibleCategories(ctx context.Context) ([]Category, error) {
	upstreamCategories, err := c.client.categories(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.Forbidden) {
			applog.WithComponent(component).Warn("카테고리 조회 권한이 없어 가상 카테고리만 노출합니다")

			return []Category{c.allCategory(ctx)}, nil
		}
		return nil, err
	}

	categories := make([]Category, 0, len(upstreamCategories)+1)
	categories = append(categories, c.allCategory(ctx))

	for _, uc := range upstreamCategories {
		if !c.store.IsVisible(uc.ID) {
			continue
		}

		categories = append(categories, Category{
			ID:          uc.ID,
			Name:        uc.Name,
			Description: uc.Description,
			PathName:    uc.PathName,
			Visible:     true,
		})
	}

	c.attachProductCounts(ctx, categories)

	return categories, nil
}

// AllCategories 관리자 화면용으로 숨김 카테고리를 포함한 전체 목록을 반환합니다.
// 각 항목에는 노출 설정에 따른 Visible 플래그가 표시됩니다.
func (c *Catalog) AllCategories(ctx context.Context) ([]Category, error) {
	upstreamCategories, err := c.client.categories(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.Forbidden) {
			applog.WithComponent(component).Warn("카테고리 조회 권한이 없어 가상 카테고리만 노출합니다")

			return []Category{c.allCategory(ctx)}, nil
		}
		return nil, err
	}

	categories := make([]Category, 0, len(upstreamCategories))
	for _, uc := range upstreamCategories {
		categories = append(categories, Category{
			ID:          uc.ID,
			Name:        uc.Name,
			Description: uc.Description,
			PathName:    uc.PathName,
			Visible:     c.store.IsVisible(uc.ID),
		})
	}

	c.attachProductCounts(ctx, categories)

	return categories, nil
}

// allCategory 전체 상품을 나타내는 가상 카테고리를 생성합니다.
// 이 카테고리는 노출 설정의 영향을 받지 않고 항상 노출됩니다.
func (c *Catalog) allCategory(ctx context.Context) Category {
	category := Category{
		ID:      AllCategoriesID,
		Name:    allCategoryName,
		Visible: true,
	}

	total, err := c.client.countProducts(ctx, "")
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Warn("전체 상품 수 집계 실패: 근사치 마커로 대체합니다")

		category.ProductCount = ProductCount{Approx: true}
		return category
	}

	category.ProductCount = ProductCount{Value: total}
	return category
}

// attachProductCounts 각 카테고리의 상품 수를 집계하여 목록에 채웁니다.
//
// 카테고리당 한 건의 필터 질의가 발생하므로, 카테고리 수가 상한을 초과하면
// 집계를 생략하고 전부 근사치 마커로 처리하여 상위 API 요청량을 제한합니다.
// 집계 질의들은 Fetcher 체인의 요청 속도 제어를 통해 자연히 직렬화됩니다.
func (c *Catalog) attachProductCounts(ctx context.Context, categories []Category) {
	countable := 0
	for i := range categories {
		if categories[i].ID != AllCategoriesID {
			countable++
		}
	}

	if countable > approxCountThreshold {
		applog.WithComponentAndFields(component, applog.Fields{
			"categories": countable,
			"threshold":  approxCountThreshold,
		}).Info("카테고리 수가 많아 상품 수 집계를 근사치로 대체합니다")

		for i := range categories {
			if categories[i].ID == AllCategoriesID {
				continue
			}
			categories[i].ProductCount = ProductCount{Approx: true}
		}
		return
	}

	for i := range categories {
		if categories[i].ID == AllCategoriesID {
			continue
		}

		count, err := c.client.countProducts(ctx, categories[i].ID)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"category_id": categories[i].ID,
				"error":       err,
			}).Warn("카테고리 상품 수 집계 실패: 근사치 마커로 대체합니다")

			categories[i].ProductCount = ProductCount{Approx: true}
			continue
		}

		categories[i].ProductCount = ProductCount{Value: count}
	}
}

// visibleCategoryIDs 상위 API의 카테고리 목록 중 노출 설정상 보이는 카테고리 ID만 반환합니다.
func (c *Catalog) visibleCategoryIDs(ctx context.Context) ([]string, error) {
	upstreamCategories, err := c.client.categories(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, uc := range upstreamCategories {
		if c.store.IsVisible(uc.ID) {
			ids = append(ids, uc.ID)
		}
	}

	return ids, nil
}
