package catalog

import (
	"encoding/json"
	"fmt"
)

// AllCategoriesID 모든 카테고리를 아우르는 가상 카테고리("전체 상품")의 식별자입니다.
// 이 식별자는 가시성 필터링 대상에서 항상 제외됩니다.
const AllCategoriesID = "all"

// unknownImageID 이미지 식별자를 어떤 방법으로도 도출할 수 없을 때 사용되는 마지막 폴백 값입니다.
const unknownImageID = "unknown"

// ProductCount 카테고리의 상품 수입니다.
//
// 카테고리가 많아 정확한 집계가 상위 API 요청 한도를 위협하는 경우,
// 집계를 생략하고 근사치 마커("~")로 직렬화됩니다.
type ProductCount struct {
	Value  int
	Approx bool
}

// MarshalJSON 정확한 수치는 정수로, 근사치는 문자열 "~"로 직렬화합니다.
func (c ProductCount) MarshalJSON() ([]byte, error) {
	if c.Approx {
		return []byte(`"~"`), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON 정수 또는 "~" 문자열을 ProductCount로 역직렬화합니다.
func (c *ProductCount) UnmarshalJSON(data []byte) error {
	if string(data) == `"~"` {
		*c = ProductCount{Approx: true}
		return nil
	}

	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("상품 수 역직렬화 실패: %w", err)
	}

	*c = ProductCount{Value: value}
	return nil
}

// Category 클라이언트에 노출되는 카테고리 정보입니다.
// 상위 API에서 매 요청마다 새로 구성되며 로컬에 저장되지 않습니다.
type Category struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	PathName     string       `json:"pathName"`
	ProductCount ProductCount `json:"productCount"`

	// Visible 관리자 설정에 따른 노출 여부입니다. 설정이 없는 카테고리는 항상 노출됩니다.
	Visible bool `json:"visible"`
}

// Product 클라이언트에 노출되는 상품 정보입니다.
//
// Price는 상위 API의 판매 가격 단계 목록에서 파생됩니다:
// 값이 양수인 첫 번째 단계를 택해 100으로 나눈 주 화폐 단위 금액이며,
// 양수 단계가 하나도 없으면 0입니다.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Code        string  `json:"code"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`

	// ImageURL 이 서버가 제공하는 이미지 경로입니다.
	// 상품 이미지가 없으면 플레이스홀더 경로가 설정되고 HasImages는 false가 됩니다.
	ImageURL  string `json:"imageUrl"`
	HasImages bool   `json:"hasImages"`

	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

// ProductPage 상품 목록 조회 결과 한 페이지입니다.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	HasMore  bool      `json:"hasMore"`
}

// emptyPage 상위 API 장애 시 조용한 성능 저하(silent degradation)를 위해 반환되는 빈 페이지를 생성합니다.
func emptyPage(page, limit int) *ProductPage {
	return &ProductPage{
		Products: []Product{},
		Total:    0,
		Page:     page,
		Limit:    limit,
		HasMore:  false,
	}
}

// ProductQuery 상품 목록 조회 조건입니다.
type ProductQuery struct {
	Page       int
	Limit      int
	CategoryID string
	Search     string
}

// normalize 페이지/한도 값을 유효 범위로 보정하고 검색어 공백을 정리합니다.
func (q ProductQuery) normalize() ProductQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	return q
}

// Stats 서비스 통계 정보입니다. 주기적인 스냅샷 갱신을 통해 계산됩니다.
type Stats struct {
	TotalProducts     int    `json:"totalProducts"`
	TotalCategories   int    `json:"totalCategories"`
	VisibleCategories int    `json:"visibleCategories"`
	CachedImages      int    `json:"cachedImages"`
	RefreshedAt       string `json:"refreshedAt"`
}

// ConnectionStatus 상위 API 연결 진단 결과입니다.
// 읽기 경로들과 달리 이 경로만은 원본 에러 정보를 그대로 노출합니다.
type ConnectionStatus struct {
	Success       bool   `json:"success"`
	AccountID     string `json:"accountId,omitempty"`
	ProductsCount int    `json:"productsCount"`
	Error         string `json:"error,omitempty"`
}
