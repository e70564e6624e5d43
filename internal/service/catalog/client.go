package catalog

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	"github.com/darkkaiser/catalog-server/internal/service/catalog/fetcher"
)

const (
	// upstreamCategoryFetchLimit 카테고리 목록 조회 시 한 번에 가져오는 최대 건수.
	// 상점의 카테고리 수는 이 값을 넘지 않는다고 가정합니다.
	upstreamCategoryFetchLimit = 100

	// upstreamProductFetchLimit 상위 API가 허용하는 상품 목록 조회의 최대 건수
	upstreamProductFetchLimit = 100
)

// upstreamCategory 상위 재고 API의 상품 폴더(productfolder) 항목입니다.
type upstreamCategory struct {
	ID          string
	Name        string
	Description string
	PathName    string
}

// upstreamProduct 상위 재고 API의 상품(product) 항목입니다.
type upstreamProduct struct {
	ID          string
	Name        string
	Description string
	Code        string

	// Price 판매 가격 단계 목록 중 값이 양수인 첫 번째 단계를 주 화폐 단위로 환산한 값
	Price float64

	CategoryID   string
	CategoryName string
}

// upstreamProductList 상품 목록 조회 결과와 상위 API가 보고한 전체 건수입니다.
type upstreamProductList struct {
	Rows  []upstreamProduct
	Total int
}

// upstreamImage 상품 이미지 메타데이터입니다.
type upstreamImage struct {
	ID           string
	Filename     string
	DownloadHref string
}

// productListQuery 상품 목록 조회 시 상위 API에 전달되는 질의 조건입니다.
type productListQuery struct {
	Limit       int
	Offset      int
	CategoryIDs []string
	Search      string
}

// Client 상위 재고 API(MoySklad 호환)와 통신하는 클라이언트입니다.
//
// 모든 요청은 요청 속도 제어와 재시도가 적용된 Fetcher 체인을 경유하며,
// 응답 본문은 gjson으로 필요한 필드만 추출합니다.
type Client struct {
	fetcher fetcher.Fetcher
	baseURL string
	header  map[string]string
}

// NewClient 새로운 상위 API 클라이언트를 생성합니다.
func NewClient(f fetcher.Fetcher, baseURL, apiToken string) *Client {
	return &Client{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		header: map[string]string{
			"Authorization": "Bearer " + apiToken,
			"Accept":        "application/json;charset=utf-8",
		},
	}
}

// Close 클라이언트가 보유한 연결 자원을 해제합니다.
func (c *Client) Close() error {
	return c.fetcher.Close()
}

// fetch 상위 API의 지정된 경로를 조회하고 응답 본문을 gjson 결과로 반환합니다.
func (c *Client) fetch(ctx context.Context, apiPath string, query url.Values) (gjson.Result, error) {
	endpoint := c.baseURL + apiPath
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	data, _, err := fetcher.FetchBytes(ctx, c.fetcher, endpoint, c.header)
	if err != nil {
		return gjson.Result{}, err
	}

	if !gjson.ValidBytes(data) {
		return gjson.Result{}, apperrors.New(apperrors.ParsingFailed,
			fmt.Sprintf("상위 API 응답이 유효한 JSON 형식이 아닙니다. (경로: %s)", apiPath))
	}

	return gjson.ParseBytes(data), nil
}

// categories 상위 API의 카테고리(상품 폴더) 목록을 조회합니다.
func (c *Client) categories(ctx context.Context) ([]upstreamCategory, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(upstreamCategoryFetchLimit))

	result, err := c.fetch(ctx, "/entity/productfolder", query)
	if err != nil {
		return nil, err
	}

	var categories []upstreamCategory
	result.Get("rows").ForEach(func(_, row gjson.Result) bool {
		categories = append(categories, upstreamCategory{
			ID:          row.Get("id").String(),
			Name:        row.Get("name").String(),
			Description: row.Get("description").String(),
			PathName:    row.Get("pathName").String(),
		})
		return true
	})

	return categories, nil
}

// products 상위 API의 상품 목록을 조회합니다.
// 카테고리 필터가 지정된 경우 세미콜론으로 연결된 단일 filter 질의로 전달됩니다.
func (c *Client) products(ctx context.Context, q productListQuery) (*upstreamProductList, error) {
	if q.Limit > upstreamProductFetchLimit {
		q.Limit = upstreamProductFetchLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(q.Limit))
	query.Set("offset", strconv.Itoa(q.Offset))
	query.Set("expand", "productFolder")
	if len(q.CategoryIDs) > 0 {
		filters := make([]string, 0, len(q.CategoryIDs))
		for _, id := range q.CategoryIDs {
			filters = append(filters, "productFolder.id="+id)
		}
		query.Set("filter", strings.Join(filters, ";"))
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}

	result, err := c.fetch(ctx, "/entity/product", query)
	if err != nil {
		return nil, err
	}

	list := &upstreamProductList{
		Total: int(result.Get("meta.size").Int()),
	}
	result.Get("rows").ForEach(func(_, row gjson.Result) bool {
		list.Rows = append(list.Rows, parseProductRow(row))
		return true
	})

	return list, nil
}

// product 단일 상품의 상세 정보를 조회합니다.
func (c *Client) product(ctx context.Context, productID string) (*upstreamProduct, error) {
	query := url.Values{}
	query.Set("expand", "productFolder")

	result, err := c.fetch(ctx, "/entity/product/"+url.PathEscape(productID), query)
	if err != nil {
		return nil, err
	}

	product := parseProductRow(result)
	return &product, nil
}

// productImages 상품에 등록된 이미지 메타데이터 목록을 조회합니다.
func (c *Client) productImages(ctx context.Context, productID string) ([]upstreamImage, error) {
	result, err := c.fetch(ctx, "/entity/product/"+url.PathEscape(productID)+"/images", nil)
	if err != nil {
		return nil, err
	}

	var images []upstreamImage
	result.Get("rows").ForEach(func(_, row gjson.Result) bool {
		images = append(images, upstreamImage{
			ID:           extractImageID(row),
			Filename:     row.Get("filename").String(),
			DownloadHref: row.Get("meta.downloadHref").String(),
		})
		return true
	})

	return images, nil
}

// downloadImage 이미지 바이너리를 다운로드하여 본문과 Content-Type을 반환합니다.
func (c *Client) downloadImage(ctx context.Context, downloadHref string) ([]byte, string, error) {
	return fetcher.FetchBytes(ctx, c.fetcher, downloadHref, c.header)
}

// countProducts 지정된 카테고리에 속한 상품의 전체 건수를 조회합니다.
// categoryID가 비어있으면 전체 상품 건수를 반환합니다.
func (c *Client) countProducts(ctx context.Context, categoryID string) (int, error) {
	query := url.Values{}
	query.Set("limit", "1")
	if categoryID != "" {
		query.Set("filter", "productFolder.id="+categoryID)
	}

	result, err := c.fetch(ctx, "/entity/product", query)
	if err != nil {
		return 0, err
	}

	return int(result.Get("meta.size").Int()), nil
}

// accountID 상위 API 계정 식별자를 조회합니다. 연결 진단 용도로만 사용됩니다.
func (c *Client) accountID(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("limit", "1")

	result, err := c.fetch(ctx, "/entity/organization", query)
	if err != nil {
		return "", err
	}

	accountID := result.Get("rows.0.accountId").String()
	if accountID == "" {
		return "", apperrors.New(apperrors.ParsingFailed, "상위 API 응답에서 계정 식별자를 찾을 수 없습니다")
	}

	return accountID, nil
}

// parseProductRow 상위 API의 상품 객체에서 필요한 필드를 추출합니다.
func parseProductRow(row gjson.Result) upstreamProduct {
	product := upstreamProduct{
		ID:          row.Get("id").String(),
		Name:        row.Get("name").String(),
		Description: row.Get("description").String(),
		Code:        row.Get("code").String(),
		Price:       firstPositiveSalePrice(row.Get("salePrices")),
	}

	// 카테고리는 expand 여부에 따라 id가 직접 내려오거나 meta.href에만 담겨있을 수 있음
	if folder := row.Get("productFolder"); folder.Exists() {
		product.CategoryID = folder.Get("id").String()
		if product.CategoryID == "" {
			product.CategoryID = lastHrefSegment(folder.Get("meta.href").String())
		}
		product.CategoryName = folder.Get("name").String()
	}

	return product
}

// firstPositiveSalePrice 판매 가격 단계 목록에서 값이 양수인 첫 번째 단계를 찾아
// 주 화폐 단위로 환산합니다. 양수 단계가 없으면 0을 반환합니다.
func firstPositiveSalePrice(salePrices gjson.Result) float64 {
	var price float64
	salePrices.ForEach(func(_, tier gjson.Result) bool {
		if value := tier.Get("value").Float(); value > 0 {
			price = value / 100
			return false
		}
		return true
	})
	return price
}

// extractImageID 이미지 객체에서 안정적인 식별자를 도출합니다.
//
// 우선순위: 명시적 id 필드 -> meta.href 경로의 마지막 조각 -> 확장자를 제외한
// 파일명 -> "unknown"
func extractImageID(row gjson.Result) string {
	if id := row.Get("id").String(); id != "" {
		return id
	}
	if tail := lastHrefSegment(row.Get("meta.href").String()); tail != "" {
		return tail
	}
	if filename := row.Get("filename").String(); filename != "" {
		return strings.TrimSuffix(filename, path.Ext(filename))
	}
	return unknownImageID
}

// lastHrefSegment URL 경로의 마지막 조각을 반환합니다.
func lastHrefSegment(href string) string {
	if href == "" {
		return ""
	}

	trimmed := strings.TrimRight(href, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
