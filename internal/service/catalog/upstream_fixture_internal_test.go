package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/catalog-server/internal/config"
	"github.com/darkkaiser/catalog-server/internal/service/catalog/fetcher"
	"github.com/darkkaiser/catalog-server/internal/service/catalog/settings"
)

// fixtureCategory 가짜 상위 API가 제공하는 카테고리입니다.
type fixtureCategory struct {
	ID       string
	Name     string
	PathName string
}

// fixtureProduct 가짜 상위 API가 제공하는 상품입니다.
type fixtureProduct struct {
	ID         string
	Name       string
	Code       string
	SalePrices []int64
	CategoryID string
}

// fixtureImage 가짜 상위 API가 제공하는 상품 이미지 메타데이터입니다.
type fixtureImage struct {
	ID       string
	Filename string
	// OmitID true면 응답에서 id 필드를 생략하여 meta.href 기반 식별자 도출을 유도합니다.
	OmitID bool
	// OmitDownload true면 meta.downloadHref를 생략합니다.
	OmitDownload bool
}

// fakeUpstream MoySklad 호환 상위 API를 흉내내는 테스트 서버 핸들러입니다.
type fakeUpstream struct {
	mu         sync.Mutex
	categories []fixtureCategory
	products   []fixtureProduct
	images     map[string][]fixtureImage

	// forbidden true면 모든 요청에 403을 반환합니다.
	forbidden bool
	// failWith 0이 아니면 모든 요청에 해당 상태 코드를 반환합니다.
	failWith int

	requests []string
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		images: make(map[string][]fixtureImage),
	}
}

// requestCount 지금까지 수신한 요청 수를 반환합니다.
func (u *fakeUpstream) requestCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

// requestURLs 수신한 요청 URL(경로+질의) 목록의 복사본을 반환합니다.
func (u *fakeUpstream) requestURLs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.requests...)
}

func (u *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.requests = append(u.requests, r.URL.String())
	forbidden, failWith := u.forbidden, u.failWith
	u.mu.Unlock()

	if forbidden {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if failWith != 0 {
		w.WriteHeader(failWith)
		return
	}

	path := r.URL.Path
	switch {
	case path == "/entity/productfolder":
		u.serveCategories(w)
	case path == "/entity/product":
		u.serveProducts(w, r)
	case path == "/entity/organization":
		u.serveOrganization(w)
	case strings.HasPrefix(path, "/entity/product/") && strings.HasSuffix(path, "/images"):
		productID := strings.TrimSuffix(strings.TrimPrefix(path, "/entity/product/"), "/images")
		u.serveImages(w, r, productID)
	case strings.HasPrefix(path, "/entity/product/"):
		u.serveProduct(w, strings.TrimPrefix(path, "/entity/product/"))
	case strings.HasPrefix(path, "/download/"):
		u.serveImageBinary(w, strings.TrimPrefix(path, "/download/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (u *fakeUpstream) serveCategories(w http.ResponseWriter) {
	rows := make([]map[string]any, 0, len(u.categories))
	for _, c := range u.categories {
		rows = append(rows, map[string]any{
			"id":       c.ID,
			"name":     c.Name,
			"pathName": c.PathName,
		})
	}
	writeJSON(w, map[string]any{
		"meta": map[string]any{"size": len(u.categories)},
		"rows": rows,
	})
}

func (u *fakeUpstream) serveProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	matched := u.filterProducts(query.Get("filter"), query.Get("search"))

	offset, _ := strconv.Atoi(query.Get("offset"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = len(matched)
	}

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	rows := make([]map[string]any, 0, end-offset)
	for _, p := range matched[offset:end] {
		rows = append(rows, u.productRow(p))
	}

	writeJSON(w, map[string]any{
		"meta": map[string]any{"size": total},
		"rows": rows,
	})
}

// filterProducts filter/search 질의를 적용한 상품 목록을 반환합니다.
// filter 형식: "productFolder.id={id}[;productFolder.id={id}...]"
func (u *fakeUpstream) filterProducts(filter, search string) []fixtureProduct {
	allowed := map[string]bool{}
	if filter != "" {
		for _, clause := range strings.Split(filter, ";") {
			if id, ok := strings.CutPrefix(clause, "productFolder.id="); ok {
				allowed[id] = true
			}
		}
	}

	var matched []fixtureProduct
	for _, p := range u.products {
		if len(allowed) > 0 && !allowed[p.CategoryID] {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

func (u *fakeUpstream) serveProduct(w http.ResponseWriter, productID string) {
	for _, p := range u.products {
		if p.ID == productID {
			writeJSON(w, u.productRow(p))
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (u *fakeUpstream) productRow(p fixtureProduct) map[string]any {
	salePrices := make([]map[string]any, 0, len(p.SalePrices))
	for _, value := range p.SalePrices {
		salePrices = append(salePrices, map[string]any{"value": value})
	}

	row := map[string]any{
		"id":         p.ID,
		"name":       p.Name,
		"code":       p.Code,
		"salePrices": salePrices,
	}
	if p.CategoryID != "" {
		row["productFolder"] = map[string]any{
			"id":   p.CategoryID,
			"name": u.categoryName(p.CategoryID),
		}
	}
	return row
}

func (u *fakeUpstream) categoryName(categoryID string) string {
	for _, c := range u.categories {
		if c.ID == categoryID {
			return c.Name
		}
	}
	return ""
}

func (u *fakeUpstream) serveImages(w http.ResponseWriter, r *http.Request, productID string) {
	images := u.images[productID]

	rows := make([]map[string]any, 0, len(images))
	for _, image := range images {
		meta := map[string]any{
			"href": "https://upstream.example/entity/image/" + image.ID,
		}
		if !image.OmitDownload {
			// 다운로드 참조는 실제 상위 API처럼 절대 URL로 내려줌
			meta["downloadHref"] = "http://" + r.Host + "/download/" + image.ID
		}

		row := map[string]any{
			"filename": image.Filename,
			"meta":     meta,
		}
		if !image.OmitID {
			row["id"] = image.ID
		}
		rows = append(rows, row)
	}

	writeJSON(w, map[string]any{
		"meta": map[string]any{"size": len(images)},
		"rows": rows,
	})
}

func (u *fakeUpstream) serveImageBinary(w http.ResponseWriter, imageID string) {
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write([]byte("jpeg-bytes-" + imageID))
}

func (u *fakeUpstream) serveOrganization(w http.ResponseWriter) {
	writeJSON(w, map[string]any{
		"rows": []map[string]any{
			{"id": "org-1", "accountId": "account-123"},
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

// newTestCatalog 가짜 상위 API에 연결된 Catalog을 생성합니다.
// 요청 속도 제어는 테스트가 즉시 수행되도록 최소 수준으로 낮춥니다.
func newTestCatalog(t *testing.T, upstream *fakeUpstream, catalogConfig config.CatalogConfig) *Catalog {
	t.Helper()

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	chain := fetcher.NewChain(fetcher.Config{
		MinRequestInterval: time.Millisecond,
		WindowLimit:        10000,
		WindowDuration:     time.Millisecond,
		DisableLogging:     true,
	})

	client := NewClient(chain, server.URL, "test-token")
	t.Cleanup(func() { _ = client.Close() })

	store, err := settings.NewStore(filepath.Join(t.TempDir(), "category-settings.json"))
	require.NoError(t, err)

	if catalogConfig.ImageCacheCapacity == 0 {
		catalogConfig.ImageCacheCapacity = 100
	}
	if catalogConfig.FilterBatchSize == 0 {
		catalogConfig.FilterBatchSize = 8
	}

	return newCatalog(client, store, catalogConfig)
}

// seedFixtureProducts 카테고리별로 고르게 분배된 상품 n개를 가짜 상위 API에 채웁니다.
func seedFixtureProducts(u *fakeUpstream, n int, categories []fixtureCategory) {
	u.categories = categories
	for i := 0; i < n; i++ {
		categoryID := ""
		if len(categories) > 0 {
			categoryID = categories[i%len(categories)].ID
		}
		u.products = append(u.products, fixtureProduct{
			ID:         fmt.Sprintf("p%03d", i+1),
			Name:       fmt.Sprintf("상품 %03d", i+1),
			Code:       fmt.Sprintf("CODE-%03d", i+1),
			SalePrices: []int64{int64((i + 1) * 10000)},
			CategoryID: categoryID,
		})
	}
}
