// Package catalog 상위 재고 API의 상품/카테고리 정보를 조회하여
// 클라이언트에 노출되는 카탈로그 형태로 가공하는 핵심 도메인 패키지입니다.
//
// 모든 상위 API 호출은 요청 속도 제어와 재시도가 적용된 Fetcher 체인을 경유하며,
// 사용자용 읽기 경로(상품/카테고리)는 상위 API 장애 시 빈 결과나 대체 결과로
// 조용히 성능을 저하시켜 클라이언트 화면이 깨지지 않도록 동작합니다.
package catalog

import (
	"github.com/darkkaiser/catalog-server/internal/config"
	"github.com/darkkaiser/catalog-server/internal/service/catalog/fetcher"
	"github.com/darkkaiser/catalog-server/internal/service/catalog/settings"
)

// component Catalog 서비스의 로깅용 컴포넌트 이름
const component = "catalog"

const (
	// defaultPageLimit 상품 목록 조회 시 limit이 지정되지 않았을 때 사용되는 기본 페이지 크기
	defaultPageLimit = 20

	// maxPageLimit 한 페이지에 허용되는 최대 상품 수
	maxPageLimit = 100

	// approxCountThreshold 카테고리 수가 이 값을 초과하면 카테고리별 상품 수 집계를
	// 생략하고 근사치 마커("~")를 사용합니다. 카테고리당 한 건씩 발생하는 집계 질의가
	// 상위 API의 요청 한도를 위협하는 것을 방지하기 위한 상한입니다.
	approxCountThreshold = 20
)

// Catalog 카탈로그 조회 기능 전체를 제공하는 최상위 객체입니다.
//
// 상위 API 클라이언트, 카테고리 노출 설정 저장소, 이미지 캐시, 통계 스냅샷을
// 하나로 묶어 REST API/텔레그램 봇/스케줄러 서비스에 단일 진입점을 제공합니다.
type Catalog struct {
	client *Client
	store  *settings.Store
	images *imageCache

	// filterBatchSize 카테고리 필터 질의 시 한 요청에 담는 카테고리 수.
	// 상위 API의 filter 질의 문자열 길이 제한을 넘지 않도록 분할합니다.
	filterBatchSize int

	// includeUncategorized 카테고리 미지정 상품을 노출 목록에 포함할지 여부
	includeUncategorized bool

	snapshot *snapshot
}

// New 애플리케이션 설정을 기반으로 Catalog 객체를 생성합니다.
func New(appConfig *config.AppConfig) (*Catalog, error) {
	chain := fetcher.NewChain(fetcher.Config{
		Timeout:            appConfig.Upstream.TimeoutDuration(),
		MinRequestInterval: appConfig.Upstream.MinRequestIntervalDuration(),
		WindowLimit:        appConfig.Upstream.WindowLimit,
		WindowDuration:     appConfig.Upstream.WindowDurationDuration(),
		MaxRetries:         appConfig.Upstream.MaxRetries,
		RetryDelay:         appConfig.Upstream.RetryDelayDuration(),
		RateLimitCeiling:   appConfig.Upstream.RateLimitCeiling,
	})

	client := NewClient(chain, appConfig.Upstream.BaseURL, appConfig.Upstream.APIToken)

	store, err := settings.NewStore(appConfig.Catalog.SettingsFile)
	if err != nil {
		client.Close()
		return nil, err
	}

	return newCatalog(client, store, appConfig.Catalog), nil
}

// newCatalog 의존성이 조립된 Catalog 객체를 생성합니다. 테스트에서 직접 사용됩니다.
func newCatalog(client *Client, store *settings.Store, catalogConfig config.CatalogConfig) *Catalog {
	return &Catalog{
		client:               client,
		store:                store,
		images:               newImageCache(catalogConfig.ImageCacheCapacity),
		filterBatchSize:      catalogConfig.FilterBatchSize,
		includeUncategorized: catalogConfig.IncludeUncategorized,
		snapshot:             newSnapshot(),
	}
}

// Settings 카테고리 노출 설정 저장소를 반환합니다.
// 설정의 읽기/쓰기 실패는 읽기 경로와 달리 호출자에게 그대로 전파됩니다.
func (c *Catalog) Settings() *settings.Store {
	return c.store
}

// Close Catalog이 보유한 연결 자원을 해제합니다.
func (c *Catalog) Close() error {
	return c.client.Close()
}
