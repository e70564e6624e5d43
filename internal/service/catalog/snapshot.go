package catalog

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
)

// snapshot 주기적으로 갱신되는 통계 스냅샷입니다.
//
// 통계 조회 경로(/api/stats, 봇의 관리자 명령)가 매번 상위 API를 두드리지 않도록
// 집계 결과를 메모리에 보관합니다. 갱신은 스케줄러나 최초 조회 시점에 수행됩니다.
type snapshot struct {
	mu    sync.RWMutex
	stats Stats
	valid bool
}

func newSnapshot() *snapshot {
	return &snapshot{}
}

// get 보관 중인 통계와 유효 여부를 반환합니다.
func (s *snapshot) get() (Stats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats, s.valid
}

// set 통계를 갱신합니다.
func (s *snapshot) set(stats Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = stats
	s.valid = true
}

// RefreshStats 상위 API를 조회하여 통계 스냅샷을 갱신합니다.
// 스케줄러의 주기 갱신 작업과 통계 최초 조회 시점에 호출됩니다.
func (c *Catalog) RefreshStats(ctx context.Context) error {
	totalProducts, err := c.client.countProducts(ctx, "")
	if err != nil {
		return err
	}

	upstreamCategories, err := c.client.categories(ctx)
	if err != nil {
		return err
	}

	visible := 0
	for _, uc := range upstreamCategories {
		if c.store.IsVisible(uc.ID) {
			visible++
		}
	}

	stats := Stats{
		TotalProducts:     totalProducts,
		TotalCategories:   len(upstreamCategories),
		VisibleCategories: visible,
		RefreshedAt:       time.Now().Format(time.RFC3339),
	}
	c.snapshot.set(stats)

	applog.WithComponentAndFields(component, applog.Fields{
		"total_products":     stats.TotalProducts,
		"total_categories":   stats.TotalCategories,
		"visible_categories": stats.VisibleCategories,
	}).Debug("카탈로그 통계 스냅샷 갱신 완료")

	return nil
}

// Stats 통계 스냅샷을 반환합니다. 아직 갱신된 적이 없으면 즉시 갱신을 시도합니다.
// 캐시된 이미지 수는 조회 시점의 실제 값으로 채워집니다.
func (c *Catalog) Stats(ctx context.Context) (Stats, error) {
	stats, ok := c.snapshot.get()
	if !ok {
		if err := c.RefreshStats(ctx); err != nil {
			return Stats{}, err
		}
		stats, _ = c.snapshot.get()
	}

	stats.CachedImages = c.images.len()
	return stats, nil
}

// Health 카탈로그 서비스가 요청을 처리할 수 있는 상태인지 확인합니다.
// 헬스체크 엔드포인트에서 호출되므로 상위 API를 실제로 조회하지는 않습니다.
func (c *Catalog) Health() error {
	if c.client == nil {
		return apperrors.New(apperrors.Internal, "상위 API 클라이언트가 초기화되지 않았습니다")
	}
	if c.store == nil {
		return apperrors.New(apperrors.Internal, "카테고리 설정 저장소가 초기화되지 않았습니다")
	}
	return nil
}

// TestConnection 상위 API와의 연결 상태를 진단합니다.
//
// 사용자용 읽기 경로들과 달리 이 경로만은 실패 원인을 그대로 노출합니다.
// 관리자가 토큰 만료나 권한 문제를 파악할 수 있어야 하기 때문입니다.
func (c *Catalog) TestConnection(ctx context.Context) *ConnectionStatus {
	accountID, err := c.client.accountID(ctx)
	if err != nil {
		return &ConnectionStatus{
			Success: false,
			Error:   err.Error(),
		}
	}

	productsCount, err := c.client.countProducts(ctx, "")
	if err != nil {
		return &ConnectionStatus{
			Success: false,
			Error:   err.Error(),
		}
	}

	return &ConnectionStatus{
		Success:       true,
		AccountID:     accountID,
		ProductsCount: productsCount,
	}
}
