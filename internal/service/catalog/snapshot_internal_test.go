package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/catalog-server/internal/config"
)

func TestStats_RefreshAndCache(t *testing.T) {
	upstream := newFakeUpstream()
	seedFixtureProducts(upstream, 45, threeFixtureCategories())
	c := newTestCatalog(t, upstream, config.CatalogConfig{})
	require.NoError(t, c.store.SetVisible("c3", false))

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 45, stats.TotalProducts)
	assert.Equal(t, 3, stats.TotalCategories)
	assert.Equal(t, 2, stats.VisibleCategories)
	assert.Equal(t, 0, stats.CachedImages)
	assert.NotEmpty(t, stats.RefreshedAt)

	// 두 번째 조회는 스냅샷에서 처리되어 상위 API를 호출하지 않아야 함
	requests := upstream.requestCount()
	_, err = c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, requests, upstream.requestCount())
}

func TestRefreshStats_UpdatesSnapshot(t *testing.T) {
	upstream := newFakeUpstream()
	seedFixtureProducts(upstream, 9, threeFixtureCategories())
	c := newTestCatalog(t, upstream, config.CatalogConfig{})

	require.NoError(t, c.RefreshStats(context.Background()))

	// 갱신 이후 상품이 추가되어도 다음 갱신 전까지는 이전 스냅샷이 유지됨
	upstream.mu.Lock()
	upstream.products = append(upstream.products, fixtureProduct{ID: "p999", Name: "신규 상품", CategoryID: "c1"})
	upstream.mu.Unlock()

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, stats.TotalProducts)

	require.NoError(t, c.RefreshStats(context.Background()))
	stats, err = c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalProducts)
}

func TestRefreshStats_UpstreamError(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.failWith = 500
	c := newTestCatalog(t, upstream, config.CatalogConfig{})

	err := c.RefreshStats(context.Background())

	require.Error(t, err)
}

func TestTestConnection_Success(t *testing.T) {
	upstream := newFakeUpstream()
	seedFixtureProducts(upstream, 45, threeFixtureCategories())
	c := newTestCatalog(t, upstream, config.CatalogConfig{})

	status := c.TestConnection(context.Background())

	assert.True(t, status.Success)
	assert.Equal(t, "account-123", status.AccountID)
	assert.Equal(t, 45, status.ProductsCount)
	assert.Empty(t, status.Error)
}

func TestTestConnection_Failure(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.failWith = 401
	c := newTestCatalog(t, upstream, config.CatalogConfig{})

	status := c.TestConnection(context.Background())

	assert.False(t, status.Success)
	assert.Empty(t, status.AccountID)
	assert.NotEmpty(t, status.Error)
}
