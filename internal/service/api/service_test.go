package api

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/catalog-server/internal/config"
	"github.com/darkkaiser/catalog-server/internal/pkg/version"
	"github.com/darkkaiser/catalog-server/internal/service/catalog"
	"github.com/darkkaiser/catalog-server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppConfig(t *testing.T) *config.AppConfig {
	t.Helper()

	appConfig := &config.AppConfig{}
	appConfig.Upstream.BaseURL = "http://127.0.0.1:1"
	appConfig.Upstream.APIToken = "test-token"
	appConfig.Catalog.SettingsFile = filepath.Join(t.TempDir(), "category-settings.json")
	appConfig.Catalog.ImageCacheCapacity = 100
	appConfig.Catalog.FilterBatchSize = 8
	appConfig.API.CORS.AllowOrigins = []string{"*"}
	// 포트 0을 지정하면 OS가 임의의 빈 포트를 할당하므로 테스트 간 충돌이 없습니다.
	appConfig.API.WS.ListenPort = 0

	return appConfig
}

func newTestCatalog(t *testing.T, appConfig *config.AppConfig) *catalog.Catalog {
	t.Helper()

	catalogService, err := catalog.New(appConfig)
	require.NoError(t, err)
	t.Cleanup(func() {
		catalogService.Close()
	})

	return catalogService
}

func TestNewService_NilDependenciesPanic(t *testing.T) {
	appConfig := newTestAppConfig(t)
	catalogService := newTestCatalog(t, appConfig)

	assert.Panics(t, func() {
		NewService(nil, catalogService, version.Info{})
	})
	assert.Panics(t, func() {
		NewService(appConfig, nil, version.Info{})
	})
}

func TestService_StartAndShutdown(t *testing.T) {
	appConfig := newTestAppConfig(t)
	catalogService := newTestCatalog(t, appConfig)

	service := NewService(appConfig, catalogService, version.Info{})

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	wg.Add(1)
	require.NoError(t, service.Start(ctx, wg))

	// 서버가 기동될 시간을 잠시 허용
	time.Sleep(100 * time.Millisecond)

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("서비스가 제한 시간 내에 종료되지 않았습니다")
	}
}

func TestService_StartTLSAndShutdown(t *testing.T) {
	appConfig := newTestAppConfig(t)

	port, err := testutil.GetFreePort()
	require.NoError(t, err)

	certFile, keyFile, cleanup := testutil.GenerateSelfSignedCert(t)
	t.Cleanup(cleanup)

	appConfig.API.WS.ListenPort = port
	appConfig.API.WS.TLSServer = true
	appConfig.API.WS.TLSCertFile = certFile
	appConfig.API.WS.TLSKeyFile = keyFile

	catalogService := newTestCatalog(t, appConfig)
	service := NewService(appConfig, catalogService, version.Info{})

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	wg.Add(1)
	require.NoError(t, service.Start(ctx, wg))

	require.NoError(t, testutil.WaitForServer(port, 5*time.Second))

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("서비스가 제한 시간 내에 종료되지 않았습니다")
	}
}

func TestService_DuplicateStart(t *testing.T) {
	appConfig := newTestAppConfig(t)
	catalogService := newTestCatalog(t, appConfig)

	service := NewService(appConfig, catalogService, version.Info{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := &sync.WaitGroup{}

	wg.Add(1)
	require.NoError(t, service.Start(ctx, wg))

	// 두 번째 Start는 경고만 남기고 즉시 반환되어야 함
	wg.Add(1)
	require.NoError(t, service.Start(ctx, wg))

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("서비스가 제한 시간 내에 종료되지 않았습니다")
	}
}
