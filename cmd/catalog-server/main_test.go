package main

import (
	"fmt"
	"testing"

	"github.com/darkkaiser/catalog-server/internal/config"
	"github.com/darkkaiser/catalog-server/internal/pkg/version"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// 테스트 종료 시점에 누수된 고루틴이 없는지 검증합니다.
	goleak.VerifyTestMain(m)
}

// TestAppMetadata 애플리케이션의 기본 메타데이터 설정이 올바른지 검증합니다.
func TestAppMetadata(t *testing.T) {
	t.Run("AppName 검증", func(t *testing.T) {
		assert.Equal(t, "catalog-server", config.AppName, "애플리케이션 이름은 'catalog-server'여야 합니다")
		assert.NotContains(t, config.AppName, " ", "애플리케이션 이름에는 공백이 포함될 수 없습니다")
	})

	t.Run("ConfigFileName 검증", func(t *testing.T) {
		assert.Equal(t, "catalog-server.json", config.DefaultFilename)
	})

	t.Run("Version 검증", func(t *testing.T) {
		// ldflags가 없는 테스트 환경에서는 값이 unknown일 수 있으므로
		// '패닉 없이 값을 가져올 수 있는지'를 중점적으로 확인합니다.
		v := version.Version()
		assert.NotEmpty(t, v, "애플리케이션 버전(Version)은 비어있을 수 없습니다")
	})
}

// TestBanner 서버 시작 시 출력되는 배너의 형식과 내용이 올바른지 검증합니다.
func TestBanner(t *testing.T) {
	t.Run("템플릿 형식 검증", func(t *testing.T) {
		assert.Contains(t, banner, "%s", "배너 템플릿에는 버전 포맷팅을 위한 '%s'가 포함되어야 합니다")
		assert.Contains(t, banner, "DarkKaiser", "배너에는 개발자/조직명이 포함되어야 합니다")
	})

	t.Run("출력 포맷팅 검증", func(t *testing.T) {
		v := version.Version()
		output := fmt.Sprintf(banner, v)
		assert.Contains(t, output, v, "최종 출력된 배너에는 실제 버전 정보가 포함되어야 합니다")
		assert.NotContains(t, output, "%s", "최종 출력된 배너에는 포맷 지정자가 남아있지 않아야 합니다")
	})
}
