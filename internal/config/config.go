// Package config 애플리케이션의 설정 로드와 유효성 검증을 담당합니다.
//
// 설정은 다음 우선순위로 병합됩니다. (뒤로 갈수록 우선)
//
//  1. 기본값 (defaultConfig)
//  2. JSON 설정 파일
//  3. 환경 변수 (접두사: CATALOG_, 이중 언더스코어(__)로 계층 표현)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	"github.com/darkkaiser/catalog-server/pkg/cronx"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "catalog-server"

	// DefaultFilename 애플리케이션 초기화 시 참조하는 기본 설정 파일명입니다.
	// 실행 인자를 통해 명시적인 경로가 제공되지 않을 경우, 시스템은 이 파일을 탐색하여 구성을 로드합니다.
	DefaultFilename = AppName + ".json"
)

// AppConfig 애플리케이션의 모든 설정을 관장하는 최상위 루트 구조체
type AppConfig struct {
	Debug    bool           `json:"debug"`
	Upstream UpstreamConfig `json:"upstream"`
	Catalog  CatalogConfig  `json:"catalog"`
	Telegram TelegramConfig `json:"telegram"`
	API      APIConfig      `json:"api"`
}

// defaultConfig 설정 파일이나 환경 변수로 재정의되기 전의 기본값입니다.
func defaultConfig() AppConfig {
	return AppConfig{
		Upstream: UpstreamConfig{
			BaseURL:            "https://api.moysklad.ru/api/remap/1.2",
			Timeout:            "30s",
			MinRequestInterval: "500ms",
			WindowLimit:        20,
			WindowDuration:     "3s",
			MaxRetries:         3,
			RetryDelay:         "2s",
			RateLimitCeiling:   200,
		},
		Catalog: CatalogConfig{
			SettingsFile:         filepath.Join("data", "category-settings.json"),
			ImageCacheCapacity:   100,
			FilterBatchSize:      8,
			IncludeUncategorized: true,
			Refresh: RefreshConfig{
				Runnable: false,
				TimeSpec: "0 0 */6 * * *",
			},
		},
		API: APIConfig{
			WS: WSConfig{
				ListenPort: 3000,
			},
			CORS: CORSConfig{
				AllowOrigins: []string{"*"},
			},
		},
	}
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate() error {
	if err := c.Upstream.validate(); err != nil {
		return err
	}
	if err := c.Catalog.validate(); err != nil {
		return err
	}
	if err := c.Telegram.validate(); err != nil {
		return err
	}
	if err := c.API.validate(); err != nil {
		return err
	}
	return nil
}

// VerifyRecommendations 서비스 운영의 안정성과 보안을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	warnings = append(warnings, c.API.WS.VerifyRecommendations()...)

	// 와일드카드 CORS는 개발 환경에서만 권장됨
	for _, origin := range c.API.CORS.AllowOrigins {
		if origin == "*" {
			warnings = append(warnings, "CORS 허용 도메인이 와일드카드(*)로 설정되어 있습니다. 운영 환경에서는 Mini App 도메인만 허용하도록 제한하세요")
		}
	}

	if !c.Telegram.Enabled {
		warnings = append(warnings, "텔레그램 봇이 비활성화되어 있습니다. API 서버만 구동됩니다")
	}

	return warnings
}

// UpstreamConfig 외부 재고 API(MoySklad) 접속 및 요청 속도 정책을 정의하는 설정 구조체
type UpstreamConfig struct {
	BaseURL  string `json:"base_url" validate:"required,url"`
	APIToken string `json:"api_token" validate:"required"`

	// Timeout 개별 HTTP 요청의 최대 허용 시간
	Timeout string `json:"timeout"`

	// MinRequestInterval 연속된 요청 사이에 보장해야 하는 최소 간격
	MinRequestInterval string `json:"min_request_interval"`

	// WindowLimit / WindowDuration 고정 윈도우 내 허용 요청 수 (예: 3초에 20건)
	WindowLimit    int    `json:"window_limit" validate:"min=1"`
	WindowDuration string `json:"window_duration"`

	// MaxRetries 일시적 오류(5xx, 네트워크 등)에 대한 최대 재시도 횟수
	MaxRetries int `json:"max_retries" validate:"min=0,max=10"`

	// RetryDelay 재시도 사이의 기본 대기 시간
	RetryDelay string `json:"retry_delay"`

	// RateLimitCeiling 요청 한도 초과(429) 응답의 누적 허용치.
	// 이 값을 넘어서면 더 이상의 재시도를 포기하고 치명적 오류로 처리합니다.
	RateLimitCeiling int `json:"rate_limit_ceiling" validate:"min=1"`
}

func (c *UpstreamConfig) validate() error {
	if err := checkStruct(validate, c, "외부 API(upstream)"); err != nil {
		return err
	}

	for _, d := range []struct {
		name  string
		value string
	}{
		{"timeout", c.Timeout},
		{"min_request_interval", c.MinRequestInterval},
		{"window_duration", c.WindowDuration},
		{"retry_delay", c.RetryDelay},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput,
				fmt.Sprintf("외부 API(upstream)의 %s 설정이 올바르지 않습니다: '%s' (예: 1s, 500ms)", d.name, d.value))
		}
	}

	return nil
}

// TimeoutDuration 파싱된 요청 타임아웃을 반환합니다.
func (c *UpstreamConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MinRequestIntervalDuration 파싱된 최소 요청 간격을 반환합니다.
func (c *UpstreamConfig) MinRequestIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.MinRequestInterval)
	return d
}

// WindowDurationDuration 파싱된 고정 윈도우 길이를 반환합니다.
func (c *UpstreamConfig) WindowDurationDuration() time.Duration {
	d, _ := time.ParseDuration(c.WindowDuration)
	return d
}

// RetryDelayDuration 파싱된 재시도 대기 시간을 반환합니다.
func (c *UpstreamConfig) RetryDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryDelay)
	return d
}

// CatalogConfig 카탈로그 조회 동작(설정 저장소, 이미지 캐시, 배치 크기 등)을 정의하는 설정 구조체
type CatalogConfig struct {
	// SettingsFile 카테고리 노출 설정이 저장되는 JSON 파일 경로
	SettingsFile string `json:"settings_file" validate:"required"`

	// ImageCacheCapacity 메모리 이미지 캐시의 최대 항목 수
	ImageCacheCapacity int `json:"image_cache_capacity" validate:"min=1"`

	// FilterBatchSize 카테고리 필터 질의 시 한 요청에 담을 카테고리 수
	FilterBatchSize int `json:"filter_batch_size" validate:"min=1,max=10"`

	// IncludeUncategorized 카테고리 미지정 상품을 노출 목록에 포함할지 여부
	IncludeUncategorized bool `json:"include_uncategorized"`

	// Refresh 카탈로그 스냅샷 주기 갱신 스케줄
	Refresh RefreshConfig `json:"refresh"`
}

// RefreshConfig 카탈로그 스냅샷 갱신 스케줄러 설정
type RefreshConfig struct {
	Runnable bool   `json:"runnable"`
	TimeSpec string `json:"time_spec"`
}

func (c *CatalogConfig) validate() error {
	if err := checkStruct(validate, c, "카탈로그(catalog)"); err != nil {
		return err
	}

	if c.Refresh.Runnable {
		if err := cronx.Validate(c.Refresh.TimeSpec); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput,
				fmt.Sprintf("카탈로그 갱신 스케줄(time_spec) 설정이 유효하지 않습니다: '%s'", c.Refresh.TimeSpec))
		}
	}

	return nil
}

// TelegramConfig 텔레그램 봇 토큰 및 Mini App 연동 정보를 담는 설정 구조체
type TelegramConfig struct {
	Enabled bool `json:"enabled"`

	BotToken string `json:"bot_token" validate:"required_if=Enabled true,omitempty,telegram_bot_token"`

	// WebAppURL Mini App(웹앱)이 호스팅되는 기본 URL
	WebAppURL string `json:"webapp_url" validate:"required_if=Enabled true,omitempty,url"`

	// AdminChatIDs 관리자 명령(/admin)을 허용할 채팅 ID 목록
	AdminChatIDs []int64 `json:"admin_chat_ids" validate:"unique"`
}

func (c *TelegramConfig) validate() error {
	return checkStruct(validate, c, "텔레그램(telegram)")
}

// IsAdmin 주어진 채팅 ID가 관리자 목록에 포함되어 있는지 확인합니다.
func (c *TelegramConfig) IsAdmin(chatID int64) bool {
	for _, id := range c.AdminChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// APIConfig 카탈로그 REST API 서버 및 CORS 설정 구조체
type APIConfig struct {
	WS   WSConfig   `json:"ws"`
	CORS CORSConfig `json:"cors"`
}

func (c *APIConfig) validate() error {
	if err := c.WS.validate(); err != nil {
		return err
	}
	return c.CORS.validate()
}

// WSConfig 웹 서버의 포트 및 TLS(HTTPS) 보안 설정을 정의하는 구조체
type WSConfig struct {
	TLSServer   bool   `json:"tls_server"`
	TLSCertFile string `json:"tls_cert_file" validate:"required_if=TLSServer true,omitempty,file"`
	TLSKeyFile  string `json:"tls_key_file" validate:"required_if=TLSServer true,omitempty,file"`
	ListenPort  int    `json:"listen_port" validate:"min=1,max=65535"`
}

func (c *WSConfig) validate() error {
	return checkStruct(validate, c, "웹 서버(ws)")
}

// VerifyRecommendations 웹 서버 설정의 권장 사항 준수 여부를 진단합니다.
func (c *WSConfig) VerifyRecommendations() []string {
	var warnings []string

	// 시스템 예약 포트(1024 미만) 사용 경고
	if c.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.ListenPort))
	}

	return warnings
}

// CORSConfig 웹 브라우저의 교차 출처 리소스 공유(CORS) 정책을 설정하는 구조체
type CORSConfig struct {
	AllowOrigins []string `json:"allow_origins" validate:"dive,cors_origin"`
}

func (c *CORSConfig) validate() error {
	if len(c.AllowOrigins) == 0 {
		return apperrors.New(apperrors.InvalidInput, "CORS 허용 도메인(allow_origins) 목록이 비어있습니다")
	}

	for _, origin := range c.AllowOrigins {
		if origin == "*" && len(c.AllowOrigins) > 1 {
			return apperrors.New(apperrors.InvalidInput, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
		}
	}

	return checkStruct(validate, c, "CORS")
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	if err := k.Load(structs.Provider(defaultConfig(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일 로드 (기본값 덮어쓰기)
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 3. 환경 변수 로드 (최우선 순위, JSON 설정 덮어쓰기)
	// 접두사: CATALOG_
	// 구분자: 이중 언더스코어(__)를 점(.)으로 변환 (계층 구조 표현)
	// 예: CATALOG_UPSTREAM__API_TOKEN -> upstream.api_token
	if err := k.Load(env.Provider("CATALOG_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "CATALOG_")
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 4. 구조체 언마샬링 (Strict Validation 적용)
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true, // 파일에 존재하지만 구조체에 없는 필드가 있을 경우 에러를 발생시킴
			WeaklyTypedInput: true,
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 5. 유효성 검사 수행 (정합성 체크)
	if err := appConfig.validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}
