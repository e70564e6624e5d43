package fetcher

import (
	"time"
)

// Config Fetcher 체인을 구성하기 위한 설정 옵션을 정의하는 구조체입니다.
// 각 필드의 0 값은 해당 미들웨어의 기본값으로 보정됩니다.
type Config struct {
	// Timeout HTTP 요청 전체에 대한 타임아웃입니다. (기본값: 30초)
	Timeout time.Duration

	// MinRequestInterval 연속된 두 요청 사이에 보장할 최소 간격입니다. (기본값: 500ms)
	MinRequestInterval time.Duration

	// WindowLimit 고정 윈도우 내에 허용할 최대 요청 수입니다. (기본값: 20)
	WindowLimit int

	// WindowDuration 요청 수를 집계하는 고정 윈도우의 길이입니다. (기본값: 3초)
	WindowDuration time.Duration

	// MaxRetries 네트워크 오류/5xx에 대한 최대 재시도 횟수입니다. (허용 범위: 0~10)
	MaxRetries int

	// RetryDelay 재시도 지수 백오프의 시작 대기 시간입니다. (1초 이상으로 보정됨)
	RetryDelay time.Duration

	// MaxRetryDelay 재시도 대기 시간의 상한입니다. (기본값: 30초)
	MaxRetryDelay time.Duration

	// RateLimitCeiling 429 응답의 누적 허용 한도입니다. (기본값: 200)
	RateLimitCeiling int

	// AllowedStatusCodes 허용할 HTTP 응답 상태 코드 목록입니다.
	// nil/빈 슬라이스인 경우 200 OK만 허용합니다.
	AllowedStatusCodes []int

	// MaxBodyBytes 응답 본문의 최대 허용 바이트 수입니다.
	// 0이면 기본값(10MB)으로 보정되며, NoBodyLimit이면 제한하지 않습니다.
	MaxBodyBytes int64

	// DisableLogging HTTP 요청/응답 로깅 사용 여부를 제어합니다.
	DisableLogging bool
}

// NewChain 설정에 따라 전체 Fetcher 미들웨어 체인을 구성합니다.
//
// 체인 구조 (바깥쪽부터):
//
//	Logging → Retry → Throttle → StatusCode → MaxBytes → HTTP
//
// 요청은 바깥쪽에서 안쪽으로 전달되므로, 재시도되는 각 시도는 항상 Throttle의
// 요청 속도 제한을 다시 통과합니다. 상위 재고 API에 대한 모든 호출은
// 이 함수로 생성된 단일 체인을 공유해야 합니다.
func NewChain(cfg Config) Fetcher {
	var f Fetcher = NewHTTPFetcher(cfg.Timeout)

	f = NewMaxBytesFetcher(f, cfg.MaxBodyBytes)

	if len(cfg.AllowedStatusCodes) > 0 {
		f = NewStatusCodeFetcherWithOptions(f, cfg.AllowedStatusCodes...)
	} else {
		f = NewStatusCodeFetcher(f)
	}

	f = NewThrottleFetcher(f, cfg.MinRequestInterval, cfg.WindowLimit, cfg.WindowDuration)
	f = NewRetryFetcher(f, cfg.MaxRetries, cfg.RetryDelay, cfg.MaxRetryDelay, cfg.RateLimitCeiling)

	if !cfg.DisableLogging {
		f = NewLoggingFetcher(f)
	}

	return f
}
