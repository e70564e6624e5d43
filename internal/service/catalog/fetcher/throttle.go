package fetcher

import (
	"net/http"
	"sync"
	"time"
)

const (
	// defaultMinRequestInterval 연속된 두 요청 사이에 보장할 기본 최소 간격입니다.
	defaultMinRequestInterval = 500 * time.Millisecond

	// defaultWindowLimit 고정 윈도우 내에 허용할 기본 최대 요청 수입니다.
	defaultWindowLimit = 20

	// defaultWindowDuration 요청 수를 집계하는 고정 윈도우의 기본 길이입니다.
	defaultWindowDuration = 3 * time.Second
)

// ThrottleFetcher 상위 API의 요청 속도 정책을 선제적으로 준수하는 미들웨어입니다.
//
// 두 가지 제한을 동시에 적용합니다:
//  1. 최소 요청 간격: 연속된 두 요청 사이에 minInterval 이상의 간격을 보장합니다.
//  2. 고정 윈도우 제한: windowDuration 동안 windowLimit개를 초과하는 요청은
//     윈도우가 초기화될 때까지 대기시킵니다.
//
// 사후 대응(429 재시도)만으로는 한도 초과 누적을 피할 수 없으므로,
// 요청을 보내기 전에 스스로 속도를 줄이는 사전 제어 계층입니다.
// 대기 중 요청의 컨텍스트가 취소되면 즉시 중단하고 컨텍스트 에러를 반환합니다.
//
// 여러 고루틴에서 동시에 호출해도 안전하며, 카운터는 인스턴스별로 관리됩니다.
type ThrottleFetcher struct {
	delegate Fetcher

	minInterval    time.Duration
	windowLimit    int
	windowDuration time.Duration

	mu          sync.Mutex
	lastRequest time.Time // 마지막 요청이 통과한 시각
	windowStart time.Time // 현재 윈도우의 시작 시각
	windowCount int       // 현재 윈도우에서 통과한 요청 수

	// now 테스트에서 시간 흐름을 제어하기 위한 주입 지점입니다.
	now func() time.Time
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*ThrottleFetcher)(nil)

// NewThrottleFetcher 새로운 ThrottleFetcher 인스턴스를 생성합니다.
// 0 이하의 설정값은 기본값으로 보정됩니다.
func NewThrottleFetcher(delegate Fetcher, minInterval time.Duration, windowLimit int, windowDuration time.Duration) *ThrottleFetcher {
	if minInterval <= 0 {
		minInterval = defaultMinRequestInterval
	}
	if windowLimit <= 0 {
		windowLimit = defaultWindowLimit
	}
	if windowDuration <= 0 {
		windowDuration = defaultWindowDuration
	}

	return &ThrottleFetcher{
		delegate: delegate,

		minInterval:    minInterval,
		windowLimit:    windowLimit,
		windowDuration: windowDuration,

		now: time.Now,
	}
}

// Do 요청 속도 제한을 통과할 때까지 대기한 후 HTTP 요청을 수행합니다.
func (f *ThrottleFetcher) Do(req *http.Request) (*http.Response, error) {
	for {
		wait, ok := f.reserve()
		if ok {
			break
		}

		// 대기 중 컨텍스트 취소를 감지할 수 있도록 타이머와 select를 사용합니다.
		timer := time.NewTimer(wait)

		select {
		case <-req.Context().Done():
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}

			return nil, req.Context().Err()

		case <-timer.C:
		}
	}

	return f.delegate.Do(req)
}

// Close 하위 체인의 리소스를 정리합니다.
func (f *ThrottleFetcher) Close() error {
	return f.delegate.Close()
}

// reserve 요청 1건의 통과 가능 여부를 판단합니다.
//
// 통과 가능하면 카운터를 갱신하고 (0, true)를 반환합니다.
// 통과할 수 없으면 다시 시도하기 전에 대기해야 할 시간과 함께 (wait, false)를 반환합니다.
// 대기 후에도 다른 고루틴이 먼저 슬롯을 차지할 수 있으므로 호출자는 재시도해야 합니다.
func (f *ThrottleFetcher) reserve() (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()

	// 윈도우가 만료되었으면 새 윈도우를 시작합니다.
	if f.windowStart.IsZero() || now.Sub(f.windowStart) >= f.windowDuration {
		f.windowStart = now
		f.windowCount = 0
	}

	// 고정 윈도우 한도 초과: 윈도우가 초기화될 때까지 대기
	if f.windowCount >= f.windowLimit {
		return f.windowStart.Add(f.windowDuration).Sub(now), false
	}

	// 최소 요청 간격 미달: 남은 간격만큼 대기
	if !f.lastRequest.IsZero() {
		if elapsed := now.Sub(f.lastRequest); elapsed < f.minInterval {
			return f.minInterval - elapsed, false
		}
	}

	f.lastRequest = now
	f.windowCount++

	return 0, true
}
