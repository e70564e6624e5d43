package fetcher

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
)

const (
	// minAllowedRetries 허용 가능한 최소 재시도 횟수입니다. (0: 재시도 안 함)
	minAllowedRetries = 0

	// maxAllowedRetries 허용 가능한 최대 재시도 횟수입니다.
	maxAllowedRetries = 10

	// defaultMaxRetryDelay 재시도 대기 시간 최대값의 기본값(30초)입니다.
	defaultMaxRetryDelay = 30 * time.Second

	// defaultRateLimitCeiling 요청 한도 초과(429) 응답의 기본 누적 허용 한도입니다.
	// 한 번의 실행 주기 동안 429가 이 횟수만큼 누적되면 더 이상의 요청은 의미가 없다고
	// 판단하고 RateLimited 에러로 전체 작업을 중단시킵니다. 성공 응답 시 초기화됩니다.
	defaultRateLimitCeiling = 200

	// preconditionBaseDelay 전제조건 실패(412) 재시도의 시작 대기 시간입니다.
	preconditionBaseDelay = 1 * time.Second

	// preconditionMaxDelay 전제조건 실패(412) 재시도 대기 시간의 상한입니다.
	preconditionMaxDelay = 10 * time.Second

	// preconditionMaxRetries 전제조건 실패(412)에 대한 최대 재시도 횟수입니다.
	preconditionMaxRetries = 5
)

// RetryFetcher HTTP 요청 실패 시 상태 코드별 정책에 따라 자동으로 재시도하는 미들웨어입니다.
//
// 상위 재고 API에서 실제로 관측된 실패 유형별로 서로 다른 재시도 정책을 적용합니다:
//   - 429 (Too Many Requests): Retry-After 헤더를 우선 준수하여 재시도합니다.
//     429 응답은 인스턴스 단위로 누적 집계되며, 누적 한도(rateLimitCeiling) 도달 시
//     RateLimited 에러를 반환하여 전체 작업을 중단시킵니다.
//   - 412 (Precondition Failed): 1초에서 시작해 2배씩 증가(상한 10초)하는 대기 후
//     최대 5회 재시도하고, 해소되지 않으면 PreconditionFailed 에러를 반환합니다.
//   - 401/403: 재시도하지 않고 즉시 반환합니다. (인증/권한 문제는 재시도로 해소 불가)
//   - 네트워크 오류/타임아웃/5xx: 지터가 적용된 지수 백오프로 최대 maxRetries회 재시도합니다.
//
// 모든 대기는 요청 컨텍스트 취소를 감지하여 즉시 중단됩니다.
type RetryFetcher struct {
	delegate Fetcher

	// maxRetries 네트워크 오류/5xx에 대한 최대 재시도 횟수입니다.
	maxRetries int

	// minRetryDelay 지수 백오프의 시작 대기 시간입니다. (1초 이상으로 보정됨)
	minRetryDelay time.Duration

	// maxRetryDelay 지수 백오프 및 Retry-After 대기 시간의 상한입니다.
	maxRetryDelay time.Duration

	// rateLimitCeiling 429 응답의 누적 허용 한도입니다.
	rateLimitCeiling int

	// preconditionBaseDelay / preconditionMaxDelay 412 재시도 백오프의 시작값과 상한입니다.
	preconditionBaseDelay time.Duration
	preconditionMaxDelay  time.Duration

	// mu rateLimitHits 보호용 뮤텍스입니다.
	// 여러 고루틴이 같은 인스턴스로 요청을 보내므로 누적 집계는 반드시 직렬화되어야 합니다.
	mu            sync.Mutex
	rateLimitHits int
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*RetryFetcher)(nil)

// NewRetryFetcher 새로운 RetryFetcher 인스턴스를 생성합니다.
func NewRetryFetcher(delegate Fetcher, maxRetries int, minRetryDelay, maxRetryDelay time.Duration, rateLimitCeiling int) *RetryFetcher {
	maxRetries = normalizeMaxRetries(maxRetries)
	minRetryDelay, maxRetryDelay = normalizeRetryDelays(minRetryDelay, maxRetryDelay)

	if rateLimitCeiling <= 0 {
		rateLimitCeiling = defaultRateLimitCeiling
	}

	return &RetryFetcher{
		delegate: delegate,

		maxRetries:    maxRetries,
		minRetryDelay: minRetryDelay,
		maxRetryDelay: maxRetryDelay,

		rateLimitCeiling: rateLimitCeiling,

		preconditionBaseDelay: preconditionBaseDelay,
		preconditionMaxDelay:  preconditionMaxDelay,
	}
}

// Do HTTP 요청을 수행하며, 실패 시 상태 코드별 정책에 따라 자동으로 재시도합니다.
//
// 주의사항:
//   - 요청 본문이 있는 경우 GetBody 필드가 설정되어 있어야 재시도가 가능합니다.
//   - 비멱등 메서드(POST, PATCH)는 데이터 중복 위험 때문에 재시도가 비활성화됩니다.
//   - 반환된 응답 객체의 Body는 호출자가 반드시 닫아야 합니다.
func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	retryEnabled := true

	// 비멱등 메서드(POST, PATCH)는 재시도 시 데이터 중복 생성/수정 위험이 있으므로 재시도 비활성화!!
	if !isIdempotentMethod(req.Method) {
		retryEnabled = false
	}

	// 재시도 시 요청 본문을 다시 읽어야 하므로, GetBody가 없으면 재시도 기능만 비활성화하고 요청은 계속 진행합니다.
	if req.Body != nil && req.GetBody == nil && retryEnabled {
		applog.WithComponent(component).WithContext(req.Context()).WithFields(applog.Fields{
			"url":    redactURL(req.URL),
			"method": req.Method,
		}).Warn("재시도 비활성화: 요청 본문 재생성 불가 (GetBody nil)")

		retryEnabled = false
	}

	var (
		attempt             int // 전체 시도 횟수 (로깅용)
		transientRetries    int // 네트워크 오류/5xx 재시도 횟수
		preconditionRetries int // 412 재시도 횟수
		lastErr             error
	)

	for {
		// 이전 시도에서 소진된 요청 본문을 복구합니다.
		// 원본 요청 객체를 변경하지 않기 위해 복제본을 사용합니다.
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, newErrGetBodyFailed(err)
			}

			req = req.Clone(req.Context())
			req.Body = body
		}

		resp, err := f.delegate.Do(req)
		attempt++

		if err == nil {
			// 요청이 성공했으므로 429 누적 카운터를 초기화합니다.
			f.resetRateLimitHits()

			return resp, nil
		}

		// 에러가 발생했더라도 응답 객체가 있을 수 있음 (하위 체인 구성에 따라 다름)
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}

		// 사용자의 명시적 취소 또는 전체 제한 시간 초과는 재시도해도 성공할 수 없으므로 즉시 중단합니다.
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) && req.Context().Err() != nil {
			return nil, err
		}

		lastErr = err

		// 상태 코드별 재시도 정책 결정
		var delay time.Duration
		var retryReason string

		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			switch statusErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				// 인증/권한 문제는 재시도로 해소되지 않으므로 즉시 반환합니다.
				return nil, err

			case http.StatusTooManyRequests:
				hits := f.recordRateLimitHit()
				if hits >= f.rateLimitCeiling {
					applog.WithComponent(component).WithContext(req.Context()).WithFields(applog.Fields{
						"url":     redactURL(req.URL),
						"hits":    hits,
						"ceiling": f.rateLimitCeiling,
					}).Error("요청 중단: 상위 API의 429 응답이 누적 한도에 도달했습니다")

					return nil, apperrors.Wrap(err, apperrors.RateLimited, fmt.Sprintf("상위 API의 요청 한도 초과(429)가 누적 한도(%d회)에 도달하여 요청을 중단합니다", f.rateLimitCeiling))
				}

				// 서버가 명시한 Retry-After를 우선 준수하고, 없으면 지수 백오프를 사용합니다.
				retryAfter := statusErr.Header.Get("Retry-After")
				if retryAfterDelay, ok := parseRetryAfter(retryAfter); ok {
					if retryAfterDelay > f.maxRetryDelay {
						// 과도하게 긴 대기 요구는 재시도하지 않고 즉시 에러를 반환합니다.
						return nil, newErrRetryAfterExceeded(retryAfterDelay.String(), f.maxRetryDelay.String())
					}
					delay = retryAfterDelay
				} else {
					delay = f.backoffDelay(hits)
				}

				retryReason = "rate_limited"

			case http.StatusPreconditionFailed:
				preconditionRetries++
				if !retryEnabled || preconditionRetries > preconditionMaxRetries {
					return nil, newErrPreconditionRetriesExceeded(preconditionRetries-1, err)
				}

				// 1초 → 2초 → 4초 → 8초 → 10초(상한)
				delay = f.preconditionBaseDelay << (preconditionRetries - 1)
				if delay > f.preconditionMaxDelay {
					delay = f.preconditionMaxDelay
				}

				retryReason = "precondition_failed"

			default:
				// 그 외 상태 코드는 일반 재시도 정책으로 넘깁니다.
			}
		}

		if retryReason == "" {
			// 일반 재시도 정책: 일시적 오류(네트워크 장애, 5xx)만 재시도 대상입니다.
			if !isRetriable(err) {
				return nil, err
			}

			transientRetries++
			if !retryEnabled || transientRetries > f.maxRetries {
				return nil, newErrMaxRetriesExceeded(lastErr)
			}

			delay = f.jitteredBackoffDelay(transientRetries)
			retryReason = "transient_error"
		}

		applog.WithComponent(component).WithContext(req.Context()).WithFields(applog.Fields{
			"url":          redactURL(req.URL),
			"attempt":      attempt,
			"retry_reason": retryReason,
			"delay":        delay.String(),
			"error":        err.Error(),
		}).Warn("재시도 대기 중: 일시적 오류로 인해 요청 재시도를 준비합니다")

		// 계산된 시간만큼 대기하되, 요청이 취소되면 즉시 중단합니다.
		if waitErr := waitWithContext(req.Context(), delay); waitErr != nil {
			return nil, waitErr
		}
	}
}

// Close 하위 체인의 리소스를 정리합니다.
func (f *RetryFetcher) Close() error {
	return f.delegate.Close()
}

// recordRateLimitHit 429 응답 1건을 누적 집계하고 현재 누적 횟수를 반환합니다.
func (f *RetryFetcher) recordRateLimitHit() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rateLimitHits++
	return f.rateLimitHits
}

// resetRateLimitHits 성공 응답 시 429 누적 카운터를 초기화합니다.
func (f *RetryFetcher) resetRateLimitHits() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rateLimitHits = 0
}

// backoffDelay n번째 재시도에 대한 지수 백오프 대기 시간을 계산합니다. (지터 없음)
func (f *RetryFetcher) backoffDelay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	if n > 16 {
		n = 16 // 시프트 오버플로 방지
	}

	delay := f.minRetryDelay * time.Duration(1<<(n-1))
	if delay > f.maxRetryDelay || delay <= 0 {
		delay = f.maxRetryDelay
	}

	return delay
}

// jitteredBackoffDelay n번째 재시도에 대해 Full Jitter가 적용된 지수 백오프 대기 시간을 계산합니다.
//
// 여러 호출자가 동시에 재시도하는 것을 분산시키기 위해 0 ~ 계산된 대기 시간 범위에서
// 무작위 값을 선택하되, 너무 빠른 재시도를 막기 위해 최소 대기 시간을 보장합니다.
func (f *RetryFetcher) jitteredBackoffDelay(n int) time.Duration {
	delay := f.backoffDelay(n)

	if delay > 0 {
		delay = time.Duration(rand.Int64N(int64(delay) + 1))
	}
	if delay < time.Millisecond {
		delay = f.minRetryDelay
	}

	return delay
}

// waitWithContext 지정된 시간만큼 대기하되, 컨텍스트가 취소되면 즉시 중단합니다.
func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)

	select {
	case <-ctx.Done():
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}

		return ctx.Err()

	case <-timer.C:
		return nil
	}
}

// normalizeMaxRetries 최대 재시도 횟수를 허용 범위(0~10) 내로 보정합니다.
func normalizeMaxRetries(maxRetries int) int {
	if maxRetries < minAllowedRetries {
		return minAllowedRetries
	}
	if maxRetries > maxAllowedRetries {
		return maxAllowedRetries
	}
	return maxRetries
}

// normalizeRetryDelays 재시도 대기 시간의 최소값과 최대값을 보정합니다.
//
// 보정 규칙:
//   - minRetryDelay 1초 미만: 서버 부하 방지를 위해 1초로 보정
//   - maxRetryDelay 0: 기본값(30초)으로 보정
//   - maxRetryDelay < minRetryDelay: minRetryDelay로 보정
func normalizeRetryDelays(minRetryDelay, maxRetryDelay time.Duration) (time.Duration, time.Duration) {
	if minRetryDelay < time.Second {
		minRetryDelay = 1 * time.Second
	}

	if maxRetryDelay == 0 {
		maxRetryDelay = defaultMaxRetryDelay
	}

	if maxRetryDelay < minRetryDelay {
		maxRetryDelay = minRetryDelay
	}

	return minRetryDelay, maxRetryDelay
}

// isRetriable 발생한 에러가 재시도 가능한 일시적인 오류인지 판단합니다.
//
// 재시도 대상:
//   - 네트워크 타임아웃 및 일시적인 연결 오류
//   - 서버 일시적 오류 (apperrors.Unavailable: 5xx 등)
//   - 분류되지 않은 일반 에러 (DNS 실패, 연결 거부 등)
//
// 재시도 제외:
//   - 컨텍스트 취소 (사용자의 명시적 취소 의도)
//   - SSL/TLS 인증서 오류, URL 형식 오류, 리다이렉트 제한 초과 (영구적 문제)
//   - 명확한 도메인 에러 (InvalidInput, Forbidden, NotFound, ExecutionFailed, ParsingFailed)
func isRetriable(err error) bool {
	if err == nil {
		return false
	}

	// context.Canceled는 사용자가 명시적으로 요청을 취소한 것이므로 재시도 제외!
	// context.DeadlineExceeded는 HTTP 클라이언트 타임아웃 시에도 발생하므로 net.Error 검사에서 처리합니다.
	if errors.Is(err, context.Canceled) {
		return false
	}

	// 재시도해도 해결되지 않는 URL 관련 오류는 즉시 중단합니다.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		switch urlErr.Err.Error() {
		case "stopped after 10 redirects", "invalid control character in URL":
			return false
		}

		if strings.Contains(urlErr.Error(), "unsupported protocol scheme") {
			return false
		}
	}

	// 인증서 에러(유효기간 만료, 신뢰할 수 없는 CA 등)는 재시도해도 해결되지 않는 문제로 간주!
	var x509HostnameErr x509.HostnameError
	var x509UnknownAuthorityErr x509.UnknownAuthorityError
	var x509CertificateInvalidErr x509.CertificateInvalidError
	if errors.As(err, &x509HostnameErr) || errors.As(err, &x509UnknownAuthorityErr) || errors.As(err, &x509CertificateInvalidErr) {
		return false
	}

	// 타임아웃은 일시적인 네트워크 지연으로 간주하여 재시도합니다.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// 서버가 일시적으로 요청을 처리할 수 없는 상태(5xx 등)는 재시도합니다.
	if apperrors.Is(err, apperrors.Unavailable) {
		return true
	}

	// 명확한 도메인 에러는 재시도해도 동일한 결과가 나오므로 재시도 제외!
	if apperrors.Is(err, apperrors.ExecutionFailed) ||
		apperrors.Is(err, apperrors.ParsingFailed) ||
		apperrors.Is(err, apperrors.InvalidInput) ||
		apperrors.Is(err, apperrors.Unauthorized) ||
		apperrors.Is(err, apperrors.Forbidden) ||
		apperrors.Is(err, apperrors.NotFound) {
		return false
	}

	// 명확한 실패 사유가 없다면 일시적 오류(DNS 조회 실패, 연결 거부 등)로 간주하고 재시도합니다.
	return true
}

// isIdempotentMethod 지정된 HTTP 메서드가 멱등한지(재시도가 안전한지) 여부를 반환합니다.
//
// 참고: RFC 7231 Section 4.2.2 (Idempotent Methods)
func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodPut, http.MethodDelete:
		return true

	default:
		return false
	}
}

// parseRetryAfter Retry-After 헤더 값을 파싱하여 대기해야 할 시간을 반환합니다.
//
// 지원 형식 (RFC 7231 Section 7.1.3):
//  1. 초 단위 정수: "120" → 120초 후 재시도
//  2. HTTP-date 형식: "Wed, 21 Oct 2015 07:28:00 GMT" → 해당 시각까지 대기
func parseRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}

	var seconds int
	if _, err := fmt.Sscanf(value, "%d", &seconds); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}

	if date, err := http.ParseTime(value); err == nil {
		duration := time.Until(date)
		if duration < 0 {
			// 과거 시간이면 즉시 재시도 (서버와의 시간 차이로 발생 가능)
			duration = 0
		}

		return duration, true
	}

	return 0, false
}
