package fetcher

import (
	"fmt"
	"net/http"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
)

var (
	// ErrMaxRetriesExceeded 최대 재시도 횟수를 모두 소진했을 때 반환되는 기본 에러입니다.
	ErrMaxRetriesExceeded = apperrors.New(apperrors.Unavailable, "최대 재시도 횟수를 초과하였습니다")

	// ErrRateLimitCeilingExceeded 상위 API의 429 응답이 허용 한도까지 누적되어
	// 더 이상 요청을 진행할 수 없을 때 반환되는 에러입니다.
	ErrRateLimitCeilingExceeded = apperrors.New(apperrors.RateLimited, "상위 API의 요청 한도 초과(429)가 누적 한도에 도달하여 요청을 중단합니다")
)

// newErrMaxRetriesExceeded 마지막 에러 정보를 포함한 재시도 횟수 초과 에러를 생성합니다.
func newErrMaxRetriesExceeded(cause error) error {
	if cause == nil {
		return ErrMaxRetriesExceeded
	}
	return apperrors.Wrap(cause, apperrors.Unavailable, "최대 재시도 횟수를 초과하였습니다")
}

// newErrPreconditionRetriesExceeded 412 응답에 대한 재시도가 모두 실패했을 때 반환하는 에러를 생성합니다.
func newErrPreconditionRetriesExceeded(retries int, cause error) error {
	return apperrors.Wrap(cause, apperrors.PreconditionFailed, fmt.Sprintf("상위 API의 전제조건 실패(412)가 %d회 재시도 후에도 해소되지 않았습니다", retries))
}

// newErrRetryAfterExceeded 서버가 요구한 재시도 대기 시간(Retry-After)이 허용 최대치를 초과했을 때 반환하는 에러를 생성합니다.
func newErrRetryAfterExceeded(requested, allowed string) error {
	return apperrors.New(apperrors.Unavailable, fmt.Sprintf("서버가 요구한 재시도 대기 시간(%s)이 허용된 최대 대기 시간(%s)을 초과하여 재시도를 중단합니다", requested, allowed))
}

// newErrResponseBodyTooLarge 응답 본문 읽기 도중 크기 제한을 초과했을 때 반환하는 에러를 생성합니다.
func newErrResponseBodyTooLarge(limit int64) error {
	return apperrors.New(apperrors.ExecutionFailed, fmt.Sprintf("상위 API 응답 본문이 허용된 최대 크기(%d바이트)를 초과하였습니다", limit))
}

// newErrResponseBodyTooLargeByContentLength Content-Length 헤더가 크기 제한을 초과했을 때 반환하는 에러를 생성합니다.
func newErrResponseBodyTooLargeByContentLength(contentLength, limit int64) error {
	return apperrors.New(apperrors.ExecutionFailed, fmt.Sprintf("상위 API 응답의 Content-Length(%d바이트)가 허용된 최대 크기(%d바이트)를 초과하여 다운로드를 중단합니다", contentLength, limit))
}

// newErrGetBodyFailed 재시도를 위한 요청 본문 재생성에 실패했을 때 반환하는 에러를 생성합니다.
func newErrGetBodyFailed(cause error) error {
	return apperrors.Wrap(cause, apperrors.Internal, "재시도를 위한 요청 본문 재생성에 실패하였습니다")
}

// classifyStatusCode HTTP 상태 코드를 도메인 에러 타입으로 변환합니다.
//
// 상위 재고 API 운영 중 실제로 관측된 상태 코드 기준 분류:
//   - 401: 인증 토큰 만료/무효 (재시도 불가)
//   - 403: 권한 없음, 데모 모드 폴백 대상 (재시도 불가)
//   - 412: 요청 전제조건 실패, 짧은 대기 후 해소되는 경향 (전용 재시도 정책)
//   - 429: 요청 한도 초과 (Retry-After 준수 재시도)
//   - 5xx: 일시적 서버 장애 (지수 백오프 재시도)
func classifyStatusCode(statusCode int) apperrors.ErrorType {
	switch {
	case statusCode == http.StatusUnauthorized:
		return apperrors.Unauthorized
	case statusCode == http.StatusForbidden:
		return apperrors.Forbidden
	case statusCode == http.StatusNotFound:
		return apperrors.NotFound
	case statusCode == http.StatusPreconditionFailed:
		return apperrors.PreconditionFailed
	case statusCode == http.StatusTooManyRequests:
		return apperrors.RateLimited
	case statusCode >= 500:
		return apperrors.Unavailable
	case statusCode >= 400:
		return apperrors.InvalidInput
	default:
		return apperrors.ExecutionFailed
	}
}
