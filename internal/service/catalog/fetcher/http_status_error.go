package fetcher

import (
	"fmt"
	"net/http"
)

// HTTPStatusError HTTP 요청 실패 시 상태 코드와 응답 정보를 포함하는 구조화된 에러입니다.
//
// 단순한 에러 메시지 대신 상태 코드, URL, 응답 헤더, 응답 본문 일부 등을 구조화된
// 필드로 제공하여, 호출자가 에러 상황을 정확히 파악하고 적절한 대응(재시도, 폴백,
// 알림 등)을 할 수 있도록 돕습니다.
//
// Cause 필드에 apperrors.AppError를 포함하여 에러 타입 분류와 체이닝을 지원하며,
// Unwrap() 메서드를 통해 errors.Is / errors.As 패턴을 그대로 사용할 수 있습니다.
type HTTPStatusError struct {
	// StatusCode 서버가 반환한 HTTP 상태 코드입니다. (예: 404, 429, 500)
	StatusCode int

	// Status HTTP 상태 코드에 대응하는 텍스트 설명입니다. (예: "429 Too Many Requests")
	Status string

	// URL 요청을 보낸 대상 URL입니다. 민감한 정보는 마스킹되어 저장됩니다.
	URL string

	// Header 서버가 반환한 HTTP 응답 헤더입니다. 민감한 헤더는 마스킹되어 저장됩니다.
	// 429 응답의 Retry-After 헤더 확인 등에 사용됩니다.
	Header http.Header

	// BodySnippet 응답 본문의 앞부분(최대 4KB)입니다. 디버깅 용도로만 사용됩니다.
	BodySnippet string

	// Cause 이 HTTP 에러의 근본 원인이 되는 내부 도메인 에러입니다.
	Cause error
}

// Error 표준 error 인터페이스를 구현합니다.
func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d (%s)", e.StatusCode, e.Status)
	if e.URL != "" {
		msg += fmt.Sprintf(" URL: %s", e.URL)
	}
	if e.BodySnippet != "" {
		msg += fmt.Sprintf(", Body: %s", e.BodySnippet)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap 래핑된 원인 에러(Cause)를 반환하여 표준 에러 체이닝을 지원합니다.
func (e *HTTPStatusError) Unwrap() error {
	return e.Cause
}
