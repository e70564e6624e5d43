package fetcher

import (
	"fmt"
	"io"
	"net/http"
	"slices"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
)

// bodySnippetMaxBytes 에러 객체에 포함시킬 응답 본문의 최대 크기 (4KB)
const bodySnippetMaxBytes = 4096

// StatusCodeFetcher HTTP 응답의 상태 코드를 검증하는 미들웨어입니다.
//
// 허용된 상태 코드(기본: 200 OK)가 아닌 응답은 상태 코드별 도메인 에러 타입이
// 분류된 HTTPStatusError로 변환됩니다. 상위 체인(RetryFetcher)은 이 에러의
// 상태 코드를 보고 재시도 정책을 결정합니다.
type StatusCodeFetcher struct {
	delegate Fetcher

	// allowedStatusCodes 허용할 HTTP 상태 코드 목록입니다.
	// nil 또는 빈 슬라이스인 경우 200 OK만 허용합니다.
	allowedStatusCodes []int
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*StatusCodeFetcher)(nil)

// NewStatusCodeFetcher 200 OK만 허용하는 StatusCodeFetcher 인스턴스를 생성합니다.
func NewStatusCodeFetcher(delegate Fetcher) *StatusCodeFetcher {
	return &StatusCodeFetcher{
		delegate: delegate,
	}
}

// NewStatusCodeFetcherWithOptions 특정 HTTP 상태 코드들을 허용하는 StatusCodeFetcher 인스턴스를 생성합니다.
func NewStatusCodeFetcherWithOptions(delegate Fetcher, allowedStatusCodes ...int) *StatusCodeFetcher {
	return &StatusCodeFetcher{
		delegate:           delegate,
		allowedStatusCodes: allowedStatusCodes,
	}
}

// Do HTTP 요청을 수행하고 응답 상태 코드를 검증합니다.
//
// 상태 코드 검증 실패 시 nil Response와 함께 HTTPStatusError를 반환하며,
// 응답 객체의 Body는 이 함수 내부에서 정리되므로 호출자가 별도로 닫을 필요가 없습니다.
// 성공 시에는 호출자가 반드시 응답 객체의 Body를 닫아야 합니다.
func (f *StatusCodeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			// 커넥션 재사용을 위해 응답 객체의 Body를 안전하게 비우고 닫음
			drainAndCloseBody(resp.Body)
		}

		return nil, err
	}

	if statusErr := f.checkStatus(resp); statusErr != nil {
		drainAndCloseBody(resp.Body)

		return nil, statusErr
	}

	return resp, nil
}

// Close 하위 체인의 리소스를 정리합니다.
func (f *StatusCodeFetcher) Close() error {
	return f.delegate.Close()
}

// checkStatus 응답 상태 코드가 허용 목록에 포함되는지 확인하고,
// 허용되지 않은 경우 응답의 상세 정보를 담은 HTTPStatusError를 생성합니다.
func (f *StatusCodeFetcher) checkStatus(resp *http.Response) error {
	if f.isAllowed(resp.StatusCode) {
		return nil
	}

	// 디버깅 편의를 위해 응답 본문의 앞부분만 읽어서 에러 객체에 포함시킵니다.
	var bodySnippet string
	if resp.Body != nil {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippetMaxBytes))
		if len(bodyBytes) > 0 {
			bodySnippet = string(bodyBytes)
		}
	}

	errType := classifyStatusCode(resp.StatusCode)

	var requestURL string
	if resp.Request != nil {
		requestURL = redactURL(resp.Request.URL)
	}

	return &HTTPStatusError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		URL:         requestURL,
		Header:      redactHeaders(resp.Header),
		BodySnippet: bodySnippet,
		Cause:       apperrors.New(errType, fmt.Sprintf("HTTP 요청이 실패했습니다. 상태 코드: %s", resp.Status)),
	}
}

// isAllowed 상태 코드가 허용 목록에 포함되어 있는지 확인합니다.
func (f *StatusCodeFetcher) isAllowed(statusCode int) bool {
	if len(f.allowedStatusCodes) == 0 {
		return statusCode == http.StatusOK
	}
	return slices.Contains(f.allowedStatusCodes, statusCode)
}
