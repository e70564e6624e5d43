// Package mocks는 fetcher 패키지의 테스트를 위한 Mock 구현체를 제공합니다.
package mocks

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	"github.com/darkkaiser/catalog-server/internal/service/catalog/fetcher"
	"github.com/stretchr/testify/mock"
)

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var (
	_ fetcher.Fetcher = (*MockFetcher)(nil)
	_ fetcher.Fetcher = (*SequenceFetcher)(nil)
)

// MockFetcher Fetcher 인터페이스의 Mock 구현체입니다. (testify/mock 기반)
type MockFetcher struct {
	mock.Mock
}

// NewMockFetcher 새로운 MockFetcher 인스턴스를 생성합니다.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

// Do Mock으로 설정된 응답을 반환합니다.
func (m *MockFetcher) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)

	var resp *http.Response
	if args.Get(0) != nil {
		resp = args.Get(0).(*http.Response)
	}

	return resp, args.Error(1)
}

// Close Mock으로 설정된 에러를 반환합니다.
func (m *MockFetcher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// NewMockResponse 지정된 본문과 상태 코드를 가진 HTTP 응답 객체를 생성합니다.
func NewMockResponse(body string, statusCode int) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// SequenceFetcher 호출 순서대로 미리 정의된 결과를 반환하는 수동 Mock 구현체입니다.
//
// 재시도 시나리오(실패 → 실패 → 성공)처럼 호출마다 다른 결과가 필요한 테스트에 사용합니다.
// 정의된 결과를 모두 소진하면 마지막 결과를 반복해서 반환합니다.
type SequenceFetcher struct {
	mu      sync.Mutex
	results []SequenceResult
	calls   int
}

// SequenceResult SequenceFetcher가 반환할 응답 한 건을 정의합니다.
type SequenceResult struct {
	Resp *http.Response
	Err  error
}

// NewSequenceFetcher 지정된 결과 목록을 순서대로 반환하는 SequenceFetcher를 생성합니다.
func NewSequenceFetcher(results ...SequenceResult) *SequenceFetcher {
	return &SequenceFetcher{
		results: results,
	}
}

// Do 호출 순서에 해당하는 결과를 반환합니다.
func (f *SequenceFetcher) Do(_ *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++

	r := f.results[idx]
	return r.Resp, r.Err
}

// Close 아무 작업도 하지 않습니다.
func (f *SequenceFetcher) Close() error {
	return nil
}

// Calls 지금까지의 호출 횟수를 반환합니다.
func (f *SequenceFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}
