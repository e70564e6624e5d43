package fetcher

import (
	"errors"
	"io"
	"net/http"
)

const (
	// defaultMaxBodyBytes 응답 본문의 기본 크기 제한값입니다 (10MB).
	// 상품 목록 JSON과 이미지 바이너리 모두 이 값 아래에서 처리됩니다.
	defaultMaxBodyBytes = 10 * 1024 * 1024

	// NoBodyLimit 응답 본문에 대한 크기 제한을 적용하지 않음을 나타내는 특수 상수입니다.
	NoBodyLimit = -1
)

// maxBytesReader http.MaxBytesReader를 래핑하여 제한 초과 시 도메인 에러로 변환하는 내부 헬퍼입니다.
type maxBytesReader struct {
	rc io.ReadCloser

	// 바이트 수 제한값 (에러 메시지에 포함하기 위해 저장)
	limit int64
}

func (r *maxBytesReader) Read(p []byte) (n int, err error) {
	n, err = r.rc.Read(p)
	if err != nil {
		// http.MaxBytesReader는 제한 초과 시 *http.MaxBytesError를 반환합니다.
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return n, newErrResponseBodyTooLarge(r.limit)
		}
	}

	return n, err
}

func (r *maxBytesReader) Close() error {
	return r.rc.Close()
}

// MaxBytesFetcher 상위 API 응답 본문의 크기를 제한하는 미들웨어입니다.
//
// Content-Length 헤더 기반으로 조기 차단하고, 헤더가 없거나 조작된 응답에
// 대해서도 실제 읽기 시점의 바이트 수를 제한하여 메모리 고갈을 방지합니다.
// 이미지 바이너리 다운로드가 최대 캐시 용량만큼 누적되는 경로의 상한선 역할을 합니다.
type MaxBytesFetcher struct {
	delegate Fetcher

	// 응답 본문의 최대 허용 바이트 수
	limit int64
}

// NewMaxBytesFetcher 새로운 MaxBytesFetcher 인스턴스를 생성합니다.
// limit이 NoBodyLimit이면 제한을 적용하지 않고 delegate를 그대로 반환합니다.
func NewMaxBytesFetcher(delegate Fetcher, limit int64) Fetcher {
	if limit == NoBodyLimit {
		return delegate
	}
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}

	return &MaxBytesFetcher{
		delegate: delegate,
		limit:    limit,
	}
}

// Do HTTP 요청을 수행하고, 응답 본문에 크기 제한을 적용합니다.
//
// 반환된 응답의 Body는 반드시 호출자가 닫아야 하며, Body를 읽는 도중
// 제한 초과 시 에러가 발생할 수 있습니다.
func (f *MaxBytesFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			// 커넥션 재사용을 위해 응답 객체의 Body를 안전하게 비우고 닫음
			drainAndCloseBody(resp.Body)
		}

		return nil, err
	}

	// 1차 방어: Content-Length 헤더 기반 조기 차단
	if resp.ContentLength > f.limit {
		drainAndCloseBody(resp.Body)

		return nil, newErrResponseBodyTooLargeByContentLength(resp.ContentLength, f.limit)
	}

	// 2차 방어: 실제 읽기 시점의 바이트 수 제한
	// Content-Length 헤더가 없거나 실제 크기보다 작게 조작된 응답을 방어합니다.
	resp.Body = &maxBytesReader{
		rc:    http.MaxBytesReader(nil, resp.Body, f.limit),
		limit: f.limit,
	}

	return resp, nil
}

// Close 내부 delegate Fetcher의 리소스를 정리합니다.
func (f *MaxBytesFetcher) Close() error {
	return f.delegate.Close()
}
