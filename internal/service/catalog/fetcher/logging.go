package fetcher

import (
	"net/http"
	"time"

	applog "github.com/darkkaiser/catalog-server/pkg/log"
)

// LoggingFetcher HTTP 요청의 상세 정보를 로그로 남기는 미들웨어입니다.
//
// 로깅되는 정보:
//   - 요청 메서드와 URL (민감 정보 마스킹 처리됨)
//   - 응답 상태 코드
//   - 요청 처리 소요 시간
//   - 에러 메시지 (에러 발생 시)
type LoggingFetcher struct {
	delegate Fetcher
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*LoggingFetcher)(nil)

// NewLoggingFetcher 새로운 LoggingFetcher 인스턴스를 생성합니다.
func NewLoggingFetcher(delegate Fetcher) *LoggingFetcher {
	return &LoggingFetcher{
		delegate: delegate,
	}
}

// Do HTTP 요청을 수행하고 상세 로그를 기록합니다.
func (f *LoggingFetcher) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := f.delegate.Do(req)

	duration := time.Since(start)

	fields := applog.Fields{
		"method":   req.Method,
		"url":      redactURL(req.URL),
		"duration": duration.String(),
	}

	if err != nil {
		fields["error"] = err.Error()

		// 에러가 발생했더라도 응답 객체가 있을 수 있음 (예: 상태 코드 에러)
		if resp != nil {
			fields["status_code"] = resp.StatusCode
		}

		applog.WithComponent(component).
			WithContext(req.Context()).
			WithFields(fields).
			Error("상위 API 요청 실패: 요청 처리 중 에러 발생")

		return resp, err
	}

	if resp != nil {
		fields["status_code"] = resp.StatusCode
	}

	applog.WithComponent(component).
		WithContext(req.Context()).
		WithFields(fields).
		Debug("상위 API 요청 성공: 정상 처리 완료")

	return resp, nil
}

// Close 하위 체인의 리소스를 정리합니다.
func (f *LoggingFetcher) Close() error {
	return f.delegate.Close()
}
