package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
)

// component Catalog 서비스의 Fetcher 로깅용 컴포넌트 이름
const component = "catalog.fetcher"

// Fetcher 상위 재고 API에 대한 HTTP 요청을 수행하는 핵심 인터페이스입니다.
//
// 재시도, 요청 속도 제어, 상태 코드 검증, 로깅 등의 기능을 데코레이터 패턴으로
// 조합할 수 있도록 설계되었습니다. 모든 상위 API 호출은 이 인터페이스를 통해
// 구성된 단일 체인을 거쳐야 하며, 체인을 우회하는 직접 호출은 허용되지 않습니다.
//
// 구현 시 주의사항:
//   - 반환된 응답 객체의 Body는 반드시 호출자가 닫아야 합니다.
//   - 에러가 발생해도 응답 객체가 nil이 아닐 수 있습니다.
//   - Context 취소 시 즉시 요청(및 대기)을 중단하고 적절한 에러를 반환해야 합니다.
//   - 여러 고루틴에서 동시에 호출해도 안전해야 합니다.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
	Close() error
}

// Get 지정된 URL로 HTTP GET 요청을 전송하는 헬퍼 함수입니다.
//
// 요청 실패 시 커넥션 재사용을 위해 응답 객체의 Body를 자동으로 비우고 닫습니다.
// 성공 시 반환된 응답 객체의 Body는 호출자가 반드시 닫아야 합니다.
func Get(ctx context.Context, f Fetcher, url string, header map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("HTTP 요청 생성에 실패했습니다. (URL: %s)", redactRawURL(url)))
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	resp, err := f.Do(req)
	if err != nil {
		if resp != nil {
			// 커넥션 재사용을 위해 응답 객체의 Body를 안전하게 비우고 닫음
			drainAndCloseBody(resp.Body)
		}

		return nil, err
	}

	return resp, nil
}

// FetchJSON 지정된 URL로 HTTP GET 요청을 보내고 응답 본문(JSON)을 v로 디코딩합니다.
func FetchJSON(ctx context.Context, f Fetcher, url string, header map[string]string, v any) error {
	resp, err := Get(ctx, f, url, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // 응답을 받은 즉시 defer 설정하여 메모리 누수 방지

	// json.Decoder를 사용하여 스트림 방식으로 JSON 파싱 (메모리 효율적)
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return apperrors.Wrap(err, apperrors.ParsingFailed, fmt.Sprintf("상위 API 응답(%s)의 JSON 변환이 실패하였습니다.", redactRawURL(url)))
	}

	return nil
}

// FetchBytes 지정된 URL로 HTTP GET 요청을 보내고 응답 본문 전체를 바이트 슬라이스로 반환합니다.
// 이미지 바이너리 다운로드처럼 응답을 그대로 전달해야 하는 경우에 사용합니다.
func FetchBytes(ctx context.Context, f Fetcher, url string, header map[string]string) ([]byte, string, error) {
	resp, err := Get(ctx, f, url, header)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("상위 API 응답(%s)의 본문 읽기가 실패하였습니다.", redactRawURL(url)))
	}

	return data, resp.Header.Get("Content-Type"), nil
}
