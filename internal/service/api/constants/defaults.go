package constants

import "time"

// 서버 설정 기본값 상수입니다.
const (
	// DefaultRequestTimeout HTTP 요청 처리의 기본 타임아웃 시간 (60초)
	// 별도의 타임아웃 설정이 없는 경우 이 값이 적용되며, 요청 처리가 이 시간을 초과하면
	// 자동으로 취소되어 서버 리소스를 보호합니다.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultReadTimeout 요청 본문 읽기의 최대 대기 시간 (15초)
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout 응답 쓰기의 최대 대기 시간 (60초)
	// 업스트림 API를 경유하는 상품 목록/이미지 응답이 느려질 수 있어 여유를 둡니다.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultIdleTimeout Keep-Alive 연결의 유휴 상태 최대 유지 시간 (90초)
	DefaultIdleTimeout = 90 * time.Second

	// DefaultRateLimitPerSecond IP별 초당 허용 요청 수 기본값
	DefaultRateLimitPerSecond = 20

	// DefaultRateLimitBurst IP별 버스트 허용량 기본값
	DefaultRateLimitBurst = 40
)

// 응답 캐싱 관련 상수입니다.
const (
	// CacheControlImages 상품 이미지 및 플레이스홀더 응답에 설정되는 Cache-Control 헤더 값입니다.
	// 이미지는 업스트림에서 자주 변경되지 않으므로 브라우저/CDN 캐싱을 허용합니다.
	CacheControlImages = "public, max-age=3600"
)
