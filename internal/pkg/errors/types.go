package errors

// ErrorType 에러의 종류를 나타내는 타입입니다.
type ErrorType int

// 에러 타입 상수
const (
	// Unknown 알 수 없는 에러
	Unknown ErrorType = iota

	// Internal 내부 로직 오류 (버그 등)
	Internal

	// System 시스템 또는 인프라 오류 (디스크, 네트워크 등)
	System

	// Unauthorized 인증 실패 (API 토큰 미설정, 토큰 만료 등)
	Unauthorized

	// Forbidden 권한 없음 (접근 권한 부족)
	Forbidden

	// InvalidInput 잘못된 입력값 (유효성 검사 실패)
	InvalidInput

	// Conflict 리소스 충돌 (중복 생성 등)
	Conflict

	// NotFound 리소스를 찾을 수 없음
	NotFound

	// ExecutionFailed 비즈니스 로직 수행 실패 (외부 API 호출 오류 등)
	ExecutionFailed

	// ParsingFailed 데이터 파싱 또는 형식 변환 실패
	ParsingFailed

	// Timeout 작업 시간 초과
	Timeout

	// Unavailable 서비스 일시적 사용 불가
	Unavailable

	// RateLimited 외부 API의 요청 한도 초과가 누적되어 더 이상 진행할 수 없음
	RateLimited

	// PreconditionFailed 외부 API가 요청 전제조건 실패(HTTP 412)를 반환함
	PreconditionFailed
)

var errorTypeNames = map[ErrorType]string{
	Unknown:            "Unknown",
	Internal:           "Internal",
	System:             "System",
	Unauthorized:       "Unauthorized",
	Forbidden:          "Forbidden",
	InvalidInput:       "InvalidInput",
	Conflict:           "Conflict",
	NotFound:           "NotFound",
	ExecutionFailed:    "ExecutionFailed",
	ParsingFailed:      "ParsingFailed",
	Timeout:            "Timeout",
	Unavailable:        "Unavailable",
	RateLimited:        "RateLimited",
	PreconditionFailed: "PreconditionFailed",
}

// String ErrorType의 문자열 표현을 반환합니다.
func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}
