package constants

// 내부 로깅을 위한 메시지 상수입니다.
const (
	// ------------------------------------------------------------------------------------------------
	// 서비스 생명주기
	// ------------------------------------------------------------------------------------------------

	LogMsgServiceStarting       = "API 서비스 시작중..."
	LogMsgServiceStarted        = "API 서비스 시작됨"
	LogMsgServiceAlreadyStarted = "API 서비스가 이미 시작됨!!!"
	LogMsgServiceStopping       = "API 서비스 중지중..."
	LogMsgServiceStopped        = "API 서비스 중지됨"
	LogMsgServiceUnexpectedExit = "API 서비스가 예기치 않게 종료되었습니다"

	LogMsgServiceHTTPServerStarting      = "API 서비스 > http 서버 시작"
	LogMsgServiceHTTPServerStopped       = "API 서비스 > http 서버 중지됨"
	LogMsgServiceHTTPServerShutdownError = "API 서비스 > http 서버 종료 중 오류 발생"
	LogMsgServiceHTTPServerFatalError    = "API 서비스 > http 서버를 구성하는 중에 치명적인 오류가 발생하였습니다."

	// ------------------------------------------------------------------------------------------------
	// HTTP 에러 핸들러
	// ------------------------------------------------------------------------------------------------

	LogMsgHTTP4xxClientError = "HTTP 4xx: 클라이언트 요청 오류"
	LogMsgHTTP5xxServerError = "HTTP 5xx: 서버 내부 오류"

	// ------------------------------------------------------------------------------------------------
	// 미들웨어
	// ------------------------------------------------------------------------------------------------

	LogMsgRateLimitExceeded         = "Rate limit 초과"
	LogMsgUnsupportedContentType    = "지원하지 않는 Content-Type의 요청이 수신됨"
	LogMsgPanicRecovered            = "PANIC RECOVERED"

	// ------------------------------------------------------------------------------------------------
	// 핸들러
	// ------------------------------------------------------------------------------------------------

	LogMsgHealthCheck              = "헬스체크 요청 처리"
	LogMsgVersionInfo              = "버전 정보 요청 처리"
	LogMsgCategoriesDegraded       = "카테고리 목록 조회에 실패하여 빈 목록으로 응답합니다"
	LogMsgProductImagesDegraded    = "상품 이미지 목록 조회에 실패하여 빈 목록으로 응답합니다"
	LogMsgImageDegraded            = "상품 이미지 제공에 실패하여 플레이스홀더로 응답합니다"
	LogMsgCategorySettingsChanged  = "카테고리 노출 설정 변경됨"
	LogMsgCategorySettingsReplaced = "카테고리 노출 설정 일괄 저장됨"
	LogMsgCategorySettingsReset    = "카테고리 노출 설정 초기화됨"
)
