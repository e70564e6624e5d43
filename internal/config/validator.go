package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	"github.com/darkkaiser/catalog-server/internal/pkg/validation"
)

// validate 패키지 전역에서 공유하는 Validator 인스턴스입니다.
var validate = newValidator()

// 텔레그램 봇 토큰 검증을 위한 정규식 (예: 123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11)
var telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)

// newValidator 새로운 Validator 인스턴스를 생성하고 커스텀 유효성 검사 함수를 등록합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 검증 에러가 났을 때, 에러 메시지에 Go 구조체 필드명(예: AllowOrigins) 대신 JSON 이름(예: allow_origins)을 보여주도록 설정합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// 커스텀 유효성 검사 함수 등록
	if err := v.RegisterValidation("cors_origin", validateCORSOrigin); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'cors_origin' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}
	if err := v.RegisterValidation("telegram_bot_token", validateTelegramBotToken); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'telegram_bot_token' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}

	return v
}

// validateCORSOrigin `validator` 라이브러리의 검증 인터페이스를 도메인 로직과 연결하는 어댑터입니다.
//
// 설정 파일에 정의된 CORS Origin 문자열을 추출한 뒤, 실제 검증은 validation.ValidateCORSOrigin 함수로 위임합니다.
func validateCORSOrigin(fl validator.FieldLevel) bool {
	return validation.ValidateCORSOrigin(fl.Field().String()) == nil
}

// validateTelegramBotToken 입력된 문자열이 유효한 텔레그램 봇 토큰 형식인지 검증합니다.
//
// 텔레그램 봇 토큰은 식별자(숫자)와 비밀키(문자열)가 콜론(:)으로 구분된 형태여야 합니다.
func validateTelegramBotToken(fl validator.FieldLevel) bool {
	return telegramBotTokenRegex.MatchString(fl.Field().String())
}

// checkStruct 구조체 인스턴스의 유효성을 태그 규칙에 따라 검증하고, 발생한 오류를 사용자 친화적인 도메인 에러로 변환합니다.
func checkStruct(v *validator.Validate, s interface{}, contextName string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}

	// 첫 번째 에러만 상세히 보고
	firstErr := validationErrors[0]

	// 필드별(Field) 커스텀 에러 처리
	switch firstErr.StructField() {
	case "BaseURL":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("외부 API 주소(base_url)가 유효한 URL이 아닙니다: '%v'", firstErr.Value()))
	case "APIToken":
		return apperrors.New(apperrors.InvalidInput, "외부 API 토큰(api_token)이 설정되지 않았습니다")
	case "ListenPort":
		return apperrors.New(apperrors.InvalidInput, "웹 서버 포트(listen_port)는 1에서 65535 사이의 값이어야 합니다")
	case "TLSCertFile":
		switch firstErr.Tag() {
		case "required_if":
			return apperrors.New(apperrors.InvalidInput, "TLS 서버 활성화 시 TLS 인증서 파일 경로(tls_cert_file)는 필수입니다")
		case "file":
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("지정된 TLS 인증서 파일(tls_cert_file)을 찾을 수 없습니다: '%v'", firstErr.Value()))
		default:
			return apperrors.New(apperrors.InvalidInput, "TLS 인증서 파일 경로(tls_cert_file) 설정이 올바르지 않습니다")
		}
	case "TLSKeyFile":
		switch firstErr.Tag() {
		case "required_if":
			return apperrors.New(apperrors.InvalidInput, "TLS 서버 활성화 시 TLS 키 파일 경로(tls_key_file)는 필수입니다")
		case "file":
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("지정된 TLS 키 파일(tls_key_file)을 찾을 수 없습니다: '%v'", firstErr.Value()))
		default:
			return apperrors.New(apperrors.InvalidInput, "TLS 키 파일 경로(tls_key_file) 설정이 올바르지 않습니다")
		}
	case "BotToken":
		if firstErr.Tag() == "required_if" {
			return apperrors.New(apperrors.InvalidInput, "텔레그램 봇 활성화 시 BotToken(bot_token)은 필수입니다")
		}
		return apperrors.New(apperrors.InvalidInput, "텔레그램 BotToken 형식이 올바르지 않습니다 (올바른 형식: 123456:ABC-DEF...)")
	case "WebAppURL":
		if firstErr.Tag() == "required_if" {
			return apperrors.New(apperrors.InvalidInput, "텔레그램 봇 활성화 시 Mini App 주소(webapp_url)는 필수입니다")
		}
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("Mini App 주소(webapp_url)가 유효한 URL이 아닙니다: '%v'", firstErr.Value()))
	}

	// 태그별(Tag) 커스텀 에러 처리 (범용)
	switch firstErr.Tag() {
	case "unique":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s 내에 중복된 %s 값이 존재합니다 (설정 값을 확인해주세요)", contextName, firstErr.Field()))
	case "cors_origin":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("CORS Origin 형식이 올바르지 않습니다: '%v' (형식: Scheme://Host[:Port], 예: https://example.com)", firstErr.Value()))
	}

	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Field(), firstErr.Tag()))
}
