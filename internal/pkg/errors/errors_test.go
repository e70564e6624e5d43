package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
)

func TestNew(t *testing.T) {
	err := apperrors.New(apperrors.NotFound, "상품을 찾을 수 없습니다")

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.NotFound, appErr.Type())
	assert.Equal(t, "상품을 찾을 수 없습니다", appErr.Message())
	assert.Equal(t, "[NotFound] 상품을 찾을 수 없습니다", err.Error())
	assert.NotEmpty(t, appErr.Stack())
}

func TestNewf(t *testing.T) {
	err := apperrors.Newf(apperrors.InvalidInput, "잘못된 page 값: %d", -1)
	assert.Equal(t, "[InvalidInput] 잘못된 page 값: -1", err.Error())
}

func TestWrap(t *testing.T) {
	rootErr := stderrors.New("connection refused")
	err := apperrors.Wrap(rootErr, apperrors.System, "상품 목록 조회 실패")

	assert.Equal(t, "[System] 상품 목록 조회 실패: connection refused", err.Error())
	assert.Equal(t, rootErr, apperrors.RootCause(err))
}

func TestWrap_NilCause(t *testing.T) {
	assert.Nil(t, apperrors.Wrap(nil, apperrors.System, "무시됨"))
	assert.Nil(t, apperrors.Wrapf(nil, apperrors.System, "무시됨 %d", 1))
}

func TestIs(t *testing.T) {
	err := apperrors.Wrap(
		apperrors.New(apperrors.RateLimited, "요청 한도 초과"),
		apperrors.ExecutionFailed, "카탈로그 동기화 실패",
	)

	assert.True(t, apperrors.Is(err, apperrors.RateLimited))
	assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))
	assert.False(t, apperrors.Is(err, apperrors.NotFound))
	assert.False(t, apperrors.Is(nil, apperrors.RateLimited))
}

func TestUnderlyingType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected apperrors.ErrorType
	}{
		{
			"단일 AppError",
			apperrors.New(apperrors.Forbidden, "권한 없음"),
			apperrors.Forbidden,
		},
		{
			"AppError 체인은 가장 안쪽 타입을 반환",
			apperrors.Wrap(apperrors.New(apperrors.PreconditionFailed, "412"), apperrors.ExecutionFailed, "호출 실패"),
			apperrors.PreconditionFailed,
		},
		{
			"외부 에러 래핑",
			apperrors.Wrap(stderrors.New("plain"), apperrors.Timeout, "시간 초과"),
			apperrors.Timeout,
		},
		{
			"AppError가 없는 체인",
			stderrors.New("plain"),
			apperrors.Unknown,
		},
		{
			"nil",
			nil,
			apperrors.Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, apperrors.UnderlyingType(tt.err))
		})
	}
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "RateLimited", apperrors.RateLimited.String())
	assert.Equal(t, "PreconditionFailed", apperrors.PreconditionFailed.String())
	assert.Equal(t, "Unknown", apperrors.ErrorType(9999).String())
}

func TestFormat_Verbose(t *testing.T) {
	rootErr := stderrors.New("disk full")
	err := apperrors.Wrap(rootErr, apperrors.System, "설정 파일 저장 실패")

	formatted := fmt.Sprintf("%+v", err)
	assert.Contains(t, formatted, "[System] 설정 파일 저장 실패")
	assert.Contains(t, formatted, "Stack trace:")
	assert.Contains(t, formatted, "Caused by:")
	assert.Contains(t, formatted, "disk full")
}

func TestFormat_Quoted(t *testing.T) {
	err := apperrors.New(apperrors.NotFound, "이미지 없음")
	assert.Equal(t, `"[NotFound] 이미지 없음"`, fmt.Sprintf("%q", err))
}
