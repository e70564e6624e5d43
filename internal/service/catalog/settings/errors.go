package settings

import (
	"fmt"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
)

// NewErrAbsPathConversionFailed 저장소 초기화 시 설정 파일 경로를 절대 경로로 변환하는 데 실패했을 때 반환하는 에러를 생성합니다.
func NewErrAbsPathConversionFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "설정 저장소 초기화 실패: 절대 경로 변환 불가")
}

// NewErrJSONMarshalFailed 카테고리 노출 설정을 JSON으로 직렬화하는 데 실패했을 때 반환하는 에러를 생성합니다.
func NewErrJSONMarshalFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "설정 저장 실패: 카테고리 노출 설정 직렬화(JSON Marshal) 중 오류가 발생했습니다")
}

// NewErrDirectoryCreationFailed 설정 저장 시 저장 디렉토리 생성에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrDirectoryCreationFailed(err error, dir string) error {
	return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("설정 저장 실패: 저장 디렉토리 생성 중 오류가 발생했습니다 (%s)", dir))
}

// NewErrTempFileCreationFailed 설정 저장 시 임시 파일 생성에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrTempFileCreationFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "설정 저장 실패: 임시 파일 생성 중 오류가 발생했습니다")
}

// NewErrFileWriteFailed 설정 저장 시 파일 쓰기에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrFileWriteFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "설정 저장 실패: 파일 쓰기 중 오류가 발생했습니다")
}

// NewErrFileSyncFailed 설정 저장 시 파일 내용의 디스크 동기화(fsync)에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrFileSyncFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "설정 저장 실패: 파일 동기화(fsync) 중 오류가 발생했습니다")
}

// NewErrFileCloseFailed 설정 저장 시 임시 파일 닫기에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrFileCloseFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "설정 저장 실패: 임시 파일 닫기 중 오류가 발생했습니다")
}

// NewErrFileRenameFailed 설정 저장 시 임시 파일을 최종 파일로 바꾸는 과정에서 실패했을 때 반환하는 에러를 생성합니다.
func NewErrFileRenameFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "설정 저장 실패: 파일 이름 변경 중 오류가 발생했습니다")
}

// NewErrSettingsFileRemoveFailed 설정 초기화 시 설정 파일 삭제에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrSettingsFileRemoveFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "설정 초기화 실패: 설정 파일 삭제 중 오류가 발생했습니다")
}
