// Package validation 설정 값 검증에 사용되는 공용 검사 함수들을 제공합니다.
package validation

import (
	"fmt"
	"os"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
)

// ValidateFileExists 파일 존재 여부를 검사합니다.
// warnOnly가 true면 경고만 출력하고 에러는 반환하지 않습니다.
func ValidateFileExists(path string, warnOnly bool) error {
	if path == "" {
		return nil // 빈 경로는 검사하지 않음
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			errMsg := apperrors.New(apperrors.NotFound, fmt.Sprintf("파일이 존재하지 않습니다: %s", path))
			if warnOnly {
				applog.WithComponentAndFields("validation", applog.Fields{
					"file_path": path,
				}).Warn(errMsg.Error())
				return nil
			}
			return errMsg
		}
		return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("파일 접근 오류: %s", path))
	}
	return nil
}

// ValidateDirWritable 디렉토리가 존재하며 쓰기 가능한지 검사합니다.
// 디렉토리가 없는 경우 생성을 시도합니다.
func ValidateDirWritable(dir string) error {
	if dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("디렉토리 생성 실패: %s", dir))
	}

	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("디렉토리에 쓰기 권한이 없습니다: %s", dir))
	}
	probeName := probe.Name()
	_ = probe.Close()
	_ = os.Remove(probeName)

	return nil
}
