// Package settings 카테고리 노출 설정의 보관과 조회를 담당합니다.
//
// 설정은 단일 JSON 파일(카테고리 ID -> 노출 여부 매핑)로 보관되며,
// 매핑에 존재하지 않는 카테고리는 항상 노출되는 것으로 간주합니다.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/darkkaiser/catalog-server/pkg/concurrency"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
)

// component Catalog 서비스의 설정 저장소 로깅용 컴포넌트 이름
const component = "catalog.settings"

// tempFilePattern 설정 파일 저장 시 사용되는 임시 파일의 이름 패턴입니다.
const tempFilePattern = "category-settings-*.tmp"

// Settings 카테고리 ID별 노출 여부 매핑입니다.
// 매핑에 없는 카테고리는 노출(true)로 간주합니다.
type Settings map[string]bool

// Store 카테고리 노출 설정을 파일 시스템에 보관하는 저장소입니다.
//
// 설정 전체를 메모리에 상주시켜 조회는 파일 I/O 없이 처리하고,
// 변경 시에만 원자적 쓰기(임시 파일 쓰기 -> fsync -> rename)로 파일에 반영합니다.
type Store struct {
	path string

	// locks 동일한 파일에 대한 동시 쓰기를 방지하기 위한 파일별 뮤텍스입니다.
	locks *concurrency.KeyedMutex

	mu       sync.RWMutex
	settings Settings
}

// NewStore 지정된 경로의 설정 파일을 읽어 저장소를 초기화합니다.
//
// 설정 파일이 없거나 손상된 경우에도 에러를 반환하지 않고 빈 설정으로
// 동작합니다. 설정 부재는 "모든 카테고리 노출"이라는 유효한 상태이기 때문입니다.
func NewStore(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, NewErrAbsPathConversionFailed(err)
	}

	s := &Store{
		path:  absPath,
		locks: concurrency.NewKeyedMutex(),
	}
	s.settings = s.loadFromDisk()

	return s, nil
}

// loadFromDisk 설정 파일을 읽어 매핑을 복원합니다.
// 파일 부재와 손상은 모두 빈 설정으로 처리됩니다.
func (s *Store) loadFromDisk() Settings {
	lockKey := s.lockKey()
	s.locks.Lock(lockKey)
	data, err := os.ReadFile(s.path)
	s.locks.Unlock(lockKey)

	if err != nil {
		if !os.IsNotExist(err) {
			applog.WithComponentAndFields(component, applog.Fields{
				"file":  s.path,
				"error": err,
			}).Warn("카테고리 노출 설정 파일 읽기 실패: 빈 설정으로 동작합니다")
		}
		return Settings{}
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"file":  s.path,
			"error": err,
		}).Warn("카테고리 노출 설정 파일이 손상되어 빈 설정으로 동작합니다")

		return Settings{}
	}
	if settings == nil {
		settings = Settings{}
	}

	return settings
}

// All 현재 설정 전체의 복사본을 반환합니다.
func (s *Store) All() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make(Settings, len(s.settings))
	for id, visible := range s.settings {
		copied[id] = visible
	}
	return copied
}

// IsVisible 지정된 카테고리의 노출 여부를 반환합니다.
// 설정에 없는 카테고리는 노출되는 것으로 간주합니다.
func (s *Store) IsVisible(categoryID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visible, ok := s.settings[categoryID]
	if !ok {
		return true
	}
	return visible
}

// HiddenIDs 숨김 처리된 카테고리 ID 목록을 정렬하여 반환합니다.
func (s *Store) HiddenIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, visible := range s.settings {
		if !visible {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	return ids
}

// SetVisible 단일 카테고리의 노출 여부를 변경하고 파일에 반영합니다.
func (s *Store) SetVisible(categoryID string, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make(Settings, len(s.settings)+1)
	for id, v := range s.settings {
		updated[id] = v
	}
	updated[categoryID] = visible

	if err := s.persist(updated); err != nil {
		return err
	}
	s.settings = updated

	return nil
}

// Save 설정 전체를 교체하고 파일에 반영합니다.
func (s *Store) Save(settings Settings) error {
	if settings == nil {
		settings = Settings{}
	}

	copied := make(Settings, len(settings))
	for id, visible := range settings {
		copied[id] = visible
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(copied); err != nil {
		return err
	}
	s.settings = copied

	return nil
}

// Reset 모든 설정을 삭제하여 전체 카테고리 노출 상태로 되돌립니다.
// 설정 파일이 존재하지 않는 경우도 정상 처리됩니다.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockKey := s.lockKey()
	s.locks.Lock(lockKey)
	err := os.Remove(s.path)
	s.locks.Unlock(lockKey)

	if err != nil && !os.IsNotExist(err) {
		return NewErrSettingsFileRemoveFailed(err)
	}
	s.settings = Settings{}

	return nil
}

// persist 설정을 JSON으로 직렬화하여 원자적으로 파일에 기록합니다.
// 호출자는 s.mu 쓰기 락을 보유하고 있어야 합니다.
func (s *Store) persist(settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "\t")
	if err != nil {
		return NewErrJSONMarshalFailed(err)
	}

	lockKey := s.lockKey()
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	return s.writeAtomic(data)
}

// lockKey 대소문자를 구분하지 않는 파일 시스템을 위해 락 키를 소문자로 정규화합니다.
func (s *Store) lockKey() string {
	return strings.ToLower(s.path)
}

// writeAtomic 데이터를 설정 파일에 원자적으로 저장합니다.
//
// 저장 중 시스템 장애가 발생해도 기존 설정 파일이 손상되지 않도록
// "임시 파일 쓰기 -> 동기화(fsync) -> 원자적 이름 변경(rename)" 전략을 사용합니다.
func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return NewErrDirectoryCreationFailed(err, dir)
	}

	// 같은 디렉토리 내에 생성해야 rename이 원자적으로 동작합니다.
	tmpFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return NewErrTempFileCreationFailed(err)
	}
	tmpPath := tmpFile.Name()

	// Windows에서는 열린 파일을 삭제할 수 없으므로 Close가 Remove보다 먼저 실행되어야 합니다.
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return NewErrFileWriteFailed(err)
	}

	// 운영체제 버퍼 캐시에만 기록된 상태에서 전원이 차단되는 것을 방지합니다.
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return NewErrFileSyncFailed(err)
	}

	// Windows에서는 파일이 열려 있으면 rename이 실패하므로 반드시 닫아야 합니다.
	if err := tmpFile.Close(); err != nil {
		return NewErrFileCloseFailed(err)
	}

	if err := renameWithRetry(tmpPath, s.path); err != nil {
		return NewErrFileRenameFailed(err)
	}

	// 파일명 변경 사항을 디스크에 기록하기 위한 부모 디렉토리 동기화.
	// 실패해도 치명적이지 않으므로 에러를 무시합니다.
	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		dirFile.Close()
	}

	return nil
}

// renameWithRetry 파일 이름 변경을 재시도 로직과 함께 수행합니다.
// Windows의 백신이나 인덱서가 파일을 일시적으로 점유하는 경우를 우회합니다.
func renameWithRetry(oldPath, newPath string) error {
	const maxRetries = 5
	const retryDelay = 10 * time.Millisecond

	var lastErr error
	for range maxRetries {
		err := os.Rename(oldPath, newPath)
		if err == nil {
			return nil
		}

		lastErr = err
		time.Sleep(retryDelay)
	}

	return lastErr
}
