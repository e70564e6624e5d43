// Package log는 logrus 기반의 전역 로깅 시스템을 구성합니다.
//
// 로그는 레벨에 따라 Main, Critical, Verbose 파일로 분산 저장되며,
// 각 파일은 lumberjack을 통해 크기/보관일 기준으로 로테이션됩니다.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// 생성되는 로그 파일의 기본 확장자
	fileExt = "log"

	// 기본 로그 로테이션 정책
	defaultMaxSizeMB  = 100 // 로그 파일 하나당 최대 크기 (단위: MB)
	defaultMaxBackups = 20  // 로테이션 된 로그 파일의 최대 보관 개수
)

var (
	// Setup() 함수의 중복 호출을 방지하기 위한 동기화 객체
	setupOnce sync.Once

	// 전역 로깅 리소스의 해제 객체(Closer)를 보관합니다.
	globalCloser io.Closer

	// 로깅 시스템 초기화 단계에서 발생한 에러를 보관합니다.
	// 초기화에 실패한 경우, 이후 Setup()이 재호출되더라도 재시도하지 않고 최초의 에러를 그대로 반환합니다.
	globalSetupErr error
)

// Setup 전역 로깅 시스템을 초기화하고 설정된 옵션에 따라 파일 출력을 구성합니다.
//
// 주의:
//   - 애플리케이션 시작 시점(main 함수 도입부)에 호출하는 것을 권장합니다.
//   - 반환된 Closer는 반드시 defer를 통해 리소스가 해제되도록 보장해야 합니다.
func Setup(opts Options) (io.Closer, error) {
	setupOnce.Do(func() {
		globalCloser, globalSetupErr = setupInternal(opts)
	})

	return globalCloser, globalSetupErr
}

// setupInternal 실제 로깅 시스템 초기화 로직을 수행합니다.
// 이 함수는 Setup()에서 sync.Once를 통해 단 한 번만 호출됩니다.
func setupInternal(opts Options) (io.Closer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("유효하지 않은 로그 설정: %w", err)
	}

	level := opts.Level
	if level == 0 {
		level = InfoLevel
	}
	logrus.SetLevel(level)

	logrus.SetReportCaller(opts.ReportCaller)

	// Logrus는 io.Discard라도 포맷팅을 수행하므로, 이를 막기 위해 아무것도 안 하는 포맷터를 설정합니다.
	logrus.SetFormatter(&silentFormatter{})

	// 실제 파일/콘솔 출력에 사용할 TextFormatter를 설정합니다. (hook에서 사용)
	textFormatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			function = frame.Function + "(line:" + strconv.Itoa(frame.Line) + ")"
			if opts.CallerPathPrefix != "" {
				if cut, found := strings.CutPrefix(function, opts.CallerPathPrefix); found {
					function = "..." + cut
				}
			}
			return
		},
	}

	// 로그 저장 경로가 명시되지 않은 경우, 실행 위치의 'logs' 디렉토리를 기본값으로 사용합니다.
	logDir := opts.Dir
	if logDir == "" {
		logDir = "logs"
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("로그 디렉토리 생성 실패: %w", err)
	}

	maxSize := opts.MaxSizeMB
	if maxSize == 0 {
		maxSize = defaultMaxSizeMB
	}
	maxBackups := opts.MaxBackups
	if maxBackups == 0 {
		maxBackups = defaultMaxBackups
	}

	// Logrus의 기본 출력(os.Stderr)은 비활성화하고, 모든 로그 처리를 Hook 시스템에 위임합니다.
	logrus.SetOutput(io.Discard)

	var consoleWriter io.Writer
	if opts.EnableConsoleLog {
		consoleWriter = os.Stdout
	}

	// 생성된 리소스(파일 핸들 등)를 추적하여, 초기화 실패 시 롤백하거나 종료 시 해제하기 위해 사용합니다.
	var closers []io.Closer
	succeeded := false

	defer func() {
		if !succeeded {
			for _, c := range closers {
				if c != nil {
					_ = c.Close()
				}
			}
		}
	}()

	newRotatingLogger := func(suffix string) *lumberjack.Logger {
		name := opts.Name
		if suffix != "" {
			name += "." + suffix
		}
		return &lumberjack.Logger{
			Filename:   filepath.Join(logDir, fmt.Sprintf("%s.%s", name, fileExt)),
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   false,
			LocalTime:  true,
		}
	}

	mainLogger := newRotatingLogger("")
	closers = append(closers, mainLogger)

	var criticalLogger, verboseLogger *lumberjack.Logger

	if opts.EnableCriticalLog {
		criticalLogger = newRotatingLogger("critical")
		closers = append(closers, criticalLogger)
	}

	if opts.EnableVerboseLog {
		verboseLogger = newRotatingLogger("verbose")
		closers = append(closers, verboseLogger)
	}

	// 메인 로그, 중요 로그(Critical), 상세 로그(Verbose), 콘솔 출력을 중앙에서 분배할 Hook을 생성합니다.
	h := &hook{
		mainWriter: mainLogger,
		formatter:  textFormatter,
	}
	if criticalLogger != nil {
		h.criticalWriter = criticalLogger
	}
	if verboseLogger != nil {
		h.verboseWriter = verboseLogger
	}
	if consoleWriter != nil {
		h.consoleWriter = consoleWriter
	}

	logrus.AddHook(h)

	succeeded = true

	c := &closer{
		closers: closers,
		hook:    h,
	}

	// Fatal 로그 발생 시(os.Exit 호출 직전) 버퍼에 남은 로그를 디스크에 쓰고 리소스를 안전하게 해제합니다.
	logrus.RegisterExitHandler(func() {
		_ = c.Close()
	})

	return c, nil
}

// SetDebugMode Debug 모드에 따라 전역 로그 레벨을 조정합니다.
//   - Debug 모드: Trace 레벨 (모든 로그 출력)
//   - 운영 모드: Info 레벨 (Info, Warn, Error, Fatal만 출력)
func SetDebugMode(debug bool) {
	if debug {
		logrus.SetLevel(logrus.TraceLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// MaskSensitiveData 민감한 정보를 마스킹합니다.
// 토큰, 키 등의 민감 정보를 안전하게 로깅하기 위해 사용합니다.
func MaskSensitiveData(data string) string {
	if data == "" {
		return ""
	}

	// 3자 이하는 전체 마스킹
	if len(data) <= 3 {
		return "***"
	}

	// 앞 4자만 표시하고 나머지는 마스킹
	if len(data) <= 12 {
		return data[:4] + "***"
	}

	// 긴 토큰은 앞 4자 + 마스킹 + 뒤 4자
	return data[:4] + "***" + data[len(data)-4:]
}

// WithComponent component 필드를 포함한 로그 Entry를 반환합니다.
// 모든 로그에 component 필드를 일관되게 추가하기 위해 사용합니다.
func WithComponent(component string) *Entry {
	return logrus.WithFields(Fields{
		"component": component,
	})
}

// WithComponentAndFields component 필드와 추가 필드를 포함한 로그 Entry를 반환합니다.
func WithComponentAndFields(component string, fields Fields) *Entry {
	newFields := make(Fields, len(fields)+1)
	for k, v := range fields {
		newFields[k] = v
	}
	newFields["component"] = component
	return logrus.WithFields(newFields)
}
