// Package scheduler 카탈로그 통계 스냅샷을 Cron 스케줄에 맞춰 주기적으로 갱신하는 서비스입니다.
//
// /api/stats와 텔레그램 봇의 관리자 통계 경로는 스냅샷을 조회하므로,
// 주기 갱신을 켜 두면 해당 경로들이 상위 API를 직접 두드리지 않습니다.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/catalog-server/internal/config"
	"github.com/darkkaiser/catalog-server/pkg/cronx"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
	"github.com/robfig/cron/v3"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// refreshTimeout 스냅샷 갱신 1회에 허용되는 최대 시간입니다.
// 상위 API의 요청 속도 제어로 인해 갱신이 길어질 수 있으므로 여유있게 설정합니다.
const refreshTimeout = 2 * time.Minute

// ErrRefresherNotInitialized 서비스 시작 시 핵심 의존성 객체인 Refresher가 올바르게 초기화되지 않았을 때 반환하는 에러입니다.
var ErrRefresherNotInitialized = apperrors.New(apperrors.Internal, "Refresher 객체가 초기화되지 않았습니다")

// Refresher 카탈로그 통계 스냅샷 갱신 기능입니다. *catalog.Catalog이 구현합니다.
type Refresher interface {
	RefreshStats(ctx context.Context) error
}

// Scheduler 설정된 Cron 스케줄에 맞춰 카탈로그 스냅샷을 갱신하는 서비스입니다.
type Scheduler struct {
	refreshConfig config.RefreshConfig

	cron *cron.Cron

	refresher Refresher

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 Scheduler 서비스 인스턴스를 생성합니다.
func NewService(appConfig *config.AppConfig, refresher Refresher) *Scheduler {
	if appConfig == nil {
		panic("AppConfig 객체는 nil이 될 수 없습니다")
	}
	if refresher == nil {
		panic("Refresher 객체는 nil이 될 수 없습니다")
	}

	return &Scheduler{
		refreshConfig: appConfig.Catalog.Refresh,

		refresher: refresher,
	}
}

// Start 스케줄러를 시작하고 스냅샷 갱신 작업을 Cron 엔진에 등록합니다.
//
// 갱신 스케줄이 비활성화된 설정(runnable=false)에서는 경고 로그만 남기고 정상 반환합니다.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("Scheduler 서비스 시작중...")

	if s.refresher == nil {
		serviceStopWG.Done()
		return ErrRefresherNotInitialized
	}

	if !s.refreshConfig.Runnable {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("카탈로그 갱신 스케줄이 비활성화되어 있어 Scheduler 서비스를 시작하지 않습니다")
		return nil
	}

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 시작됨!!!")
		return nil
	}

	// Cron 엔진 초기화
	// - StandardParser: 초 단위 스케줄링 지원 (6개 필드: 초 분 시 일 월 요일)
	// - Recover: Panic 발생 시 복구하여 엔진이 중단되지 않음
	// - SkipIfStillRunning: 이전 갱신이 끝나지 않았으면 다음 갱신을 건너뜀
	s.cron = cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(cron.VerbosePrintfLogger(applog.StandardLogger())),
		cron.WithChain(
			cron.Recover(cron.VerbosePrintfLogger(applog.StandardLogger())),
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(applog.StandardLogger())),
		),
	)

	if _, err := s.cron.AddFunc(s.refreshConfig.TimeSpec, s.refresh); err != nil {
		serviceStopWG.Done()
		s.cron = nil
		return apperrors.Wrap(err, apperrors.InvalidInput,
			"스케줄 등록 실패: 잘못된 Cron 표현식입니다 (TimeSpec: "+s.refreshConfig.TimeSpec+")")
	}

	s.cron.Start()
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"time_spec": s.refreshConfig.TimeSpec,
	}).Info("Scheduler 서비스 시작됨")

	// 종료 신호 대기 (고루틴)
	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.Stop()
	}()

	return nil
}

// Stop 실행 중인 스케줄러를 안전하게 중지합니다.
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("Scheduler 서비스 중지중...")

	// Cron 엔진 중지 및 실행 중인 갱신 작업 완료 대기
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}

	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("Scheduler 서비스 중지됨")
}

// refresh 카탈로그 통계 스냅샷을 1회 갱신합니다.
//
// 갱신 요청의 생명주기는 서비스 종료 시그널과 분리되어 있습니다.
// cron.Stop()이 실행 중인 작업의 완료를 대기하므로, 갱신 도중 컨텍스트 취소로 인한
// 강제 중단 대신 자체 타임아웃으로 무한 대기만 방지합니다.
func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	startTime := time.Now()

	if err := s.refresher.RefreshStats(ctx); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("카탈로그 스냅샷 갱신 실패: 다음 스케줄에 재시도됩니다")
		return
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"elapsed": time.Since(startTime).String(),
	}).Debug("카탈로그 스냅샷 갱신 완료")
}
