package bot

import (
	"context"
	"sync"
	"time"

	applog "github.com/darkkaiser/catalog-server/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// run 텔레그램 봇의 메인 실행 루프를 시작합니다.
//
// Long Polling 방식으로 텔레그램 서버로부터 업데이트를 수신하고,
// 수신한 명령어와 콜백 쿼리를 별도 고루틴으로 디스패치하여 Non-blocking으로 처리합니다.
// 세마포어로 동시 실행 수를 제한하여 과부하를 방지합니다 (Backpressure).
//
// serviceStopCtx 취소 또는 업데이트 채널 닫힘 시 정상 종료되며,
// defer cleanup()을 통해 실행 중인 명령어 처리 고루틴이 모두 종료될 때까지 대기합니다.
func (b *bot) run(serviceStopCtx context.Context) {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = longPollTimeout

	// 주의: GetUpdatesChan()은 내부적으로 별도 고루틴을 생성하여 지속적으로 업데이트를 가져옵니다.
	updateC := b.client.GetUpdatesChan(config)

	applog.WithComponentAndFields(component, applog.Fields{
		"bot_username": b.client.GetSelf().UserName,
	}).Debug("텔레그램 봇 시작됨: Long Polling 활성화")

	var wg sync.WaitGroup
	defer b.cleanup(&wg)

	b.receiveAndDispatch(serviceStopCtx, updateC, &wg)
}

// receiveAndDispatch 텔레그램 서버로부터 업데이트를 수신하고 처리 고루틴으로 디스패치합니다.
//
// 처리 파이프라인:
//
//  1. 채널 닫힘 감지 → cleanup 시작
//  2. 유효성 검사 → 텍스트 메시지와 콜백 쿼리만 처리
//  3. 세마포어 기반 디스패치 → 용량 초과 시 요청 Drop
func (b *bot) receiveAndDispatch(serviceStopCtx context.Context, updateC tgbotapi.UpdatesChannel, wg *sync.WaitGroup) {
	for {
		select {
		case update, ok := <-updateC:
			// 채널이 닫히면 더 이상 업데이트를 받을 수 없으므로 루프를 종료합니다.
			if !ok {
				applog.WithComponent(component).Error("Long Polling 채널 종료됨: 업데이트 수신 루프 종료")
				return
			}

			// 텍스트 메시지와 콜백 쿼리 외의 업데이트(스티커, 사진 등)는 무시합니다.
			if update.Message == nil && update.CallbackQuery == nil {
				continue
			}

			// 명령어 처리(상위 API 조회 등)가 오래 걸릴 수 있으므로
			// 별도 고루틴으로 실행하여 수신 루프를 차단하지 않습니다.
			select {
			case b.commandSemaphore <- struct{}{}:
				wg.Add(1)
				go func(update tgbotapi.Update) {
					defer wg.Done()
					defer func() { <-b.commandSemaphore }()
					b.dispatchUpdate(serviceStopCtx, update)
				}(update)

			case <-serviceStopCtx.Done():
				return

			default:
				// 세마포어가 꽉 찼다면 동시 실행 중인 명령어가 최대치에 도달한 상태입니다.
				// 시스템 보호를 위해 새로운 요청을 드롭하고 경고 로그를 남깁니다.
				applog.WithComponentAndFields(component, applog.Fields{
					"semaphore_capacity": cap(b.commandSemaphore),
					"active_commands":    len(b.commandSemaphore),
				}).Warn("명령어 처리 용량 초과로 요청 드롭됨: 빈번 발생 시 세마포어 용량 증가 검토 필요")
			}

		case <-serviceStopCtx.Done():
			return
		}
	}
}

// cleanup run 메서드 종료 시 모든 리소스를 안전하게 정리합니다.
//
// 정리 순서:
//
//  1. 신규 업데이트 수신 중단 (StopReceivingUpdates)
//  2. 실행 중인 명령어 처리 고루틴 종료 대기 (타임아웃 적용)
//  3. 클라이언트 참조 해제
func (b *bot) cleanup(wg *sync.WaitGroup) {
	if b.client != nil {
		b.client.StopReceivingUpdates()
	}

	b.waitForGoroutines(wg)

	b.client = nil

	applog.WithComponent(component).Debug("텔레그램 봇 종료됨: 모든 고루틴 정리 완료")
}

// waitForGoroutines 실행 중인 명령어 처리 고루틴이 모두 종료될 때까지 대기합니다.
// 네트워크 문제 등으로 고루틴이 무한 대기하는 경우에 대비하여 타임아웃을 적용합니다.
func (b *bot) waitForGoroutines(wg *sync.WaitGroup) {
	goroutinesDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(goroutinesDone)
	}()

	select {
	case <-goroutinesDone:
		applog.WithComponent(component).Debug("Graceful Shutdown 완료: 모든 명령어 처리 고루틴 정상 종료됨")
	case <-time.After(shutdownTimeout):
		applog.WithComponentAndFields(component, applog.Fields{
			"timeout": shutdownTimeout,
		}).Error("Graceful Shutdown 타임아웃: 일부 고루틴 강제 종료됨, 좀비 고루틴 발생 가능")
	}
}
