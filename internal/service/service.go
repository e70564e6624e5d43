package service

import (
	"context"
	"sync"
)

// Service 애플리케이션을 구성하는 장기 실행 서비스가 구현해야 하는 인터페이스입니다.
//
// serviceStopCtx가 취소되면 서비스는 내부 작업을 정리하고 종료해야 하며,
// 종료가 완료된 시점에 serviceStopWG.Done()을 호출하여 메인 고루틴에 알립니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
