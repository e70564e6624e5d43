// Package concurrency는 동시성 제어를 위한 보조 타입들을 제공합니다.
package concurrency

import (
	"sync"
)

// KeyedMutex 키별로 독립적인 Mutex를 제공하는 구조체입니다.
// 서로 다른 키에 대한 작업은 병렬로 처리될 수 있으며,
// 참조 카운트를 사용하여 더 이상 사용되지 않는 Mutex를 메모리에서 정리합니다.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
	pool  sync.Pool
}

type lockEntry struct {
	mu       sync.Mutex
	refCount int
}

// NewKeyedMutex 새로운 KeyedMutex 인스턴스를 생성합니다.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*lockEntry),
		pool: sync.Pool{
			New: func() interface{} {
				return &lockEntry{}
			},
		},
	}
}

// Len 현재 활성화된(락이 잡혀있거나 대기 중인) 키의 개수를 반환합니다.
func (km *KeyedMutex) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.locks)
}

// Lock 지정된 키에 대한 락을 획득합니다.
func (km *KeyedMutex) Lock(key string) {
	km.mu.Lock()
	e, ok := km.locks[key]
	if !ok {
		e = km.pool.Get().(*lockEntry)
		e.refCount = 1
		km.locks[key] = e
	} else {
		e.refCount++
	}
	km.mu.Unlock()

	e.mu.Lock()
}

// Unlock 지정된 키에 대한 락을 해제합니다.
// 락이 걸려있지 않은 키에 대해 Unlock을 호출하면 런타임 패닉이 발생합니다.
func (km *KeyedMutex) Unlock(key string) {
	km.mu.Lock()
	defer km.mu.Unlock()

	e, ok := km.locks[key]
	if !ok {
		panic("잠기지 않은 KeyedMutex의 잠금 해제 시도")
	}

	e.mu.Unlock()

	e.refCount--
	if e.refCount <= 0 {
		delete(km.locks, key)
		km.pool.Put(e)
	}
}
