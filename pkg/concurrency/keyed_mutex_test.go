package concurrency_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/catalog-server/pkg/concurrency"
)

func TestKeyedMutex_LockUnlock(t *testing.T) {
	km := concurrency.NewKeyedMutex()

	km.Lock("a")
	assert.Equal(t, 1, km.Len())

	km.Unlock("a")
	assert.Equal(t, 0, km.Len(), "해제 이후에는 키가 정리되어야 함")
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := concurrency.NewKeyedMutex()

	km.Lock("a")
	defer km.Unlock("a")

	done := make(chan struct{})
	go func() {
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("다른 키에 대한 락 획득이 차단됨")
	}
}

func TestKeyedMutex_SameKeySerializes(t *testing.T) {
	km := concurrency.NewKeyedMutex()

	const workers = 16
	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			km.Lock("shared")
			defer km.Unlock("shared")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
	assert.Equal(t, 0, km.Len())
}

func TestKeyedMutex_UnlockWithoutLockPanics(t *testing.T) {
	km := concurrency.NewKeyedMutex()

	require.Panics(t, func() {
		km.Unlock("never-locked")
	})
}
