package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// okFetcher 항상 200 OK를 반환하는 테스트용 하위 체인입니다.
type okFetcher struct {
	calls int
}

func (f *okFetcher) Do(_ *http.Request) (*http.Response, error) {
	f.calls++
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewBufferString("{}")),
	}, nil
}

func (f *okFetcher) Close() error { return nil }

func TestThrottleFetcher_Reserve(t *testing.T) {
	current := time.Unix(1000, 0)

	f := NewThrottleFetcher(&okFetcher{}, 500*time.Millisecond, 3, 3*time.Second)
	f.now = func() time.Time { return current }

	// 첫 번째 요청은 즉시 통과한다.
	wait, ok := f.reserve()
	require.True(t, ok)
	assert.Zero(t, wait)

	// 최소 간격(500ms) 이내의 두 번째 요청은 남은 간격만큼 대기해야 한다.
	current = current.Add(100 * time.Millisecond)
	wait, ok = f.reserve()
	require.False(t, ok)
	assert.Equal(t, 400*time.Millisecond, wait)

	// 간격이 지나면 통과한다.
	current = current.Add(400 * time.Millisecond)
	_, ok = f.reserve()
	require.True(t, ok)

	// 윈도우 한도(3)까지 통과시킨다.
	current = current.Add(500 * time.Millisecond)
	_, ok = f.reserve()
	require.True(t, ok)

	// 한도 초과: 윈도우가 초기화될 때까지 대기해야 한다.
	current = current.Add(500 * time.Millisecond)
	wait, ok = f.reserve()
	require.False(t, ok)
	assert.Equal(t, 1500*time.Millisecond, wait) // 윈도우 시작(t=1000s) + 3s - 현재(t=1001.5s)

	// 윈도우가 초기화되면 다시 통과한다.
	current = current.Add(1500 * time.Millisecond)
	_, ok = f.reserve()
	require.True(t, ok)
}

func TestThrottleFetcher_WindowResetsAfterDuration(t *testing.T) {
	current := time.Unix(2000, 0)

	f := NewThrottleFetcher(&okFetcher{}, time.Millisecond, 2, time.Second)
	f.now = func() time.Time { return current }

	_, ok := f.reserve()
	require.True(t, ok)

	current = current.Add(500 * time.Millisecond)
	_, ok = f.reserve()
	require.True(t, ok)

	// 윈도우 소진
	current = current.Add(100 * time.Millisecond)
	_, ok = f.reserve()
	require.False(t, ok)

	// 윈도우 길이(1초) 경과 후 새 윈도우에서 통과
	current = current.Add(500 * time.Millisecond)
	_, ok = f.reserve()
	require.True(t, ok)
}

func TestThrottleFetcher_DoWaitsForInterval(t *testing.T) {
	delegate := &okFetcher{}
	f := NewThrottleFetcher(delegate, 50*time.Millisecond, 100, time.Minute)

	req, _ := http.NewRequest(http.MethodGet, "http://upstream.test/entity/product", nil)

	start := time.Now()
	for range 3 {
		resp, err := f.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	// 요청 3건 사이에 최소 간격 2회(약 100ms)가 보장되어야 한다.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 3, delegate.calls)
}

func TestThrottleFetcher_ContextCancelDuringWait(t *testing.T) {
	f := NewThrottleFetcher(&okFetcher{}, 10*time.Second, 100, time.Minute)

	// 첫 요청으로 간격 타이머를 점유시킨다.
	warmup, _ := http.NewRequest(http.MethodGet, "http://upstream.test/entity/product", nil)
	resp, err := f.Do(warmup)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://upstream.test/entity/product", nil)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = f.Do(req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), time.Second)
}

func TestThrottleFetcher_DefaultsApplied(t *testing.T) {
	f := NewThrottleFetcher(&okFetcher{}, 0, 0, 0)

	assert.Equal(t, defaultMinRequestInterval, f.minInterval)
	assert.Equal(t, defaultWindowLimit, f.windowLimit)
	assert.Equal(t, defaultWindowDuration, f.windowDuration)
}
