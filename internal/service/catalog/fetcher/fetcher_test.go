package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	"github.com/darkkaiser/catalog-server/internal/service/catalog/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestChain 테스트 서버를 대상으로 빠르게 동작하는 전체 체인을 생성합니다.
func newTestChain() fetcher.Fetcher {
	return fetcher.NewChain(fetcher.Config{
		Timeout:            5 * time.Second,
		MinRequestInterval: time.Millisecond,
		WindowLimit:        1000,
		WindowDuration:     time.Second,
		MaxRetries:         0,
		DisableLogging:     true,
	})
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meta":{"size":2},"rows":[{"id":"p1"},{"id":"p2"}]}`))
	}))
	defer srv.Close()

	f := newTestChain()
	defer f.Close()

	var result struct {
		Meta struct {
			Size int `json:"size"`
		} `json:"meta"`
		Rows []struct {
			ID string `json:"id"`
		} `json:"rows"`
	}

	header := map[string]string{"Authorization": "Bearer test-token"}
	err := fetcher.FetchJSON(context.Background(), f, srv.URL, header, &result)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Meta.Size)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "p1", result.Rows[0].ID)
}

func TestFetchJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{invalid`))
	}))
	defer srv.Close()

	f := newTestChain()
	defer f.Close()

	var v map[string]any
	err := fetcher.FetchJSON(context.Background(), f, srv.URL, nil, &v)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
}

func TestFetchBytes(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0} // JPEG 시그니처

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer srv.Close()

	f := newTestChain()
	defer f.Close()

	data, contentType, err := fetcher.FetchBytes(context.Background(), f, srv.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestChain_UpstreamNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errors":[{"error":"not found"}]}`, http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestChain()
	defer f.Close()

	var v map[string]any
	err := fetcher.FetchJSON(context.Background(), f, srv.URL, nil, &v)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}
