package fetcher_test

import (
	"net/http"
	"testing"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	"github.com/darkkaiser/catalog-server/internal/service/catalog/fetcher"
	"github.com/darkkaiser/catalog-server/internal/service/catalog/fetcher/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeFetcher_Do(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		allowed       []int
		wantErr       bool
		wantErrorType apperrors.ErrorType
	}{
		{name: "200 OK allowed by default", status: http.StatusOK},
		{name: "404 is NotFound", status: http.StatusNotFound, wantErr: true, wantErrorType: apperrors.NotFound},
		{name: "401 is Unauthorized", status: http.StatusUnauthorized, wantErr: true, wantErrorType: apperrors.Unauthorized},
		{name: "403 is Forbidden", status: http.StatusForbidden, wantErr: true, wantErrorType: apperrors.Forbidden},
		{name: "412 is PreconditionFailed", status: http.StatusPreconditionFailed, wantErr: true, wantErrorType: apperrors.PreconditionFailed},
		{name: "429 is RateLimited", status: http.StatusTooManyRequests, wantErr: true, wantErrorType: apperrors.RateLimited},
		{name: "500 is Unavailable", status: http.StatusInternalServerError, wantErr: true, wantErrorType: apperrors.Unavailable},
		{name: "custom allowed status passes", status: http.StatusNoContent, allowed: []int{http.StatusOK, http.StatusNoContent}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockFetcher := mocks.NewMockFetcher()
			mockFetcher.On("Do", mock.Anything).Return(mocks.NewMockResponse(`{"error":"x"}`, tt.status), nil)

			var f fetcher.Fetcher
			if len(tt.allowed) > 0 {
				f = fetcher.NewStatusCodeFetcherWithOptions(mockFetcher, tt.allowed...)
			} else {
				f = fetcher.NewStatusCodeFetcher(mockFetcher)
			}

			req, _ := http.NewRequest(http.MethodGet, "http://upstream.test/entity/product", nil)
			resp, err := f.Do(req)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, resp)
				assert.True(t, apperrors.Is(err, tt.wantErrorType))

				var statusErr *fetcher.HTTPStatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.status, statusErr.StatusCode)
				assert.Contains(t, statusErr.BodySnippet, "error")
			} else {
				require.NoError(t, err)
				require.NotNil(t, resp)
				resp.Body.Close()
			}
		})
	}
}

func TestStatusCodeFetcher_SensitiveHeadersMasked(t *testing.T) {
	resp := mocks.NewMockResponse("denied", http.StatusForbidden)
	resp.Header.Set("Authorization", "Bearer secret-token")

	mockFetcher := mocks.NewMockFetcher()
	mockFetcher.On("Do", mock.Anything).Return(resp, nil)

	req, _ := http.NewRequest(http.MethodGet, "http://upstream.test/entity/product", nil)
	_, err := fetcher.NewStatusCodeFetcher(mockFetcher).Do(req)

	var statusErr *fetcher.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "***", statusErr.Header.Get("Authorization"))
}
