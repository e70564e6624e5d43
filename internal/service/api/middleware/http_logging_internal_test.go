package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMaskSensitiveQueryParams는 민감한 쿼리 파라미터의 마스킹 동작을 검증합니다.
func TestMaskSensitiveQueryParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "token 파라미터 마스킹",
			uri:      "/api/products?token=secret123&page=1",
			expected: "/api/products?page=1&token=secr%2A%2A%2A",
		},
		{
			name:     "api_token 파라미터 마스킹",
			uri:      "/api/test-connection?api_token=abcdef9876",
			expected: "/api/test-connection?api_token=abcd%2A%2A%2A",
		},
		{
			name:     "짧은 값은 전체 마스킹",
			uri:      "/api/products?token=abc",
			expected: "/api/products?token=%2A%2A%2A%2A",
		},
		{
			name:     "민감 파라미터 없으면 원본 유지",
			uri:      "/api/products?page=2&limit=20",
			expected: "/api/products?page=2&limit=20",
		},
		{
			name:     "쿼리 스트링 없는 URI",
			uri:      "/api/categories",
			expected: "/api/categories",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, maskSensitiveQueryParams(tt.uri))
		})
	}
}
