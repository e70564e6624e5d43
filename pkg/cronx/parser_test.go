package cronx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/catalog-server/pkg/cronx"
)

func TestStandardParser_SixFieldSpec(t *testing.T) {
	schedule, err := cronx.StandardParser().Parse("0 */5 * * * *")
	require.NoError(t, err)

	base := time.Date(2026, 1, 2, 3, 4, 30, 0, time.UTC)
	next := schedule.Next(base)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 5, 0, 0, time.UTC), next)
}

func TestStandardParser_RejectsFiveFieldSpec(t *testing.T) {
	_, err := cronx.StandardParser().Parse("*/5 * * * *")
	assert.Error(t, err, "5필드 표준 형식은 지원하지 않음")
}

func TestStandardParser_Descriptor(t *testing.T) {
	_, err := cronx.StandardParser().Parse("@hourly")
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{"유효한 6필드 표현식", "0 0 */6 * * *", false},
		{"유효한 Descriptor", "@daily", false},
		{"빈 문자열", "", true},
		{"잘못된 필드 개수", "* * *", true},
		{"잘못된 값 범위", "99 * * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cronx.Validate(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
