package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendInternal_SuccessFirstAttempt(t *testing.T) {
	client := newFakeClient()
	b := newTestBot(client, &stubCatalog{})

	err := b.sendInternal(context.Background(), tgbotapi.NewMessage(testUserChatID, "안녕하세요"))

	require.NoError(t, err)
	assert.Len(t, client.sentMessages(), 1)
}

func TestSendInternal_RetriesOnServerError(t *testing.T) {
	client := newFakeClient()
	client.sendErrs = []error{
		&tgbotapi.Error{Code: 500, Message: "Internal Server Error"},
		nil, // 두 번째 시도에서 성공
	}

	b := newTestBot(client, &stubCatalog{})

	err := b.sendInternal(context.Background(), tgbotapi.NewMessage(testUserChatID, "재시도 테스트"))

	require.NoError(t, err)
	assert.Len(t, client.sentMessages(), 2)
}

func TestSendInternal_RetriesOnRateLimit(t *testing.T) {
	client := newFakeClient()
	client.sendErrs = []error{
		&tgbotapi.Error{
			Code:               429,
			Message:            "Too Many Requests",
			ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 0},
		},
		nil,
	}

	b := newTestBot(client, &stubCatalog{})

	err := b.sendInternal(context.Background(), tgbotapi.NewMessage(testUserChatID, "속도 제한 테스트"))

	require.NoError(t, err)
	assert.Len(t, client.sentMessages(), 2)
}

func TestSendInternal_NoRetryOnClientError(t *testing.T) {
	client := newFakeClient()
	client.sendErrs = []error{
		&tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"},
	}

	b := newTestBot(client, &stubCatalog{})

	err := b.sendInternal(context.Background(), tgbotapi.NewMessage(testUserChatID, "차단 테스트"))

	require.Error(t, err)
	assert.Len(t, client.sentMessages(), 1, "429 외의 4xx는 재시도하지 않아야 함")
}

func TestSendInternal_HTMLFallbackToPlainText(t *testing.T) {
	client := newFakeClient()
	client.sendErrs = []error{
		&tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities"},
		nil,
	}

	b := newTestBot(client, &stubCatalog{})

	msg := tgbotapi.NewMessage(testUserChatID, "<b>깨진 태그")
	msg.ParseMode = tgbotapi.ModeHTML

	err := b.sendInternal(context.Background(), msg)

	require.NoError(t, err)

	messages := client.sentMessages()
	require.Len(t, messages, 2)
	assert.Equal(t, tgbotapi.ModeHTML, messages[0].ParseMode)
	assert.Equal(t, "", messages[1].ParseMode, "HTML 파싱 오류 후에는 Plain Text로 재발송되어야 함")
}

func TestSendInternal_ExhaustsRetries(t *testing.T) {
	client := newFakeClient()
	client.sendErrs = []error{
		&tgbotapi.Error{Code: 500, Message: "Internal Server Error"},
		&tgbotapi.Error{Code: 500, Message: "Internal Server Error"},
		&tgbotapi.Error{Code: 500, Message: "Internal Server Error"},
	}

	b := newTestBot(client, &stubCatalog{})

	err := b.sendInternal(context.Background(), tgbotapi.NewMessage(testUserChatID, "최종 실패 테스트"))

	require.Error(t, err)
	assert.Len(t, client.sentMessages(), sendMaxRetries)
}

func TestSendInternal_ContextCancelled(t *testing.T) {
	client := newFakeClient()
	b := newTestBot(client, &stubCatalog{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.sendInternal(ctx, tgbotapi.NewMessage(testUserChatID, "취소 테스트"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, client.sentMessages())
}

func TestExtractErrorCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantCode       int
		wantRetryAfter int
	}{
		{
			name: "포인터 타입 API 에러",
			err: &tgbotapi.Error{
				Code:               429,
				ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7},
			},
			wantCode:       429,
			wantRetryAfter: 7,
		},
		{
			name: "값 타입 API 에러",
			err: tgbotapi.Error{
				Code: 400,
			},
			wantCode:       400,
			wantRetryAfter: 0,
		},
		{
			name:           "일반 에러",
			err:            errors.New("connection refused"),
			wantCode:       0,
			wantRetryAfter: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, retryAfter := extractErrorCode(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantRetryAfter, retryAfter)
		})
	}
}
