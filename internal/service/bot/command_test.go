package bot

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchUpdate_StartCommand(t *testing.T) {
	client := newFakeClient()
	b := newTestBot(client, &stubCatalog{})

	b.dispatchUpdate(context.Background(), commandUpdate(testUserChatID, "/start"))

	messages := client.sentMessages()
	require.Len(t, messages, 1)

	msg := messages[0]
	assert.Equal(t, testUserChatID, msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "어서오세요")

	kb, ok := inlineKeyboard(msg)
	require.True(t, ok, "환영 메시지에는 인라인 키보드가 있어야 함")
	require.Len(t, kb.InlineKeyboard, 2)

	// 첫 번째 행: Mini App 버튼
	webAppButton := kb.InlineKeyboard[0][0]
	require.NotNil(t, webAppButton.WebApp)
	assert.Equal(t, testWebAppURL, webAppButton.WebApp.URL)

	// 두 번째 행: 카테고리 목록 버튼
	categoriesButton := kb.InlineKeyboard[1][0]
	require.NotNil(t, categoriesButton.CallbackData)
	assert.Equal(t, callbackCategories, *categoriesButton.CallbackData)
}

func TestDispatchUpdate_CatalogCommand(t *testing.T) {
	client := newFakeClient()
	b := newTestBot(client, &stubCatalog{})

	b.dispatchUpdate(context.Background(), commandUpdate(testUserChatID, "/catalog"))

	messages := client.sentMessages()
	require.Len(t, messages, 1)

	kb, ok := inlineKeyboard(messages[0])
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)

	webAppButton := kb.InlineKeyboard[0][0]
	require.NotNil(t, webAppButton.WebApp)
	assert.Equal(t, testWebAppURL, webAppButton.WebApp.URL)
}

func TestDispatchUpdate_HelpCommand(t *testing.T) {
	client := newFakeClient()
	b := newTestBot(client, &stubCatalog{})

	b.dispatchUpdate(context.Background(), commandUpdate(testUserChatID, "/help"))

	messages := client.sentMessages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Text, "/start")
	assert.Contains(t, messages[0].Text, "/catalog")
	assert.Contains(t, messages[0].Text, "/admin")
	assert.Contains(t, messages[0].Text, "/help")
}

func TestDispatchUpdate_AdminCommand(t *testing.T) {
	tests := []struct {
		name         string
		chatID       int64
		wantKeyboard bool
		wantText     string
	}{
		{
			name:         "관리자 채팅은 관리자 메뉴 수신",
			chatID:       testAdminChatID,
			wantKeyboard: true,
			wantText:     "관리자 메뉴",
		},
		{
			name:         "허용 목록에 없는 채팅은 거부됨",
			chatID:       testUserChatID,
			wantKeyboard: false,
			wantText:     msgAdminDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			b := newTestBot(client, &stubCatalog{})

			b.dispatchUpdate(context.Background(), commandUpdate(tt.chatID, "/admin"))

			messages := client.sentMessages()
			require.Len(t, messages, 1)
			assert.Contains(t, messages[0].Text, tt.wantText)

			kb, ok := inlineKeyboard(messages[0])
			if tt.wantKeyboard {
				require.True(t, ok)
				require.Len(t, kb.InlineKeyboard, 2)
				assert.Equal(t, callbackAdminStats, *kb.InlineKeyboard[0][0].CallbackData)
				assert.Equal(t, callbackAdminTest, *kb.InlineKeyboard[1][0].CallbackData)
			} else {
				assert.False(t, ok)
			}
		})
	}
}

func TestDispatchUpdate_UnknownCommand(t *testing.T) {
	client := newFakeClient()
	b := newTestBot(client, &stubCatalog{})

	b.dispatchUpdate(context.Background(), commandUpdate(testUserChatID, "/frobnicate"))

	messages := client.sentMessages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Text, "/frobnicate")
	assert.Contains(t, messages[0].Text, "/"+botCommandHelp)
}

func TestDispatchUpdate_PlainTextTreatedAsUnknown(t *testing.T) {
	client := newFakeClient()
	b := newTestBot(client, &stubCatalog{})

	b.dispatchUpdate(context.Background(), textUpdate(testUserChatID, "안녕하세요"))

	messages := client.sentMessages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Text, "등록되지 않은 명령어")
}

func TestDispatchUpdate_UnknownCommandEscapesHTML(t *testing.T) {
	client := newFakeClient()
	b := newTestBot(client, &stubCatalog{})

	b.dispatchUpdate(context.Background(), textUpdate(testUserChatID, "<script>alert(1)</script>"))

	messages := client.sentMessages()
	require.Len(t, messages, 1)
	assert.NotContains(t, messages[0].Text, "<script>")
	assert.Contains(t, messages[0].Text, "&lt;script&gt;")
}

func TestDispatchUpdate_PanicRecovered(t *testing.T) {
	client := newFakeClient()

	// isAdmin이 패닉을 일으키도록 구성하여 복구 로직을 검증합니다.
	b := newBot(client, &stubCatalog{}, testWebAppURL, func(chatID int64) bool {
		panic("관리자 판별 실패")
	})

	require.NotPanics(t, func() {
		b.dispatchUpdate(context.Background(), commandUpdate(testUserChatID, "/admin"))
	})
}
