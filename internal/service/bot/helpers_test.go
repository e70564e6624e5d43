package bot

import (
	"context"
	"strings"
	"sync"

	"github.com/darkkaiser/catalog-server/internal/service/catalog"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	testAdminChatID = int64(1000)
	testUserChatID  = int64(2000)
	testWebAppURL   = "https://shop.example.com/app"
)

// fakeClient client 인터페이스의 테스트 대역입니다.
// 발송된 메시지와 콜백 응답을 기록하고, 미리 정해진 에러 시퀀스를 재생할 수 있습니다.
type fakeClient struct {
	mu sync.Mutex

	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable

	// sendErrs 호출 순서대로 소비되는 Send 에러 목록입니다. 소진되면 성공을 반환합니다.
	sendErrs []error

	updateC chan tgbotapi.Update
	stopped bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		updateC: make(chan tgbotapi.Update, 16),
	}
}

func (c *fakeClient) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "catalog_test_bot"}
}

func (c *fakeClient) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.updateC
}

func (c *fakeClient) Send(m tgbotapi.Chattable) (tgbotapi.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sent = append(c.sent, m)

	if len(c.sendErrs) > 0 {
		err := c.sendErrs[0]
		c.sendErrs = c.sendErrs[1:]
		if err != nil {
			return tgbotapi.Message{}, err
		}
	}
	return tgbotapi.Message{MessageID: len(c.sent)}, nil
}

func (c *fakeClient) Request(m tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, m)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (c *fakeClient) StopReceivingUpdates() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stopped {
		c.stopped = true
		close(c.updateC)
	}
}

// sentMessages 지금까지 발송된 MessageConfig들을 반환합니다.
func (c *fakeClient) sentMessages() []tgbotapi.MessageConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	var messages []tgbotapi.MessageConfig
	for _, m := range c.sent {
		if msg, ok := m.(tgbotapi.MessageConfig); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

func (c *fakeClient) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// stubCatalog Catalog 인터페이스의 테스트 대역입니다.
type stubCatalog struct {
	categories    []catalog.Category
	categoriesErr error

	page *catalog.ProductPage

	stats    catalog.Stats
	statsErr error

	conn *catalog.ConnectionStatus
}

func (s *stubCatalog) VisibleCategories(_ context.Context) ([]catalog.Category, error) {
	if s.categoriesErr != nil {
		return nil, s.categoriesErr
	}
	return s.categories, nil
}

func (s *stubCatalog) Products(_ context.Context, query catalog.ProductQuery) *catalog.ProductPage {
	if s.page != nil {
		return s.page
	}
	return &catalog.ProductPage{
		Products: []catalog.Product{},
		Page:     query.Page,
		Limit:    query.Limit,
	}
}

func (s *stubCatalog) Stats(_ context.Context) (catalog.Stats, error) {
	if s.statsErr != nil {
		return catalog.Stats{}, s.statsErr
	}
	return s.stats, nil
}

func (s *stubCatalog) TestConnection(_ context.Context) *catalog.ConnectionStatus {
	if s.conn != nil {
		return s.conn
	}
	return &catalog.ConnectionStatus{Success: true}
}

// newTestBot 테스트용 bot 인스턴스를 생성합니다.
// 관리자 판별은 testAdminChatID만 허용하며, 재시도 대기는 즉시 수행되도록 짧게 설정합니다.
func newTestBot(client *fakeClient, stub *stubCatalog) *bot {
	b := newBot(client, stub, testWebAppURL, func(chatID int64) bool {
		return chatID == testAdminChatID
	})
	b.retryDelay = 0
	return b
}

// commandUpdate '/start'와 같은 봇 명령어 텍스트 메시지 업데이트를 생성합니다.
// IsCommand() 판별이 동작하도록 bot_command 엔티티를 포함합니다.
func commandUpdate(chatID int64, text string) tgbotapi.Update {
	commandLen := len(text)
	if idx := strings.IndexByte(text, ' '); idx > 0 {
		commandLen = idx
	}

	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: commandLen},
			},
		},
	}
}

// textUpdate 명령어가 아닌 일반 텍스트 메시지 업데이트를 생성합니다.
func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
		},
	}
}

// callbackUpdate 인라인 키보드 버튼 클릭(콜백 쿼리) 업데이트를 생성합니다.
func callbackUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "callback-id-1",
			Data: data,
			Message: &tgbotapi.Message{
				Chat: &tgbotapi.Chat{ID: chatID},
			},
		},
	}
}

// inlineKeyboard 메시지에 첨부된 인라인 키보드를 꺼냅니다. 없으면 빈 마크업을 반환합니다.
func inlineKeyboard(msg tgbotapi.MessageConfig) (tgbotapi.InlineKeyboardMarkup, bool) {
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	return kb, ok
}
