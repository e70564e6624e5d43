package bot

import (
	"context"
	"fmt"
	"html"

	"github.com/darkkaiser/catalog-server/internal/pkg/mark"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	botCommandStart   = "start"
	botCommandCatalog = "catalog"
	botCommandAdmin   = "admin"
	botCommandHelp    = "help"
)

const (
	msgWelcome = "<b>어서오세요!</b>\n\n" +
		"스토어 카탈로그 봇입니다. 아래 버튼을 눌러 카탈로그를 열거나,\n" +
		"카테고리별 상품을 둘러보세요."
	msgCatalogOpen    = "아래 버튼을 눌러 카탈로그를 여세요."
	msgAdminMenu      = "<b>관리자 메뉴</b>\n\n원하는 작업을 선택하세요."
	msgAdminDenied    = "관리자 권한이 없습니다."
	msgUnknownCommand = "'%s'는 등록되지 않은 명령어입니다.\n명령어를 모르시면 '/%s'를 입력하세요."
	msgHelp           = "입력 가능한 명령어는 아래와 같습니다:\n\n" +
		"/start\n카탈로그 봇을 시작합니다.\n\n" +
		"/catalog\n카탈로그 Mini App을 엽니다.\n\n" +
		"/admin\n관리자 메뉴를 표시합니다. (관리자 전용)\n\n" +
		"/help\n도움말을 표시합니다."
)

// dispatchUpdate 수신된 텔레그램 업데이트를 분석하고 적절한 핸들러로 라우팅하는 메인 진입점입니다.
func (b *bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update) {
	// 모든 처리에 타임아웃을 설정하여, 텔레그램 API 지연 등 외부 요인으로 인해
	// 고루틴이 무한 대기하는 것을 방지합니다. 부모 컨텍스트가 취소되면(서비스 종료 등)
	// 이 작업도 즉시 중단됩니다.
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	// 처리 로직 중 예상치 못한 런타임 오류(Panic)가 발생하더라도,
	// 전체 봇 서비스(수신 루프)가 중단되지 않도록 여기서 에러를 포착하고 로그를 남깁니다.
	defer func() {
		if r := recover(); r != nil {
			fields := applog.Fields{
				"panic": r,
			}
			if update.Message != nil {
				fields["chat_id"] = update.Message.Chat.ID
				fields["command"] = update.Message.Text
			}
			if update.CallbackQuery != nil {
				fields["callback_data"] = update.CallbackQuery.Data
			}
			applog.WithComponentAndFields(component, fields).Error("PANIC RECOVERED: 봇 명령어 처리 중 패닉 발생")
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	b.handleMessage(ctx, update.Message)
}

// handleMessage 텍스트 메시지를 명령어로 해석하여 처리합니다.
func (b *bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	// 텔레그램의 모든 봇 명령어는 '/' 접두어로 시작해야 합니다.
	if !message.IsCommand() {
		b.replyUnknownCommand(ctx, chatID, message.Text)
		return
	}

	switch message.Command() {
	case botCommandStart:
		b.replyStart(ctx, chatID)
	case botCommandCatalog:
		b.replyCatalog(ctx, chatID)
	case botCommandAdmin:
		b.replyAdminMenu(ctx, chatID)
	case botCommandHelp:
		b.replyHelp(ctx, chatID)
	default:
		b.replyUnknownCommand(ctx, chatID, message.Text)
	}
}

// replyStart 환영 메시지와 함께 Mini App 버튼 및 카테고리 탐색 버튼을 전송합니다.
func (b *bot) replyStart(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, msgWelcome)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = b.startKeyboard()

	b.send(ctx, msg)
}

// replyCatalog Mini App을 여는 버튼을 전송합니다.
func (b *bot) replyCatalog(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, msgCatalogOpen)
	msg.ReplyMarkup = b.webAppKeyboard()

	b.send(ctx, msg)
}

// replyAdminMenu 관리자 메뉴를 전송합니다. 허용 목록에 없는 채팅은 거부됩니다.
func (b *bot) replyAdminMenu(ctx context.Context, chatID int64) {
	if !b.isAdmin(chatID) {
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id": chatID,
		}).Warn("관리자 명령어 접근 거부됨: 허용 목록에 없는 채팅 ID")

		b.send(ctx, tgbotapi.NewMessage(chatID, msgAdminDenied))
		return
	}

	msg := tgbotapi.NewMessage(chatID, msgAdminMenu)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = adminKeyboard()

	b.send(ctx, msg)
}

// replyHelp 사용 가능한 명령어 목록을 도움말 메시지로 전송합니다.
func (b *bot) replyHelp(ctx context.Context, chatID int64) {
	b.send(ctx, tgbotapi.NewMessage(chatID, msgHelp))
}

// replyUnknownCommand 등록되지 않았거나 잘못된 명령어가 입력되었을 때, 올바른 사용법을 안내합니다.
func (b *bot) replyUnknownCommand(ctx context.Context, chatID int64, input string) {
	// 텔레그램 메시지는 HTML 모드로 전송되므로, 사용자 입력값에 포함된 특수문자(<, > 등)가
	// HTML 태그로 오인되지 않도록 반드시 이스케이프 처리합니다.
	escapedInput := html.EscapeString(input)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(msgUnknownCommand, escapedInput, botCommandHelp))
	msg.ParseMode = tgbotapi.ModeHTML

	b.send(ctx, msg)
}

// startKeyboard /start 응답용 키보드: Mini App 버튼 + 카테고리 목록 버튼
func (b *bot) startKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(b.webAppButton()),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark.Category.String()+" 카테고리 보기", callbackCategories),
		),
	)
}

// webAppKeyboard Mini App 버튼만 있는 키보드
func (b *bot) webAppKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(b.webAppButton()),
	)
}

// webAppButton 설정된 기본 URL로 Mini App을 여는 버튼을 생성합니다.
func (b *bot) webAppButton() tgbotapi.InlineKeyboardButton {
	return tgbotapi.InlineKeyboardButton{
		Text: mark.Store.String() + " 카탈로그 열기",
		WebApp: &tgbotapi.WebAppInfo{
			URL: b.webAppURL,
		},
	}
}

// adminKeyboard 관리자 메뉴 키보드: 통계 조회 + 연결 테스트
func adminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark.Stats.String()+" 카탈로그 통계", callbackAdminStats),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark.Connection.String()+" 상위 API 연결 테스트", callbackAdminTest),
		),
	)
}
