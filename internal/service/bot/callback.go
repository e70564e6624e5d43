package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/darkkaiser/catalog-server/internal/service/catalog"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// callbackCategories 카테고리 목록을 요청하는 콜백 데이터입니다.
	callbackCategories = "categories"

	// callbackCategoryPrefix 카테고리 선택 콜백 데이터의 접두어입니다. (예: "category:abc-123")
	callbackCategoryPrefix = "category:"

	// callbackAdminStats / callbackAdminTest 관리자 메뉴의 콜백 데이터입니다.
	callbackAdminStats = "admin:stats"
	callbackAdminTest  = "admin:test"
)

const (
	msgCategoriesHeader     = "원하는 카테고리를 선택하세요:"
	msgCategoriesEmpty      = "표시할 카테고리가 없습니다."
	msgCategoriesFailed     = "카테고리 목록을 불러오지 못했습니다. 잠시 후 다시 시도해주세요."
	msgCategoryPreview      = "<b>【 %s 】</b>\n\n상품 수: %d개\n\nMini App에서 전체 상품을 확인하세요."
	msgStatsFailed          = "통계를 불러오지 못했습니다. 잠시 후 다시 시도해주세요."
	msgConnectionOK         = "✅ 상위 API 연결 정상\n\n계정: %s\n상품 수: %d개"
	msgConnectionFailed     = "❌ 상위 API 연결 실패\n\n%s"
	msgAdminCallbackDenied  = "관리자 권한이 없습니다."
	msgUnknownCallbackQuery = "알 수 없는 요청입니다."
)

// handleCallback 인라인 키보드 버튼 클릭(콜백 쿼리)을 처리합니다.
func (b *bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// 콜백 쿼리는 반드시 응답(Answer)해야 클라이언트의 로딩 표시가 사라집니다.
	b.answerCallback(query.ID)

	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	switch {
	case query.Data == callbackCategories:
		b.replyCategoryList(ctx, chatID)

	case strings.HasPrefix(query.Data, callbackCategoryPrefix):
		categoryID := strings.TrimPrefix(query.Data, callbackCategoryPrefix)
		b.replyCategoryPreview(ctx, chatID, categoryID)

	case query.Data == callbackAdminStats:
		b.replyAdminStats(ctx, chatID)

	case query.Data == callbackAdminTest:
		b.replyAdminTest(ctx, chatID)

	default:
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id":       chatID,
			"callback_data": query.Data,
		}).Warn("알 수 없는 콜백 데이터 수신됨")

		b.send(ctx, tgbotapi.NewMessage(chatID, msgUnknownCallbackQuery))
	}
}

// answerCallback 콜백 쿼리에 빈 응답을 전송하여 클라이언트의 로딩 표시를 해제합니다.
func (b *bot) answerCallback(callbackID string) {
	if _, err := b.client.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Warn("콜백 쿼리 응답 실패")
	}
}

// replyCategoryList 노출 중인 카테고리 목록을 버튼 키보드로 전송합니다.
// 목록이 길면 앞에서부터 categoryListLimit개까지만 표시합니다.
func (b *bot) replyCategoryList(ctx context.Context, chatID int64) {
	categories, err := b.catalog.VisibleCategories(ctx)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id": chatID,
			"error":   err,
		}).Warn("카테고리 목록 조회 실패: 안내 메시지로 대체")

		b.send(ctx, tgbotapi.NewMessage(chatID, msgCategoriesFailed))
		return
	}

	if len(categories) == 0 {
		b.send(ctx, tgbotapi.NewMessage(chatID, msgCategoriesEmpty))
		return
	}

	if len(categories) > categoryListLimit {
		categories = categories[:categoryListLimit]
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Name, callbackCategoryPrefix+c.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, msgCategoriesHeader)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)

	b.send(ctx, msg)
}

// replyCategoryPreview 선택된 카테고리의 상품 수 미리보기를 전송합니다.
func (b *bot) replyCategoryPreview(ctx context.Context, chatID int64, categoryID string) {
	// 상위 API 장애 시 Products는 빈 페이지를 반환하므로 (silent degradation)
	// 미리보기도 0개로 표시됩니다. 미리보기 용도이므로 별도 에러 처리는 하지 않습니다.
	page := b.catalog.Products(ctx, catalog.ProductQuery{
		Page:       1,
		Limit:      1,
		CategoryID: categoryID,
	})

	name := categoryID
	if categories, err := b.catalog.VisibleCategories(ctx); err == nil {
		for _, c := range categories {
			if c.ID == categoryID {
				name = c.Name
				break
			}
		}
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(msgCategoryPreview, html.EscapeString(name), page.Total))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = b.webAppKeyboard()

	b.send(ctx, msg)
}

// replyAdminStats 카탈로그 통계 스냅샷을 전송합니다. (관리자 전용)
func (b *bot) replyAdminStats(ctx context.Context, chatID int64) {
	if !b.isAdmin(chatID) {
		b.send(ctx, tgbotapi.NewMessage(chatID, msgAdminCallbackDenied))
		return
	}

	stats, err := b.catalog.Stats(ctx)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id": chatID,
			"error":   err,
		}).Warn("카탈로그 통계 조회 실패: 안내 메시지로 대체")

		b.send(ctx, tgbotapi.NewMessage(chatID, msgStatsFailed))
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatStats(stats))
	msg.ParseMode = tgbotapi.ModeHTML

	b.send(ctx, msg)
}

// replyAdminTest 상위 API 연결 상태를 진단하여 결과를 전송합니다. (관리자 전용)
// 다른 읽기 경로와 달리 이 경로만은 원본 에러 정보를 그대로 노출합니다.
func (b *bot) replyAdminTest(ctx context.Context, chatID int64) {
	if !b.isAdmin(chatID) {
		b.send(ctx, tgbotapi.NewMessage(chatID, msgAdminCallbackDenied))
		return
	}

	status := b.catalog.TestConnection(ctx)

	var text string
	if status.Success {
		text = fmt.Sprintf(msgConnectionOK, status.AccountID, status.ProductsCount)
	} else {
		text = fmt.Sprintf(msgConnectionFailed, status.Error)
	}

	b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

// formatStats 통계 스냅샷을 관리자용 메시지로 포맷팅합니다.
func formatStats(stats catalog.Stats) string {
	return fmt.Sprintf(
		"<b>【 카탈로그 통계 】</b>\n\n"+
			"전체 상품: %d개\n"+
			"전체 카테고리: %d개\n"+
			"노출 카테고리: %d개\n"+
			"캐시된 이미지: %d개\n"+
			"갱신 시각: %s",
		stats.TotalProducts,
		stats.TotalCategories,
		stats.VisibleCategories,
		stats.CachedImages,
		stats.RefreshedAt,
	)
}
