package bot

import (
	"context"
	"time"

	applog "github.com/darkkaiser/catalog-server/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// send 텔레그램 메시지를 발송합니다.
//
// 발송 정책:
//
//   - Rate Limiter로 발송 속도를 제어하여 텔레그램 API 정책을 준수합니다
//   - 429(Too Many Requests)는 Retry-After 값만큼 대기 후 재시도합니다
//   - HTML 파싱 오류(400)는 Plain Text로 한 번 더 시도합니다 (Fallback)
//   - 기타 4xx는 재시도하지 않고, 5xx와 네트워크 오류는 제한 횟수까지 재시도합니다
//
// 발송 실패는 로그로만 남기고 호출자에게 전파하지 않습니다.
// 봇 응답 한 건의 실패가 명령어 처리 흐름을 중단시킬 이유는 없습니다.
func (b *bot) send(ctx context.Context, msg tgbotapi.MessageConfig) {
	if err := b.sendInternal(ctx, msg); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id": msg.ChatID,
			"error":   err,
		}).Error("텔레그램 메시지 발송 최종 실패")
	}
}

func (b *bot) sendInternal(ctx context.Context, msg tgbotapi.MessageConfig) error {
	// 텔레그램 API Rate Limit 준수를 위해 발송 속도를 제어합니다.
	// 지정된 속도를 초과하면 토큰이 확보될 때까지 대기하며,
	// 컨텍스트가 취소되면 Wait는 즉시 에러를 반환합니다.
	if b.rateLimiter != nil {
		if err := b.rateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	var lastErr error

	for attempt := 1; attempt <= sendMaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, err := b.client.Send(msg)
		if err == nil {
			return nil
		}

		lastErr = err
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id": msg.ChatID,
			"attempt": attempt,
			"error":   err,
		}).Warn("텔레그램 메시지 발송 실패")

		errCode, retryAfter := extractErrorCode(err)

		// HTML 파싱 오류 시 Plain Text로 Fallback
		if msg.ParseMode == tgbotapi.ModeHTML && errCode == 400 {
			applog.WithComponentAndFields(component, applog.Fields{
				"chat_id": msg.ChatID,
				"error":   err,
			}).Warn("HTML 파싱 오류로 Plain Text 발송으로 전환")

			msg.ParseMode = ""
			continue
		}

		// 429 외의 4xx는 재시도해도 결과가 달라지지 않습니다.
		if errCode >= 400 && errCode < 500 && errCode != 429 {
			return err
		}

		if attempt >= sendMaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.retryWaitDuration(retryAfter)):
		}
	}

	return lastErr
}

// retryWaitDuration 재시도 대기 시간을 계산합니다.
// 429 응답의 Retry-After 값이 있으면 그 값을 사용하고, 없으면 기본 대기 시간을 사용합니다.
func (b *bot) retryWaitDuration(retryAfter int) time.Duration {
	if retryAfter > 0 {
		return time.Duration(retryAfter) * time.Second
	}
	return b.retryDelay
}

// extractErrorCode 텔레그램 API 에러에서 에러 코드와 Retry-After 값을 추출합니다.
func extractErrorCode(err error) (code int, retryAfter int) {
	if apiErr, ok := err.(*tgbotapi.Error); ok {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}
	if apiErr, ok := err.(tgbotapi.Error); ok {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}
	return 0, 0
}
