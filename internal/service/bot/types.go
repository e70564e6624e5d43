package bot

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/darkkaiser/catalog-server/internal/service/catalog"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// component Bot 서비스 로깅용 컴포넌트 이름
const component = "bot"

const (
	// longPollTimeout 텔레그램 Long Polling 대기 시간(초)입니다. (Telegram API 권장값)
	longPollTimeout = 60

	// commandTimeout 봇 명령어 하나를 처리하는 데 허용되는 최대 시간입니다.
	// 텔레그램 API 지연이나 상위 API 장애로 인해 처리 고루틴이 무한 대기하는 것을 방지합니다.
	commandTimeout = 30 * time.Second

	// commandExecutionLimit 동시에 처리할 수 있는 봇 명령어 수입니다.
	// 세마포어 용량으로 사용되며, 초과분은 드롭됩니다 (Backpressure).
	commandExecutionLimit = 10

	// sendRateLimit / sendRateBurst 텔레그램 메시지 발송 속도 제한입니다.
	// 텔레그램 봇 API의 전체 발송 한도(초당 약 30건)보다 보수적으로 설정합니다.
	sendRateLimit = 20
	sendRateBurst = 5

	// sendMaxRetries 메시지 발송 실패 시 최대 재시도 횟수입니다.
	sendMaxRetries = 3

	// sendRetryDelay 재시도 전 기본 대기 시간입니다.
	// 429 응답에 Retry-After 값이 있으면 그 값이 우선합니다.
	sendRetryDelay = 2 * time.Second

	// categoryListLimit 카테고리 목록 버튼으로 보여줄 최대 카테고리 수입니다.
	categoryListLimit = 10

	// shutdownTimeout 종료 시 실행 중인 명령어 처리 고루틴을 기다리는 최대 시간입니다.
	shutdownTimeout = 10 * time.Second
)

// client 텔레그램 봇 API와의 통신을 추상화한 인터페이스입니다.
type client interface {
	// 봇 정보 조회
	GetSelf() tgbotapi.User

	// 메시지 송수신
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)

	// 리소스 정리
	StopReceivingUpdates()
}

// tgClient tgbotapi.BotAPI를 래핑하여 client 인터페이스를 구현하는 구조체입니다.
type tgClient struct {
	*tgbotapi.BotAPI
}

// GetSelf 현재 봇의 사용자 정보를 반환합니다.
func (c *tgClient) GetSelf() tgbotapi.User {
	return c.Self
}

// Catalog 봇 명령어 처리에 필요한 카탈로그 조회 기능입니다.
type Catalog interface {
	VisibleCategories(ctx context.Context) ([]catalog.Category, error)
	Products(ctx context.Context, query catalog.ProductQuery) *catalog.ProductPage
	Stats(ctx context.Context) (catalog.Stats, error)
	TestConnection(ctx context.Context) *catalog.ConnectionStatus
}

// bot 텔레그램 봇 명령어 수신 및 응답 발송을 담당하는 구조체입니다.
//
// 수신(Receiver)과 발송(Sender)은 분리되어 있습니다. 발송이 Rate Limit에
// 걸리더라도 명령어 수신 루프는 영향을 받지 않습니다.
type bot struct {
	// client 텔레그램 봇 API와의 통신을 담당하는 클라이언트입니다.
	client client

	// catalog 카테고리/상품/통계 조회에 사용되는 카탈로그 서비스입니다.
	catalog Catalog

	// webAppURL Mini App(웹앱)이 호스팅되는 기본 URL입니다.
	webAppURL string

	// isAdmin 주어진 채팅 ID가 관리자인지 판별하는 함수입니다.
	isAdmin func(chatID int64) bool

	// rateLimiter 텔레그램 API 발송 속도를 제어하는 Rate Limiter입니다.
	// API 정책을 준수하여 봇이 차단되는 것을 방지합니다.
	rateLimiter *rate.Limiter

	// retryDelay 발송 실패 시 재시도 전에 대기하는 시간입니다.
	retryDelay time.Duration

	// commandSemaphore 명령어 처리 고루틴의 동시 실행 수를 제한하는 세마포어입니다.
	commandSemaphore chan struct{}
}

// newBot 주입된 텔레그램 클라이언트로 bot 인스턴스를 생성합니다.
func newBot(c client, cat Catalog, webAppURL string, isAdmin func(chatID int64) bool) *bot {
	return &bot{
		client:    c,
		catalog:   cat,
		webAppURL: webAppURL,
		isAdmin:   isAdmin,

		rateLimiter: rate.NewLimiter(rate.Limit(sendRateLimit), sendRateBurst),
		retryDelay:  sendRetryDelay,

		commandSemaphore: make(chan struct{}, commandExecutionLimit),
	}
}
