package bot

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/darkkaiser/catalog-server/internal/config"
	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	"github.com/darkkaiser/catalog-server/internal/service/catalog"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
	"github.com/darkkaiser/catalog-server/pkg/strutil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// httpClientTimeout 텔레그램 봇 API 통신용 HTTP 클라이언트 타임아웃입니다.
	//
	// Go의 기본 http.DefaultClient는 타임아웃이 설정되어 있지 않아, 네트워크 장애 발생 시
	// 요청이 무한히 대기하는(Hang) 리소스 누수가 발생할 수 있습니다.
	// Long Polling 대기 시간(60초)보다 길게 설정해야 정상적인 폴링이 타임아웃으로 끊기지 않습니다.
	httpClientTimeout = (longPollTimeout + 10) * time.Second
)

// clientFactory 텔레그램 클라이언트 생성 로직을 추상화한 함수 타입입니다.
// 테스트에서 실제 텔레그램 API 대신 모의 클라이언트를 주입할 때 사용됩니다.
type clientFactory func(botToken string, debug bool) (client, error)

// Service 텔레그램 봇의 생명주기를 관리하는 서비스입니다.
//
// 봇은 Long Polling 방식으로 텔레그램 서버로부터 명령어를 수신하며,
// 카탈로그 Mini App 진입점(/start, /catalog)과 관리자 진단 명령(/admin)을 제공합니다.
// 설정에서 텔레그램이 비활성화된 경우 서비스는 아무 작업 없이 즉시 종료 상태가 됩니다.
type Service struct {
	appConfig *config.AppConfig

	catalog *catalog.Catalog

	newClient clientFactory

	running   bool
	runningMu sync.Mutex
}

// NewService Service 인스턴스를 생성합니다.
func NewService(appConfig *config.AppConfig, catalogService *catalog.Catalog) *Service {
	if appConfig == nil {
		panic("AppConfig 객체는 nil이 될 수 없습니다")
	}
	if catalogService == nil {
		panic("Catalog 객체는 nil이 될 수 없습니다")
	}

	return &Service{
		appConfig: appConfig,

		catalog: catalogService,

		newClient: newTelegramClient,

		running:   false,
		runningMu: sync.Mutex{},
	}
}

// Start 텔레그램 봇 서비스를 시작합니다.
//
// 봇 API 클라이언트를 초기화한 후 메인 실행 루프를 별도 고루틴으로 실행합니다.
// 텔레그램이 비활성화된 설정에서는 경고 로그만 남기고 정상 반환합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("Bot 서비스 시작중...")

	if !s.appConfig.Telegram.Enabled {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("텔레그램 봇이 비활성화되어 있어 Bot 서비스를 시작하지 않습니다")
		return nil
	}

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("Bot 서비스가 이미 시작됨!!!")
		return nil
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"bot_token":  strutil.Mask(s.appConfig.Telegram.BotToken),
		"webapp_url": s.appConfig.Telegram.WebAppURL,
	}).Debug("텔레그램 봇 API 클라이언트 초기화중...")

	c, err := s.newClient(s.appConfig.Telegram.BotToken, s.appConfig.Debug)
	if err != nil {
		defer serviceStopWG.Done()
		return apperrors.Wrap(err, apperrors.Internal, "텔레그램 봇 API 클라이언트 초기화에 실패했습니다. BotToken이 올바른지 확인해주세요.")
	}

	b := newBot(c, s.catalog, s.appConfig.Telegram.WebAppURL, s.appConfig.Telegram.IsAdmin)

	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG, b)

	applog.WithComponent(component).Info("Bot 서비스 시작됨")

	return nil
}

// runServiceLoop 봇의 메인 실행 루프를 수행하고, 종료 시 서비스 상태를 정리합니다.
func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup, b *bot) {
	defer serviceStopWG.Done()

	// run은 종료 신호를 받을 때까지 블로킹되며,
	// 내부적으로 실행 중인 명령어 처리 고루틴의 정리까지 마친 후 반환됩니다.
	b.run(serviceStopCtx)

	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("Bot 서비스 중지됨")
}

// newTelegramClient 실제 텔레그램 봇 API 클라이언트를 생성합니다.
func newTelegramClient(botToken string, debug bool) (client, error) {
	httpClient := &http.Client{
		Timeout: httpClientTimeout,
	}

	botAPI, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, err
	}

	// 앱 설정에 따라 봇 API의 상세 로그 출력 여부를 결정합니다.
	botAPI.Debug = debug

	return &tgClient{BotAPI: botAPI}, nil
}
