package di

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/kvstore"
	"github.com/cheonmabigo/fintext-nlu-go/internal/optimizer"
	"github.com/cheonmabigo/fintext-nlu-go/internal/usage"
)

// App: 애플리케이션 구성 요소를 묶는다.
type App struct {
	Server          *http.Server
	Logger          *slog.Logger
	Config          *config.Config
	Store           kvstore.Store
	Optimizer       *optimizer.Optimizer
	UsageRepository *usage.Repository
	UsageRecorder   *usage.Recorder

	stopSweeper context.CancelFunc
}

// NewApp: App 인스턴스를 생성합니다.
func NewApp(
	server *http.Server,
	logger *slog.Logger,
	cfg *config.Config,
	store kvstore.Store,
	opt *optimizer.Optimizer,
	usageRepository *usage.Repository,
	usageRecorder *usage.Recorder,
	stopSweeper context.CancelFunc,
) *App {
	return &App{
		Server:          server,
		Logger:          logger,
		Config:          cfg,
		Store:           store,
		Optimizer:       opt,
		UsageRepository: usageRepository,
		UsageRecorder:   usageRecorder,
		stopSweeper:     stopSweeper,
	}
}

// Close: 앱 리소스를 정리합니다.
func (a *App) Close() {
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	// 저장소를 닫기 전에 배처에 남은 영속화 기록을 플러시한다.
	if a.Optimizer != nil {
		a.Optimizer.Close()
	}
	if a.UsageRecorder != nil {
		a.UsageRecorder.Close()
	}
	if a.UsageRepository != nil {
		a.UsageRepository.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}
