package di

import (
	"context"
	"fmt"

	"github.com/cheonmabigo/fintext-nlu-go/internal/classify"
	"github.com/cheonmabigo/fintext-nlu-go/internal/config"
	"github.com/cheonmabigo/fintext-nlu-go/internal/domain/fintext"
	"github.com/cheonmabigo/fintext-nlu-go/internal/exaone"
	"github.com/cheonmabigo/fintext-nlu-go/internal/extract"
	"github.com/cheonmabigo/fintext-nlu-go/internal/handler"
	"github.com/cheonmabigo/fintext-nlu-go/internal/kvstore"
	"github.com/cheonmabigo/fintext-nlu-go/internal/metrics"
	"github.com/cheonmabigo/fintext-nlu-go/internal/optimizer"
	"github.com/cheonmabigo/fintext-nlu-go/internal/parse"
	"github.com/cheonmabigo/fintext-nlu-go/internal/pipeline"
	"github.com/cheonmabigo/fintext-nlu-go/internal/randx"
	"github.com/cheonmabigo/fintext-nlu-go/internal/server"
	"github.com/cheonmabigo/fintext-nlu-go/internal/session"
	"github.com/cheonmabigo/fintext-nlu-go/internal/usage"
)

// InitializeApp 은 애플리케이션 의존성을 초기화하고 App 인스턴스를 반환한다.
func InitializeApp() (*App, error) {
	cfg, err := config.ProvideConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	lex, err := fintext.NewLexicon()
	if err != nil {
		return nil, fmt.Errorf("lexicon: %w", err)
	}

	prompts, err := fintext.NewPrompts()
	if err != nil {
		return nil, fmt.Errorf("prompts: %w", err)
	}

	fallback, err := exaone.NewFallback(randx.New(nil))
	if err != nil {
		return nil, fmt.Errorf("fallback pool: %w", err)
	}

	gateway, err := exaone.NewClient(cfg.Model, fallback, logger)
	if err != nil {
		return nil, fmt.Errorf("model client: %w", err)
	}

	store, err := kvstore.New(cfg.CacheStore)
	if err != nil {
		return nil, fmt.Errorf("kvstore: %w", err)
	}

	opt, err := optimizer.New(cfg.Optimizer, metrics.New(), store, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	opt.Restore(context.Background())

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	opt.StartSweeper(sweeperCtx)

	sessions, err := session.NewStore(cfg.Session, store)
	if err != nil {
		stopSweeper()
		store.Close()
		return nil, fmt.Errorf("session store: %w", err)
	}

	usageRepository := usage.NewRepository(cfg.Database, logger)
	usageRecorder := usage.NewRecorder(cfg.Database, usageRepository, logger)

	extractor := extract.New(lex)
	processor, err := pipeline.NewProcessor(
		cfg,
		classify.NewClassifier(cfg.Classify, lex, logger),
		prompts,
		gateway,
		parse.NewParser(extractor, cfg.Model.Version(), logger),
		opt,
		sessions,
		usageRecorder,
		logger,
	)
	if err != nil {
		stopSweeper()
		store.Close()
		return nil, fmt.Errorf("processor: %w", err)
	}

	aiHandler := handler.NewAIHandler(cfg, processor, opt, extractor, logger)
	sessionHandler := handler.NewSessionHandler(sessions, logger)
	usageHandler := handler.NewUsageHandler(usageRepository, logger)

	router := handler.NewRouter(cfg, logger, store, aiHandler, sessionHandler, usageHandler)
	httpServer := server.NewHTTPServer(cfg, router)

	return NewApp(httpServer, logger, cfg, store, opt, usageRepository, usageRecorder, stopSweeper), nil
}
