//go:build wireinject

package di

import (
	"github.com/google/wire"

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
	"github.com/cheonmabigo/fintext-nlu-go/internal/server"
	"github.com/cheonmabigo/fintext-nlu-go/internal/session"
	"github.com/cheonmabigo/fintext-nlu-go/internal/usage"
)

func InitializeApp() (*App, error) {
	wire.Build(
		config.ProvideConfig,
		ProvideLogger,
		fintext.NewLexicon,
		fintext.NewPrompts,
		exaone.NewFallback,
		exaone.NewClient,
		kvstore.New,
		metrics.New,
		optimizer.New,
		session.NewStore,
		usage.NewRepository,
		usage.NewRecorder,
		extract.New,
		parse.NewParser,
		classify.NewClassifier,
		pipeline.NewProcessor,
		handler.NewAIHandler,
		handler.NewSessionHandler,
		handler.NewUsageHandler,
		handler.NewRouter,
		server.NewHTTPServer,
		NewApp,
	)
	return nil, nil
}
