package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/mkraev/docintake/internal/config"
	"github.com/mkraev/docintake/internal/core/agent/classifier"
	"github.com/mkraev/docintake/internal/core/agent/emailagent"
	"github.com/mkraev/docintake/internal/core/agent/jsonagent"
	"github.com/mkraev/docintake/internal/core/agent/pdfagent"
	"github.com/mkraev/docintake/internal/core/domain"
	"github.com/mkraev/docintake/internal/core/ports"
	"github.com/mkraev/docintake/internal/core/routing"
	"github.com/mkraev/docintake/internal/core/usecase"
	"github.com/mkraev/docintake/internal/infrastructure/extractor/pdftext"
	"github.com/mkraev/docintake/internal/infrastructure/llm/gemini"
	"github.com/mkraev/docintake/internal/infrastructure/notifier/webhook"
	"github.com/mkraev/docintake/internal/infrastructure/repository/postgres"
	"github.com/mkraev/docintake/internal/infrastructure/resilience"
	"github.com/mkraev/docintake/internal/infrastructure/storage/localfs"
	"github.com/mkraev/docintake/internal/observability/metrics"
)

const serviceName = "docintake-api"

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	ProcessUC *usecase.ProcessDocumentUseCase
	RetryUC   *usecase.RetryActionUseCase
	ResultsUC *usecase.ResultsUseCase
	Actions   *routing.Router

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	records := postgres.NewRecordRepository(db)
	if err := records.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	archive, err := localfs.New(cfg.UploadArchivePath)
	if err != nil {
		return nil, fmt.Errorf("init upload archive: %w", err)
	}

	// The model client retries transient failures; action dispatch runs
	// breaker-only and is never replayed automatically.
	modelConfig := resilience.DefaultConfig()
	if cfg.ModelRetryMaxAttempts > 0 {
		modelConfig.RetryMaxAttempts = cfg.ModelRetryMaxAttempts
	}
	model := gemini.New(cfg.GeminiURL, cfg.GeminiKey, cfg.GeminiModel, gemini.Options{
		RequestTimeout:     time.Duration(cfg.ModelRequestTimeoutSeconds) * time.Second,
		ResilienceExecutor: resilience.NewExecutor(modelConfig),
	})
	notifier := webhook.New(cfg.WebhookBaseURL, webhook.Options{
		DispatchTimeout:    time.Duration(cfg.WebhookRequestTimeoutSeconds) * time.Second,
		ResilienceExecutor: resilience.NewExecutor(resilience.PassthroughConfig()),
	})

	serverMetrics := metrics.NewHTTPServerMetrics(serviceName)
	fileClassifier := classifier.New(serverMetrics.InstrumentModel(serviceName, "classifier", model))
	agents := map[domain.FileType]ports.ExtractionAgent{
		domain.FileTypeEmail: emailagent.New(serverMetrics.InstrumentModel(serviceName, "email_agent", model)),
		domain.FileTypeJSON:  jsonagent.New(),
		domain.FileTypePDF:   pdfagent.New(serverMetrics.InstrumentModel(serviceName, "pdf_agent", model), pdftext.New()),
	}
	actionRouter := routing.NewRouter(notifier)

	return &App{
		Config:  cfg,
		Metrics: serverMetrics,

		ProcessUC: usecase.NewProcessDocumentUseCase(records, archive, fileClassifier, agents, actionRouter, cfg.MaxUploadBytes),
		RetryUC:   usecase.NewRetryActionUseCase(records, actionRouter),
		ResultsUC: usecase.NewResultsUseCase(records),
		Actions:   actionRouter,

		closeFn: func() {
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
