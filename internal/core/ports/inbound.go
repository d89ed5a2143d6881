package ports

import (
	"context"

	"github.com/mkraev/docintake/internal/core/domain"
)

// DocumentProcessor is the inbound contract for the upload pipeline.
type DocumentProcessor interface {
	Process(ctx context.Context, filename string, content []byte) (*domain.ProcessingOutcome, error)
}

// ActionRetrier re-executes a single named action against a stored record.
type ActionRetrier interface {
	Retry(ctx context.Context, processingID int64, actionType string) (bool, error)
}

// FileClassifier assigns file type and business intent to an upload.
type FileClassifier interface {
	Classify(ctx context.Context, filename string, content []byte) (domain.Classification, error)
}

// ExtractionAgent is a type-specific extractor. Implementations never fail
// hard: on error they return a low-confidence fallback result.
type ExtractionAgent interface {
	Process(ctx context.Context, content []byte, cls domain.Classification) (*domain.AgentResult, error)
}

// ActionRouter evaluates the rule table and supplementary heuristics against
// one document and executes qualifying actions.
type ActionRouter interface {
	Route(ctx context.Context, cls domain.Classification, res *domain.AgentResult, processingID int64) []string
	ExecuteByName(ctx context.Context, action string, dctx domain.DecisionContext, processingID int64) bool
}
