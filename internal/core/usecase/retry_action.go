package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkraev/docintake/internal/core/domain"
	"github.com/mkraev/docintake/internal/core/ports"
)

// RetryActionUseCase re-triggers a single action against a stored record.
// The decision context is rebuilt from persisted fields, so the action fires
// against what was extracted at processing time.
type RetryActionUseCase struct {
	records ports.RecordStore
	router  ports.ActionRouter
}

func NewRetryActionUseCase(records ports.RecordStore, router ports.ActionRouter) *RetryActionUseCase {
	return &RetryActionUseCase{records: records, router: router}
}

func (uc *RetryActionUseCase) Retry(ctx context.Context, processingID int64, actionType string) (bool, error) {
	if processingID <= 0 || actionType == "" {
		return false, domain.WrapError(domain.ErrInvalidInput, "retry action",
			fmt.Errorf("processing_id and action_type are required"))
	}

	rec, err := uc.records.GetByID(ctx, processingID)
	if err != nil {
		return false, err
	}

	dctx := retryContext(rec)
	ok := uc.router.ExecuteByName(ctx, actionType, dctx, processingID)
	if !ok {
		slog.Warn("action_retry_failed", "processing_id", processingID, "action", actionType)
		return false, nil
	}

	// Append only when absent; Update dedupes again on the way down.
	if !contains(rec.ActionsTaken, actionType) {
		err := uc.records.Update(ctx, processingID, domain.RecordUpdate{
			ActionsTaken: []string{actionType},
		})
		if err != nil {
			return true, fmt.Errorf("record retried action: %w", err)
		}
	}

	slog.Info("action_retried", "processing_id", processingID, "action", actionType)
	return true, nil
}

func retryContext(rec *domain.ProcessingRecord) domain.DecisionContext {
	confidence := 0.0
	if rec.Metadata != nil {
		if v, ok := rec.Metadata["confidence"].(float64); ok {
			confidence = v
		}
	}
	return domain.DecisionContext{
		"file_type":       string(rec.FileType),
		"business_intent": string(rec.BusinessIntent),
		"confidence":      confidence,
		"extracted_data":  rec.ExtractedData,
		"processing_id":   rec.ID,
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
