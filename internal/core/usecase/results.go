package usecase

import (
	"context"

	"github.com/mkraev/docintake/internal/core/domain"
	"github.com/mkraev/docintake/internal/core/ports"
)

// ResultsUseCase is the read side: stored records and aggregate statistics.
type ResultsUseCase struct {
	records ports.RecordStore
}

func NewResultsUseCase(records ports.RecordStore) *ResultsUseCase {
	return &ResultsUseCase{records: records}
}

func (uc *ResultsUseCase) List(ctx context.Context, filter domain.RecordFilter) ([]domain.ProcessingRecord, error) {
	return uc.records.List(ctx, filter)
}

func (uc *ResultsUseCase) Get(ctx context.Context, id int64) (*domain.ProcessingRecord, error) {
	return uc.records.GetByID(ctx, id)
}

func (uc *ResultsUseCase) Stats(ctx context.Context) (*domain.Statistics, error) {
	return uc.records.Stats(ctx)
}
