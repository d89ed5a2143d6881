package ports

import (
	"context"
	"io"

	"github.com/mkraev/docintake/internal/core/domain"
)

// RecordStore persists and reads processing records.
type RecordStore interface {
	Create(ctx context.Context, rec *domain.ProcessingRecord) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.ProcessingRecord, error)
	Update(ctx context.Context, id int64, update domain.RecordUpdate) error
	List(ctx context.Context, filter domain.RecordFilter) ([]domain.ProcessingRecord, error)
	Stats(ctx context.Context) (*domain.Statistics, error)
}

// ObjectStorage archives raw uploads.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// GenerativeModel is the opaque text-in/JSON-out oracle. Its output is not
// guaranteed to be valid JSON; callers must tolerate garbage.
type GenerativeModel interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// ActionNotifier delivers a triggered action to its outbound target.
type ActionNotifier interface {
	Notify(ctx context.Context, dispatch domain.ActionDispatch) error
	Probe(ctx context.Context, action, target string) error
}

// PDFTextExtractor pulls plain text and a page count out of a PDF document.
type PDFTextExtractor interface {
	Extract(ctx context.Context, content []byte) (text string, pageCount int, err error)
}
