package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkraev/docintake/internal/core/domain"
	"github.com/mkraev/docintake/internal/core/ports"
)

// MaxUploadBytes is the default hard cap on a single upload, used when the
// configuration does not override it.
const MaxUploadBytes = 10 * 1024 * 1024

// ProcessDocumentUseCase drives one upload through the full pipeline:
// archive, classify, extract, persist, route actions.
type ProcessDocumentUseCase struct {
	records    ports.RecordStore
	archive    ports.ObjectStorage
	classifier ports.FileClassifier
	agents     map[domain.FileType]ports.ExtractionAgent
	router     ports.ActionRouter
	maxBytes   int64
}

func NewProcessDocumentUseCase(
	records ports.RecordStore,
	archive ports.ObjectStorage,
	classifier ports.FileClassifier,
	agents map[domain.FileType]ports.ExtractionAgent,
	router ports.ActionRouter,
	maxBytes int64,
) *ProcessDocumentUseCase {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}
	return &ProcessDocumentUseCase{
		records:    records,
		archive:    archive,
		classifier: classifier,
		agents:     agents,
		router:     router,
		maxBytes:   maxBytes,
	}
}

// MaxUploadBytes reports the configured upload cap, so the transport layer
// can reject oversized bodies before buffering them.
func (uc *ProcessDocumentUseCase) MaxUploadBytes() int64 {
	return uc.maxBytes
}

func (uc *ProcessDocumentUseCase) Process(ctx context.Context, filename string, content []byte) (*domain.ProcessingOutcome, error) {
	if filename == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process document", fmt.Errorf("empty filename"))
	}
	if int64(len(content)) > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process document",
			fmt.Errorf("file too large: %d bytes, maximum is %d", len(content), uc.maxBytes))
	}

	archiveKey := uc.archiveUpload(ctx, filename, content)

	cls, err := uc.classifier.Classify(ctx, filename, content)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", filename, err)
	}

	now := time.Now().UTC()
	metadata := map[string]any{
		"confidence":         cls.Confidence,
		"reasoning":          cls.Reasoning,
		"detected_file_type": string(cls.DetectedFileType),
	}
	if archiveKey != "" {
		metadata["archive_key"] = archiveKey
	}

	processingID, err := uc.records.Create(ctx, &domain.ProcessingRecord{
		Filename:       filename,
		FileType:       cls.FileType,
		BusinessIntent: cls.BusinessIntent,
		Status:         domain.StatusProcessing,
		ExtractedData:  map[string]any{},
		Metadata:       metadata,
		ActionsTaken:   []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("create record for %s: %w", filename, err)
	}

	agentResult := uc.runAgent(ctx, cls, content, processingID)

	if agentResult != nil {
		processed := domain.StatusProcessed
		err := uc.records.Update(ctx, processingID, domain.RecordUpdate{
			Status:        &processed,
			ExtractedData: agentResult.ExtractedData,
			Metadata:      agentResult.Metadata,
		})
		if err != nil {
			slog.Error("record_update_failed", "processing_id", processingID, "stage", "processed", "error", err)
		}
	}

	actions := uc.router.Route(ctx, cls, agentResult, processingID)

	completed := domain.StatusCompleted
	err = uc.records.Update(ctx, processingID, domain.RecordUpdate{
		Status:       &completed,
		ActionsTaken: actions,
	})
	if err != nil {
		slog.Error("record_update_failed", "processing_id", processingID, "stage", "completed", "error", err)
	}

	slog.Info("document_processed",
		"processing_id", processingID,
		"filename", filename,
		"file_type", cls.FileType,
		"business_intent", cls.BusinessIntent,
		"actions", actions)

	return &domain.ProcessingOutcome{
		ProcessingID:   processingID,
		Classification: cls,
		AgentResult:    agentResult,
		ActionsTaken:   actions,
	}, nil
}

// archiveUpload stores the raw bytes for later inspection. Archive failures
// are logged and skipped; they never block processing.
func (uc *ProcessDocumentUseCase) archiveUpload(ctx context.Context, filename string, content []byte) string {
	if uc.archive == nil {
		return ""
	}
	key := uuid.NewString() + "_" + sanitizeFilename(filename)
	if err := uc.archive.Save(ctx, key, bytes.NewReader(content)); err != nil {
		slog.Warn("upload_archive_failed", "filename", filename, "error", err)
		return ""
	}
	return key
}

func (uc *ProcessDocumentUseCase) runAgent(ctx context.Context, cls domain.Classification, content []byte, processingID int64) *domain.AgentResult {
	ag, ok := uc.agents[cls.FileType]
	if !ok {
		slog.Info("no_agent_for_file_type", "file_type", cls.FileType, "processing_id", processingID)
		return nil
	}
	res, err := ag.Process(ctx, content, cls)
	if err != nil {
		// Agents degrade internally; an error here means even the fallback
		// path gave up. Continue with no agent result.
		slog.Error("agent_failed", "file_type", cls.FileType, "processing_id", processingID, "error", err)
		return nil
	}
	return res
}

func sanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
