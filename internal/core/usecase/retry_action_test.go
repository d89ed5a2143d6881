package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/mkraev/docintake/internal/core/domain"
)

func storedRecord() *domain.ProcessingRecord {
	return &domain.ProcessingRecord{
		ID:             7,
		Filename:       "mail.eml",
		FileType:       domain.FileTypeEmail,
		BusinessIntent: domain.IntentComplaint,
		Status:         domain.StatusCompleted,
		ExtractedData:  map[string]any{"urgency": "high", "tone": "angry"},
		Metadata:       map[string]any{"confidence": 0.9},
		ActionsTaken:   []string{"high_confidence_processing"},
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
}

func TestRetrySuccessAppendsAction(t *testing.T) {
	store := newRecordStoreFake()
	store.records[7] = storedRecord()
	router := &routerFake{executeOK: true}

	uc := NewRetryActionUseCase(store, router)
	ok, err := uc.Retry(context.Background(), 7, "crm_escalation")
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if !ok {
		t.Fatal("retry reported failure")
	}
	if len(router.executed) != 1 || router.executed[0] != "crm_escalation" {
		t.Errorf("executed = %v", router.executed)
	}
	if len(store.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(store.updates))
	}
	if got := store.updates[0].ActionsTaken; len(got) != 1 || got[0] != "crm_escalation" {
		t.Errorf("appended actions = %v", got)
	}
}

func TestRetryContextRebuiltFromRecord(t *testing.T) {
	store := newRecordStoreFake()
	store.records[7] = storedRecord()
	router := &routerFake{executeOK: true}

	uc := NewRetryActionUseCase(store, router)
	if _, err := uc.Retry(context.Background(), 7, "crm_escalation"); err != nil {
		t.Fatalf("Retry: %v", err)
	}

	dctx := router.lastContext
	if dctx["file_type"] != "email" || dctx["business_intent"] != "Complaint" {
		t.Errorf("context = %v", dctx)
	}
	if dctx["confidence"] != 0.9 {
		t.Errorf("confidence = %v", dctx["confidence"])
	}
	if dctx["processing_id"] != int64(7) {
		t.Errorf("processing_id = %v", dctx["processing_id"])
	}
}

func TestRetryAlreadyRecordedIsIdempotent(t *testing.T) {
	store := newRecordStoreFake()
	rec := storedRecord()
	rec.ActionsTaken = []string{"crm_escalation"}
	store.records[7] = rec
	router := &routerFake{executeOK: true}

	uc := NewRetryActionUseCase(store, router)
	ok, err := uc.Retry(context.Background(), 7, "crm_escalation")
	if err != nil || !ok {
		t.Fatalf("Retry: ok=%v err=%v", ok, err)
	}
	if len(store.updates) != 0 {
		t.Errorf("updates = %d, want 0 for already-recorded action", len(store.updates))
	}
}

func TestRetryFailedExecutionNotRecorded(t *testing.T) {
	store := newRecordStoreFake()
	store.records[7] = storedRecord()
	router := &routerFake{executeOK: false}

	uc := NewRetryActionUseCase(store, router)
	ok, err := uc.Retry(context.Background(), 7, "crm_escalation")
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if ok {
		t.Error("retry reported success for failed execution")
	}
	if len(store.updates) != 0 {
		t.Errorf("updates = %d, want 0", len(store.updates))
	}
}

func TestRetryUnknownRecord(t *testing.T) {
	uc := NewRetryActionUseCase(newRecordStoreFake(), &routerFake{executeOK: true})

	_, err := uc.Retry(context.Background(), 404, "crm_escalation")
	if !domain.IsKind(err, domain.ErrRecordNotFound) {
		t.Errorf("err = %v, want record-not-found kind", err)
	}
}

func TestRetryValidatesInput(t *testing.T) {
	uc := NewRetryActionUseCase(newRecordStoreFake(), &routerFake{})

	if _, err := uc.Retry(context.Background(), 0, "crm_escalation"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want invalid-input kind", err)
	}
	if _, err := uc.Retry(context.Background(), 7, ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want invalid-input kind", err)
	}
}
