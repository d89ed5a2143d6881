package emailagent

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/mkraev/docintake/internal/core/domain"
)

type modelFake struct {
	response string
	err      error
}

func (m *modelFake) GenerateJSON(_ context.Context, _ string) (string, error) {
	return m.response, m.err
}

const angryEmail = `From: John Carter <john@example.com>
To: support@acme.com
Subject: Completely unacceptable service
Date: Mon, 12 May 2025 10:00:00 +0000

Your product failed again. This is unacceptable and I am contacting my lawyer.
Reach me at 555-123-4567. See the attached report.`

func TestProcessExtractsHeadersAndFlags(t *testing.T) {
	model := &modelFake{response: `{"urgency": "urgent", "tone": "threatening", "sentiment": "negative", "confidence": 0.85, "key_concerns": ["product failure"], "contact_info": "555-123-4567"}`}
	a := New(model)

	res, err := a.Process(context.Background(), []byte(angryEmail), domain.Classification{
		FileType:       domain.FileTypeEmail,
		BusinessIntent: domain.IntentComplaint,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if res.ExtractedData["sender"] != "John Carter <john@example.com>" {
		t.Errorf("sender = %v", res.ExtractedData["sender"])
	}
	if res.ExtractedData["subject"] != "Completely unacceptable service" {
		t.Errorf("subject = %v", res.ExtractedData["subject"])
	}
	if res.ExtractedData["urgency"] != "urgent" || res.ExtractedData["tone"] != "threatening" {
		t.Errorf("analysis = urgency %v tone %v", res.ExtractedData["urgency"], res.ExtractedData["tone"])
	}

	for _, want := range []string{"URGENT_EMAIL", "NEGATIVE_TONE", "LEGAL_THREAT", "CUSTOMER_COMPLAINT", "HAS_ATTACHMENTS"} {
		if !slices.Contains(res.Flags, want) {
			t.Errorf("flags %v missing %s", res.Flags, want)
		}
	}
	if res.Metadata["needs_crm_escalation"] != true {
		t.Errorf("needs_crm_escalation = %v, want true", res.Metadata["needs_crm_escalation"])
	}
	if res.Confidence != 0.85 {
		t.Errorf("confidence = %v", res.Confidence)
	}
}

func TestProcessKeywordFallbackOnModelError(t *testing.T) {
	a := New(&modelFake{err: errors.New("model down")})

	res, err := a.Process(context.Background(), []byte(angryEmail), domain.Classification{
		BusinessIntent: domain.IntentComplaint,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	// "unacceptable" scores angry before the lawyer mention is considered.
	if res.ExtractedData["tone"] != "angry" {
		t.Errorf("tone = %v, want angry", res.ExtractedData["tone"])
	}
	if res.Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6", res.Confidence)
	}
	if res.ExtractedData["contact_info"] != "555-123-4567" {
		t.Errorf("contact_info = %v", res.ExtractedData["contact_info"])
	}
}

func TestProcessPoliteEmailNoEscalation(t *testing.T) {
	polite := "From: a@b.com\nSubject: question\n\nPlease let me know when convenient. Thank you."
	a := New(&modelFake{err: errors.New("model down")})

	res, err := a.Process(context.Background(), []byte(polite), domain.Classification{
		BusinessIntent: domain.IntentRFQ,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Metadata["needs_crm_escalation"] != false {
		t.Errorf("needs_crm_escalation = %v, want false", res.Metadata["needs_crm_escalation"])
	}
	if slices.Contains(res.Flags, "CUSTOMER_COMPLAINT") {
		t.Errorf("flags %v should not contain CUSTOMER_COMPLAINT", res.Flags)
	}
	if res.ExtractedData["tone"] != "polite" {
		t.Errorf("tone = %v, want polite", res.ExtractedData["tone"])
	}
}

func TestProcessGarbageModelOutputFallsBack(t *testing.T) {
	a := New(&modelFake{response: "no json here"})

	res, err := a.Process(context.Background(), []byte("From: x@y.com\nSubject: urgent help needed asap"), domain.Classification{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.ExtractedData["urgency"] != "urgent" {
		t.Errorf("urgency = %v, want urgent from keywords", res.ExtractedData["urgency"])
	}
}
