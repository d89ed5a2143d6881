package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/mkraev/docintake/internal/core/domain"
)

type modelFake struct {
	response string
	err      error
	prompts  []string
}

func (m *modelFake) GenerateJSON(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		want     domain.FileType
	}{
		{"pdf extension", "report.PDF", nil, domain.FileTypePDF},
		{"json extension", "data.json", nil, domain.FileTypeJSON},
		{"eml extension", "mail.eml", nil, domain.FileTypeEmail},
		{"txt extension", "note.txt", nil, domain.FileTypeEmail},
		{"pdf signature", "blob", []byte("%PDF-1.7 binary"), domain.FileTypePDF},
		{"json content", "blob", []byte(`{"amount": 12}`), domain.FileTypeJSON},
		{"email headers", "blob", []byte("From: a@b.com\nSubject: hi\n\nbody"), domain.FileTypeEmail},
		{"unrecognized", "blob", []byte("plain prose without markers"), domain.FileTypeUnknown},
		{"empty content", "blob", []byte(""), domain.FileTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFileType(tt.filename, tt.content); got != tt.want {
				t.Errorf("DetectFileType(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestClassifyUsesModelAnswer(t *testing.T) {
	model := &modelFake{response: `{"file_type": "EMAIL", "business_intent": "Complaint", "confidence": 0.92, "reasoning": "angry customer"}`}
	c := New(model)

	cls, err := c.Classify(context.Background(), "mail.eml", []byte("From: x\nSubject: broken"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.FileType != domain.FileTypeEmail {
		t.Errorf("file type = %q", cls.FileType)
	}
	if cls.BusinessIntent != domain.IntentComplaint {
		t.Errorf("intent = %q", cls.BusinessIntent)
	}
	if cls.Confidence != 0.92 {
		t.Errorf("confidence = %v", cls.Confidence)
	}
	if cls.DetectedFileType != domain.FileTypeEmail {
		t.Errorf("detected file type = %q", cls.DetectedFileType)
	}
	if len(model.prompts) != 1 {
		t.Fatalf("model called %d times", len(model.prompts))
	}
}

func TestClassifyModelGarbageFallsBack(t *testing.T) {
	model := &modelFake{response: "I cannot classify this document, sorry."}
	c := New(model)

	cls, err := c.Classify(context.Background(), "note.txt", []byte("we are very dissatisfied, this is a problem and an issue"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.BusinessIntent != domain.IntentComplaint {
		t.Errorf("intent = %q, want Complaint from keyword scoring", cls.BusinessIntent)
	}
	// 3 keyword hits: 0.4 + 0.3
	if cls.Confidence < 0.69 || cls.Confidence > 0.71 {
		t.Errorf("confidence = %v, want ~0.7", cls.Confidence)
	}
}

func TestClassifyModelErrorUsesFilenameHint(t *testing.T) {
	model := &modelFake{err: errors.New("model unavailable")}
	c := New(model)

	cls, err := c.Classify(context.Background(), "march_invoice.txt", []byte("nothing informative"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.BusinessIntent != domain.IntentInvoice {
		t.Errorf("intent = %q, want Invoice from filename hint", cls.BusinessIntent)
	}
	if cls.Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7", cls.Confidence)
	}
}

func TestClassifyNoSignalsStaysUnknown(t *testing.T) {
	model := &modelFake{err: errors.New("model unavailable")}
	c := New(model)

	cls, err := c.Classify(context.Background(), "blob", []byte("nothing here"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.BusinessIntent != domain.IntentUnknown {
		t.Errorf("intent = %q, want Unknown", cls.BusinessIntent)
	}
	if cls.Confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3", cls.Confidence)
	}
}

func TestClassifyConfidenceClamped(t *testing.T) {
	model := &modelFake{response: `{"file_type": "json", "business_intent": "Invoice", "confidence": 3.5}`}
	c := New(model)

	cls, err := c.Classify(context.Background(), "inv.json", []byte(`{}`))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.Confidence != 1 {
		t.Errorf("confidence = %v, want clamped to 1", cls.Confidence)
	}
}
