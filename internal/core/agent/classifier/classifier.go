// Package classifier assigns a file type and a business intent to every
// upload. Classification is best-effort: when the model is unreachable or
// returns garbage, a keyword fallback produces a lower-confidence answer
// instead of an error.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkraev/docintake/internal/core/agent"
	"github.com/mkraev/docintake/internal/core/domain"
	"github.com/mkraev/docintake/internal/core/ports"
)

const fewShotExamples = `Examples of file classification:

1. Email about pricing inquiry:
   File Type: email
   Business Intent: RFQ

2. JSON invoice data with amount > $10,000:
   File Type: json
   Business Intent: Invoice

3. PDF complaint letter with angry tone:
   File Type: pdf
   Business Intent: Complaint

4. Email mentioning GDPR violations:
   File Type: email
   Business Intent: Regulation

5. JSON transaction data with suspicious patterns:
   File Type: json
   Business Intent: Fraud Risk`

type Classifier struct {
	model ports.GenerativeModel
}

func New(model ports.GenerativeModel) *Classifier {
	return &Classifier{model: model}
}

func (c *Classifier) Classify(ctx context.Context, filename string, content []byte) (domain.Classification, error) {
	fileType := DetectFileType(filename, content)
	text := textForAnalysis(content, fileType)

	raw, err := c.model.GenerateJSON(ctx, c.buildPrompt(filename, fileType, text))
	if err != nil {
		slog.Warn("classifier_model_unavailable", "filename", filename, "error", err)
		return c.fallback(filename, fileType, text), nil
	}

	var modelResult struct {
		FileType       string  `json:"file_type"`
		BusinessIntent string  `json:"business_intent"`
		Confidence     float64 `json:"confidence"`
		Reasoning      string  `json:"reasoning"`
	}
	if err := agent.DecodeJSON(raw, &modelResult); err != nil {
		slog.Warn("classifier_model_json_invalid", "filename", filename, "error", err)
		return c.fallback(filename, fileType, text), nil
	}

	cls := domain.Classification{
		FileType:         normalizeFileType(modelResult.FileType, fileType),
		BusinessIntent:   normalizeIntent(modelResult.BusinessIntent),
		Confidence:       clampConfidence(modelResult.Confidence),
		Reasoning:        modelResult.Reasoning,
		Filename:         filename,
		DetectedFileType: fileType,
	}
	if cls.Reasoning == "" {
		cls.Reasoning = "AI classification"
	}

	slog.Info("file_classified",
		"filename", filename,
		"file_type", cls.FileType,
		"business_intent", cls.BusinessIntent,
		"confidence", cls.Confidence)
	return cls, nil
}

func (c *Classifier) buildPrompt(filename string, fileType domain.FileType, text string) string {
	return fmt.Sprintf(`%s

Analyze this %s file and classify it:

Filename: %s
Content preview: %s

Classify this file with:
1. File Type: email, json, or pdf
2. Business Intent: RFQ, Complaint, Invoice, Regulation, or Fraud Risk

Provide your response in JSON format:
{
    "file_type": "email/json/pdf",
    "business_intent": "RFQ/Complaint/Invoice/Regulation/Fraud Risk",
    "confidence": 0.0-1.0,
    "reasoning": "explanation of classification decision"
}`, fewShotExamples, fileType, filename, agent.Truncate(text, 2000))
}

// DetectFileType resolves the file type from the extension first, then from
// content: a %PDF signature, a successful JSON parse, or email-style headers.
func DetectFileType(filename string, content []byte) domain.FileType {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return domain.FileTypePDF
	case strings.HasSuffix(lower, ".json"):
		return domain.FileTypeJSON
	case strings.HasSuffix(lower, ".eml"), strings.HasSuffix(lower, ".msg"), strings.HasSuffix(lower, ".txt"):
		return domain.FileTypeEmail
	}

	if strings.HasPrefix(string(content[:min(len(content), 4)]), "%PDF") {
		return domain.FileTypePDF
	}
	if json.Valid(content) && len(strings.TrimSpace(string(content))) > 0 {
		return domain.FileTypeJSON
	}
	textLower := strings.ToLower(string(content))
	for _, header := range []string{"from:", "to:", "subject:", "date:"} {
		if strings.Contains(textLower, header) {
			return domain.FileTypeEmail
		}
	}
	return domain.FileTypeUnknown
}

func textForAnalysis(content []byte, fileType domain.FileType) string {
	if fileType == domain.FileTypePDF {
		// Raw PDF bytes are useless in a prompt; the PDF agent extracts text later.
		return "PDF file detected - content will be extracted by PDF agent"
	}
	return string(content)
}

var intentKeywords = []struct {
	intent   domain.BusinessIntent
	keywords []string
}{
	{domain.IntentRFQ, []string{"quote", "rfq", "request for quote", "pricing", "proposal", "bid", "quotation"}},
	{domain.IntentComplaint, []string{"complaint", "dissatisfied", "problem", "issue", "unhappy", "terrible",
		"disappointed", "angry", "frustrated", "unacceptable", "poor service"}},
	{domain.IntentInvoice, []string{"invoice", "bill", "payment", "amount", "total", "due", "balance",
		"invoice number", "account payable", "remittance"}},
	{domain.IntentRegulation, []string{"gdpr", "regulation", "compliance", "fda", "regulatory", "policy",
		"standard", "requirement", "audit", "certification"}},
	{domain.IntentFraudRisk, []string{"fraud", "suspicious", "anomaly", "irregular", "unauthorized",
		"security breach", "investigation", "alert"}},
}

var filenameHints = []struct {
	hint   string
	intent domain.BusinessIntent
}{
	{"complaint", domain.IntentComplaint},
	{"invoice", domain.IntentInvoice},
	{"bill", domain.IntentInvoice},
	{"quote", domain.IntentRFQ},
	{"rfq", domain.IntentRFQ},
	{"regulation", domain.IntentRegulation},
	{"compliance", domain.IntentRegulation},
	{"fraud", domain.IntentFraudRisk},
}

func (c *Classifier) fallback(filename string, fileType domain.FileType, text string) domain.Classification {
	cls := domain.Classification{
		FileType:         fileType,
		BusinessIntent:   domain.IntentUnknown,
		Confidence:       0.3,
		Reasoning:        "Rule-based classification",
		Filename:         filename,
		DetectedFileType: fileType,
	}

	filenameLower := strings.ToLower(filename)
	for _, h := range filenameHints {
		if strings.Contains(filenameLower, h.hint) {
			cls.BusinessIntent = h.intent
			cls.Confidence = 0.7
			cls.Reasoning = fmt.Sprintf("Filename contains %q", h.hint)
			return cls
		}
	}

	textLower := strings.ToLower(text)
	bestScore := 0
	for _, group := range intentKeywords {
		score := 0
		for _, kw := range group.keywords {
			if strings.Contains(textLower, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			cls.BusinessIntent = group.intent
		}
	}
	if bestScore > 0 {
		cls.Confidence = min(0.8, 0.4+float64(bestScore)*0.1)
		cls.Reasoning = fmt.Sprintf("Content analysis: %d relevant keywords found", bestScore)
	}
	return cls
}

func normalizeFileType(raw string, detected domain.FileType) domain.FileType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "email":
		return domain.FileTypeEmail
	case "json":
		return domain.FileTypeJSON
	case "pdf":
		return domain.FileTypePDF
	case "":
		return detected
	default:
		return detected
	}
}

func normalizeIntent(raw string) domain.BusinessIntent {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "rfq":
		return domain.IntentRFQ
	case "complaint":
		return domain.IntentComplaint
	case "invoice":
		return domain.IntentInvoice
	case "regulation":
		return domain.IntentRegulation
	case "fraud risk":
		return domain.IntentFraudRisk
	default:
		return domain.IntentUnknown
	}
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
