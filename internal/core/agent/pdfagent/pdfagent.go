// Package pdfagent extracts business fields from PDF uploads. Text comes from
// the extractor port; a model pass pulls structured fields, with regex
// fallbacks when the model is unavailable or answers garbage.
package pdfagent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/mkraev/docintake/internal/core/agent"
	"github.com/mkraev/docintake/internal/core/domain"
	"github.com/mkraev/docintake/internal/core/ports"
)

var (
	moneyPattern = regexp.MustCompile(`\$\s*[\d,]+\.?\d*|\d+\.\d{2}\s*(?:USD|EUR|GBP)`)
	datePatterns = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`)

	invoiceNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)invoice\s*#?\s*(\d+)`),
		regexp.MustCompile(`(?i)inv\s*#?\s*(\d+)`),
		regexp.MustCompile(`(?i)bill\s*#?\s*(\d+)`),
	}
	totalAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total[:\s]*\$?\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)amount[:\s]*\$?\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)sum[:\s]*\$?\s*([\d,]+\.?\d*)`),
	}

	complianceKeywords = []string{"gdpr", "fda", "hipaa", "sox", "regulation", "compliance"}
)

type Agent struct {
	model     ports.GenerativeModel
	extractor ports.PDFTextExtractor
}

func New(model ports.GenerativeModel, extractor ports.PDFTextExtractor) *Agent {
	return &Agent{model: model, extractor: extractor}
}

func (a *Agent) Process(ctx context.Context, content []byte, cls domain.Classification) (*domain.AgentResult, error) {
	text, pageCount, err := a.extractor.Extract(ctx, content)
	if err != nil {
		slog.Error("pdf_text_extraction_failed", "error", err)
		return readFailureResult(err), nil
	}
	if strings.TrimSpace(text) == "" {
		slog.Warn("pdf_no_text_content", "page_count", pageCount)
		return emptyPDFResult(pageCount), nil
	}

	analysis := a.analyze(ctx, text, cls)
	businessFields := extractBusinessFields(text)

	extracted := map[string]any{
		"text_length":     len(text),
		"page_count":      pageCount,
		"content_preview": agent.Truncate(text, 500),
	}
	for k, v := range businessFields {
		extracted[k] = v
	}
	for k, v := range analysis.ExtractedFields {
		extracted[k] = v
	}

	res := &domain.AgentResult{
		ExtractedData: extracted,
		Metadata: map[string]any{
			"processing_agent":           "pdf_agent",
			"page_count":                 pageCount,
			"file_size":                  len(content),
			"text_extraction_successful": true,
			"ai_analysis_confidence":     analysis.Confidence,
		},
		Flags:      buildFlags(text, extracted, cls),
		Confidence: 0.8,
	}

	slog.Info("pdf_processed", "pages", pageCount, "text_length", len(text))
	return res, nil
}

type pdfAnalysis struct {
	ExtractedFields map[string]any `json:"extracted_fields"`
	Confidence      float64        `json:"confidence"`
	Summary         string         `json:"summary"`
}

func (a *Agent) analyze(ctx context.Context, text string, cls domain.Classification) pdfAnalysis {
	prompt := fmt.Sprintf(`Analyze this PDF document content and extract relevant information based on the business intent: %s

Document Content:
%s

Extract the following information in JSON format:
{
    "extracted_fields": {
        "document_type": "invoice/contract/report/letter/other",
        "key_amounts": ["list of monetary amounts found"],
        "dates": ["list of important dates"],
        "contact_info": "any contact information found",
        "key_entities": ["companies, people, organizations mentioned"],
        "compliance_mentions": ["GDPR, FDA, or other regulatory mentions"]
    },
    "confidence": 0.0-1.0,
    "summary": "brief summary of document content"
}`, cls.BusinessIntent, agent.Truncate(text, 3000))

	raw, err := a.model.GenerateJSON(ctx, prompt)
	if err != nil {
		slog.Warn("pdf_model_unavailable", "error", err)
		return regexAnalysis(text)
	}

	var analysis pdfAnalysis
	if err := agent.DecodeJSON(raw, &analysis); err != nil {
		slog.Warn("pdf_model_json_invalid", "error", err)
		return regexAnalysis(text)
	}
	if analysis.ExtractedFields == nil {
		analysis.ExtractedFields = map[string]any{}
	}
	return analysis
}

func regexAnalysis(text string) pdfAnalysis {
	fields := map[string]any{}

	if amounts := moneyPattern.FindAllString(text, 5); len(amounts) > 0 {
		fields["key_amounts"] = amounts
	}
	if dates := uniqueStrings(datePatterns.FindAllString(text, -1), 5); len(dates) > 0 {
		fields["dates"] = dates
	}
	if emails := agent.FindEmails(text); len(emails) > 0 {
		fields["contact_info"] = emails[0]
	}

	lower := strings.ToLower(text)
	var mentions []string
	for _, kw := range complianceKeywords {
		if strings.Contains(lower, kw) {
			mentions = append(mentions, kw)
		}
	}
	if len(mentions) > 0 {
		fields["compliance_mentions"] = mentions
	}

	return pdfAnalysis{
		ExtractedFields: fields,
		Confidence:      0.6,
		Summary:         "Rule-based extraction performed",
	}
}

func extractBusinessFields(text string) map[string]any {
	fields := map[string]any{}

	for _, pattern := range invoiceNumberPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			fields["invoice_number"] = m[1]
			break
		}
	}
	for _, pattern := range totalAmountPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		fields["total_amount"] = amount
		break
	}
	if phone := agent.FindPhone(text); phone != "" {
		fields["phone_number"] = phone
	}
	return fields
}

func buildFlags(text string, extracted map[string]any, cls domain.Classification) []string {
	flags := []string{}

	if amount, ok := extracted["total_amount"].(float64); ok && amount > 10000 {
		flags = append(flags, "HIGH_VALUE_INVOICE")
	}

	if mentions := complianceMentions(extracted); len(mentions) > 0 {
		flags = append(flags, "REGULATORY_CONTENT")
		for _, m := range mentions {
			switch strings.ToLower(m) {
			case "gdpr":
				flags = append(flags, "GDPR_MENTIONED")
			case "fda":
				flags = append(flags, "FDA_MENTIONED")
			}
		}
	}

	lower := strings.ToLower(text)
	if agent.ContainsAny(lower, "urgent", "immediate", "asap") {
		flags = append(flags, "URGENT_CONTENT")
	}
	if agent.ContainsAny(lower, "confidential", "private", "secret") {
		flags = append(flags, "CONFIDENTIAL_CONTENT")
	}
	if agent.ContainsAny(lower, "fraud", "suspicious", "investigate") {
		flags = append(flags, "FRAUD_INDICATORS")
	}

	if len(text) < 100 {
		flags = append(flags, "SHORT_DOCUMENT")
	}
	if _, hasAmount := extracted["total_amount"]; !hasAmount && cls.BusinessIntent == domain.IntentInvoice {
		flags = append(flags, "MISSING_AMOUNT")
	}
	return flags
}

func complianceMentions(extracted map[string]any) []string {
	switch v := extracted["compliance_mentions"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func uniqueStrings(values []string, limit int) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}

func emptyPDFResult(pageCount int) *domain.AgentResult {
	return &domain.AgentResult{
		ExtractedData: map[string]any{
			"text_content":      "",
			"extraction_status": "no_text_found",
			"page_count":        pageCount,
		},
		Metadata: map[string]any{
			"processing_agent":           "pdf_agent",
			"page_count":                 pageCount,
			"text_extraction_successful": false,
		},
		Flags:      []string{"NO_TEXT_CONTENT", "POSSIBLE_IMAGE_PDF"},
		Confidence: 0.2,
	}
}

func readFailureResult(err error) *domain.AgentResult {
	return &domain.AgentResult{
		ExtractedData: map[string]any{
			"processing_error": err.Error(),
		},
		Metadata: map[string]any{
			"processing_agent": "pdf_agent",
			"fallback_used":    true,
			"error_details":    err.Error(),
		},
		Flags:      []string{"PROCESSING_ERROR", "PDF_READ_FAILED"},
		Confidence: 0.1,
	}
}
