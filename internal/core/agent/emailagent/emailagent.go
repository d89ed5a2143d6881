// Package emailagent extracts headers, tone and urgency from email uploads.
package emailagent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mkraev/docintake/internal/core/agent"
	"github.com/mkraev/docintake/internal/core/domain"
	"github.com/mkraev/docintake/internal/core/ports"
)

var (
	senderPattern    = regexp.MustCompile(`(?i)From:\s*(.+)`)
	recipientPattern = regexp.MustCompile(`(?i)To:\s*(.+)`)
	subjectPattern   = regexp.MustCompile(`(?i)Subject:\s*(.+)`)
	datePattern      = regexp.MustCompile(`(?i)Date:\s*(.+)`)
)

type Agent struct {
	model ports.GenerativeModel
}

func New(model ports.GenerativeModel) *Agent {
	return &Agent{model: model}
}

func (a *Agent) Process(ctx context.Context, content []byte, cls domain.Classification) (result *domain.AgentResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("email_agent_panic", "panic", rec)
			result, err = a.fallback(string(content)), nil
		}
	}()

	text := string(content)
	headers := extractHeaders(text)
	analysis := a.analyze(ctx, text)

	extracted := map[string]any{
		"urgency":         analysis.Urgency,
		"tone":            analysis.Tone,
		"sentiment":       analysis.Sentiment,
		"key_concerns":    analysis.KeyConcerns,
		"contact_info":    analysis.ContactInfo,
		"content_length":  len(text),
		"has_attachments": mentionsAttachments(text),
	}
	for k, v := range headers {
		extracted[k] = v
	}

	needsEscalation := isOneOf(analysis.Urgency, "high", "urgent") &&
		isOneOf(analysis.Tone, "angry", "threatening")

	res := &domain.AgentResult{
		ExtractedData: extracted,
		Metadata: map[string]any{
			"needs_crm_escalation": needsEscalation,
			"processing_agent":     "email_agent",
			"analysis_confidence":  analysis.Confidence,
		},
		Flags:      buildFlags(analysis, extracted, cls),
		Confidence: analysis.Confidence,
	}

	slog.Info("email_processed",
		"sender", headers["sender"],
		"urgency", analysis.Urgency,
		"tone", analysis.Tone,
		"needs_crm_escalation", needsEscalation)
	return res, nil
}

type emailAnalysis struct {
	Urgency     string   `json:"urgency"`
	Tone        string   `json:"tone"`
	Sentiment   string   `json:"sentiment"`
	Confidence  float64  `json:"confidence"`
	KeyConcerns []string `json:"key_concerns"`
	ContactInfo string   `json:"contact_info"`
}

func (a *Agent) analyze(ctx context.Context, text string) emailAnalysis {
	prompt := fmt.Sprintf(`Analyze this email and extract the following information:

Email Content:
%s

Provide analysis in JSON format:
{
    "urgency": "low/medium/high/urgent",
    "tone": "polite/neutral/frustrated/angry/threatening",
    "sentiment": "positive/neutral/negative",
    "confidence": 0.0-1.0,
    "key_concerns": ["list", "of", "main", "concerns"],
    "contact_info": "extracted phone/email if any"
}`, agent.Truncate(text, 2000))

	raw, err := a.model.GenerateJSON(ctx, prompt)
	if err != nil {
		slog.Warn("email_model_unavailable", "error", err)
		return keywordAnalysis(text)
	}

	var analysis emailAnalysis
	if err := agent.DecodeJSON(raw, &analysis); err != nil {
		slog.Warn("email_model_json_invalid", "error", err)
		return keywordAnalysis(text)
	}
	if analysis.KeyConcerns == nil {
		analysis.KeyConcerns = []string{}
	}
	return analysis
}

func keywordAnalysis(text string) emailAnalysis {
	lower := strings.ToLower(text)

	urgency := "low"
	switch {
	case agent.ContainsAny(lower, "urgent", "asap", "immediately", "emergency"):
		urgency = "urgent"
	case agent.ContainsAny(lower, "soon", "quickly", "priority"):
		urgency = "high"
	case agent.ContainsAny(lower, "when possible", "convenient"):
		urgency = "medium"
	}

	tone := "neutral"
	switch {
	case agent.ContainsAny(lower, "please", "thank", "appreciate", "kind"):
		tone = "polite"
	case agent.ContainsAny(lower, "disappointed", "frustrated", "upset"):
		tone = "frustrated"
	case agent.ContainsAny(lower, "angry", "outraged", "unacceptable"):
		tone = "angry"
	case agent.ContainsAny(lower, "lawyer", "legal", "sue", "lawsuit"):
		tone = "threatening"
	}

	sentiment := "neutral"
	switch {
	case agent.ContainsAny(lower, "happy", "satisfied", "excellent", "great"):
		sentiment = "positive"
	case agent.ContainsAny(lower, "problem", "issue", "complaint", "terrible"):
		sentiment = "negative"
	}

	return emailAnalysis{
		Urgency:     urgency,
		Tone:        tone,
		Sentiment:   sentiment,
		Confidence:  0.6,
		KeyConcerns: []string{},
		ContactInfo: agent.FindContact(text),
	}
}

func extractHeaders(text string) map[string]string {
	headers := map[string]string{}
	extract := func(key string, pattern *regexp.Regexp) {
		if m := pattern.FindStringSubmatch(text); m != nil {
			headers[key] = strings.TrimSpace(m[1])
		}
	}
	extract("sender", senderPattern)
	extract("recipient", recipientPattern)
	extract("subject", subjectPattern)
	extract("date", datePattern)
	return headers
}

func mentionsAttachments(text string) bool {
	lower := strings.ToLower(text)
	return agent.ContainsAny(lower, "attachment", "attached", "file", "document", "pdf", "image")
}

func buildFlags(analysis emailAnalysis, extracted map[string]any, cls domain.Classification) []string {
	flags := []string{}
	if analysis.Urgency == "urgent" {
		flags = append(flags, "URGENT_EMAIL")
	}
	if isOneOf(analysis.Tone, "angry", "threatening") {
		flags = append(flags, "NEGATIVE_TONE")
	}
	if analysis.Tone == "threatening" {
		flags = append(flags, "LEGAL_THREAT")
	}
	if cls.BusinessIntent == domain.IntentComplaint {
		flags = append(flags, "CUSTOMER_COMPLAINT")
	}
	if attached, ok := extracted["has_attachments"].(bool); ok && attached {
		flags = append(flags, "HAS_ATTACHMENTS")
	}
	return flags
}

func isOneOf(value string, options ...string) bool {
	lower := strings.ToLower(value)
	for _, opt := range options {
		if lower == opt {
			return true
		}
	}
	return false
}

func (a *Agent) fallback(text string) *domain.AgentResult {
	return &domain.AgentResult{
		ExtractedData: map[string]any{
			"sender":         "unknown",
			"urgency":        "medium",
			"tone":           "neutral",
			"content_length": len(text),
		},
		Metadata: map[string]any{
			"needs_crm_escalation": false,
			"processing_agent":     "email_agent",
			"fallback_used":        true,
		},
		Flags:      []string{"PROCESSING_ERROR"},
		Confidence: 0.3,
	}
}
