package routing

import (
	"strconv"
	"strings"

	"github.com/mkraev/docintake/internal/core/domain"
)

// BuildContext flattens a classification and the type-specific agent result
// into the attribute map the rule evaluator reasons over. Pure function; the
// returned map is owned by the caller.
func BuildContext(cls domain.Classification, res *domain.AgentResult) domain.DecisionContext {
	dctx := domain.DecisionContext{
		"file_type":       string(cls.FileType),
		"business_intent": string(cls.BusinessIntent),
		"confidence":      cls.Confidence,
	}

	if res != nil && res.ExtractedData != nil {
		extracted := res.ExtractedData

		switch cls.FileType {
		case domain.FileTypeEmail:
			dctx["urgency"] = stringField(extracted, "urgency", "medium")
			dctx["tone"] = stringField(extracted, "tone", "neutral")
			dctx["sentiment"] = stringField(extracted, "sentiment", "neutral")
			dctx["needs_crm_escalation"] = boolField(res.Metadata, "needs_crm_escalation")

		case domain.FileTypeJSON:
			dctx["high_value"] = monetaryExceeds(extracted["monetary_value"], highValueThreshold)
			dctx["schema_valid"] = nestedBoolField(res.Metadata, "validation_result", "is_valid")

		case domain.FileTypePDF:
			dctx["high_value"] = monetaryExceeds(extracted["total_amount"], highValueThreshold)
			dctx["regulatory_flags"] = hasEntries(extracted["compliance_mentions"])
		}
	}

	if res != nil && len(res.Flags) > 0 {
		// Flag vocabulary is upper-snake-case; substring match is case-sensitive.
		dctx["has_urgent_flags"] = anyFlagContains(res.Flags, "URGENT")
		dctx["has_risk_flags"] = anyFlagContains(res.Flags, "FRAUD", "RISK")
		dctx["has_compliance_flags"] = anyFlagContains(res.Flags, "GDPR", "FDA", "REGULATORY")
	}

	return dctx
}

const highValueThreshold = 10000

func stringField(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func boolField(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	v, _ := m[key].(bool)
	return v
}

func nestedBoolField(m map[string]any, outer, inner string) bool {
	if m == nil {
		return false
	}
	nested, _ := m[outer].(map[string]any)
	return boolField(nested, inner)
}

// monetaryExceeds normalizes a monetary field (number or string with
// thousands separators) and reports whether it exceeds the threshold.
// Unparsable values count as not-high-value.
func monetaryExceeds(value any, threshold float64) bool {
	switch v := value.(type) {
	case nil:
		return false
	case float64:
		return v > threshold
	case int:
		return float64(v) > threshold
	case int64:
		return float64(v) > threshold
	case string:
		amount, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			return false
		}
		return amount > threshold
	default:
		return false
	}
}

func hasEntries(value any) bool {
	switch v := value.(type) {
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	default:
		return false
	}
}

func anyFlagContains(flags []string, substrings ...string) bool {
	for _, flag := range flags {
		for _, sub := range substrings {
			if strings.Contains(flag, sub) {
				return true
			}
		}
	}
	return false
}
