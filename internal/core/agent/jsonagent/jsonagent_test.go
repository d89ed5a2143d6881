package jsonagent

import (
	"context"
	"slices"
	"testing"

	"github.com/mkraev/docintake/internal/core/domain"
)

func process(t *testing.T, content string, intent domain.BusinessIntent) *domain.AgentResult {
	t.Helper()
	res, err := New().Process(context.Background(), []byte(content), domain.Classification{
		FileType:       domain.FileTypeJSON,
		BusinessIntent: intent,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return res
}

func TestValidInvoiceMatchesSchema(t *testing.T) {
	res := process(t, `{"invoice_number": "INV-100", "amount": 2500.5, "vendor": "Acme", "items": []}`, domain.IntentInvoice)

	if res.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", res.Confidence)
	}
	validation := res.Metadata["validation_result"].(map[string]any)
	if validation["is_valid"] != true {
		t.Errorf("is_valid = %v", validation["is_valid"])
	}
	if matches := validation["schema_matches"].([]string); !slices.Contains(matches, "invoice") {
		t.Errorf("schema_matches = %v, want invoice", matches)
	}
	if res.ExtractedData["monetary_value"] != 2500.5 {
		t.Errorf("monetary_value = %v", res.ExtractedData["monetary_value"])
	}
	if res.ExtractedData["contact_info"] != "Acme" {
		t.Errorf("contact_info = %v", res.ExtractedData["contact_info"])
	}
}

func TestMissingRequiredFieldFailsIntentSchema(t *testing.T) {
	res := process(t, `{"amount": 100}`, domain.IntentInvoice)

	if !slices.Contains(res.Flags, "SCHEMA_VALIDATION_FAILED") {
		t.Errorf("flags = %v, want SCHEMA_VALIDATION_FAILED", res.Flags)
	}
	if res.Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6", res.Confidence)
	}
}

func TestSchemaMismatchIgnoredForOtherIntents(t *testing.T) {
	// Not an invoice, so the failed invoice schema does not invalidate.
	res := process(t, `{"amount": 100}`, domain.IntentComplaint)

	if slices.Contains(res.Flags, "SCHEMA_VALIDATION_FAILED") {
		t.Errorf("flags = %v, unexpected SCHEMA_VALIDATION_FAILED", res.Flags)
	}
}

func TestHighValueAndNegativeAmountFlags(t *testing.T) {
	res := process(t, `{"transaction_id": "T1", "amount": 15000}`, domain.IntentFraudRisk)
	if !slices.Contains(res.Flags, "HIGH_VALUE_TRANSACTION") {
		t.Errorf("flags = %v, want HIGH_VALUE_TRANSACTION", res.Flags)
	}

	res = process(t, `{"transaction_id": "T2", "amount": -50}`, domain.IntentFraudRisk)
	if !slices.Contains(res.Flags, "NEGATIVE_AMOUNT") {
		t.Errorf("flags = %v, want NEGATIVE_AMOUNT", res.Flags)
	}
}

func TestInvalidMonetaryValueFlag(t *testing.T) {
	res := process(t, `{"amount": "not-a-number"}`, domain.IntentUnknown)
	if !slices.Contains(res.Flags, "INVALID_MONETARY_VALUE") {
		t.Errorf("flags = %v, want INVALID_MONETARY_VALUE", res.Flags)
	}
}

func TestStringAmountWithSeparatorsParses(t *testing.T) {
	res := process(t, `{"amount": "12,500.00"}`, domain.IntentUnknown)
	if !slices.Contains(res.Flags, "HIGH_VALUE_TRANSACTION") {
		t.Errorf("flags = %v, want HIGH_VALUE_TRANSACTION", res.Flags)
	}
}

func TestDataQualityWarnings(t *testing.T) {
	res := process(t, `{"vendor": "", "note": null, "count": 99999999999}`, domain.IntentUnknown)

	if !slices.Contains(res.Flags, "DATA_QUALITY_ISSUES") {
		t.Errorf("flags = %v, want DATA_QUALITY_ISSUES", res.Flags)
	}
	validation := res.Metadata["validation_result"].(map[string]any)
	warnings := validation["warnings"].([]string)
	if len(warnings) != 3 {
		t.Errorf("warnings = %v, want 3 entries", warnings)
	}
}

func TestTestDataDetected(t *testing.T) {
	res := process(t, `{"customer": "Test Corp", "amount": 10}`, domain.IntentUnknown)
	if !slices.Contains(res.Flags, "TEST_DATA_DETECTED") {
		t.Errorf("flags = %v, want TEST_DATA_DETECTED", res.Flags)
	}
}

func TestStructureAnalysis(t *testing.T) {
	res := process(t, `{"a": {"b": {"c": 1}}, "items": [1, 2, 3]}`, domain.IntentUnknown)

	structure := res.Metadata["json_structure"].(map[string]any)
	if structure["type"] != "object" {
		t.Errorf("type = %v", structure["type"])
	}
	if structure["depth"] != 3 {
		t.Errorf("depth = %v, want 3", structure["depth"])
	}
	if structure["nested_objects"] != 1 || structure["arrays"] != 1 {
		t.Errorf("nested = %v arrays = %v", structure["nested_objects"], structure["arrays"])
	}
	lists := res.ExtractedData["list_fields"].(map[string]int)
	if lists["items"] != 3 {
		t.Errorf("list_fields = %v", lists)
	}
}

func TestMalformedJSONLowConfidence(t *testing.T) {
	res := process(t, `{"broken":`, domain.IntentInvoice)

	if !slices.Contains(res.Flags, "INVALID_JSON") || !slices.Contains(res.Flags, "PARSE_ERROR") {
		t.Errorf("flags = %v", res.Flags)
	}
	if res.Confidence != 0.1 {
		t.Errorf("confidence = %v, want 0.1", res.Confidence)
	}
	if res.Metadata["parse_successful"] != false {
		t.Errorf("parse_successful = %v", res.Metadata["parse_successful"])
	}
}
