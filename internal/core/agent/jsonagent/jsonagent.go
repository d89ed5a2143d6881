// Package jsonagent validates and mines structured JSON uploads. It carries a
// small fixed set of business document schemas evaluated by hand; a failed
// parse or validation never surfaces as an error, only as flags and reduced
// confidence.
package jsonagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/mkraev/docintake/internal/core/domain"
)

// fieldKind restricts the accepted JSON type for a schema property.
type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindArray
	kindObject
)

type schema struct {
	properties map[string]fieldKind
	required   []string
}

var documentSchemas = map[string]schema{
	"invoice": {
		properties: map[string]fieldKind{
			"invoice_number": kindString,
			"amount":         kindNumber,
			"date":           kindString,
			"vendor":         kindString,
			"items":          kindArray,
		},
		required: []string{"invoice_number", "amount"},
	},
	"transaction": {
		properties: map[string]fieldKind{
			"transaction_id": kindString,
			"amount":         kindNumber,
			"timestamp":      kindString,
			"account":        kindString,
			"type":           kindString,
		},
		required: []string{"transaction_id", "amount"},
	},
	"rfq": {
		properties: map[string]fieldKind{
			"rfq_id":   kindString,
			"items":    kindArray,
			"deadline": kindString,
			"contact":  kindObject,
		},
		required: []string{"rfq_id", "items"},
	},
}

type Agent struct{}

func New() *Agent {
	return &Agent{}
}

func (a *Agent) Process(_ context.Context, content []byte, cls domain.Classification) (*domain.AgentResult, error) {
	var data any
	if err := json.Unmarshal(content, &data); err != nil {
		slog.Warn("json_parse_failed", "error", err)
		return invalidJSONResult(string(content), err.Error()), nil
	}

	validation := validateStructure(data, cls)
	extracted := extractBusinessData(data)
	flags := buildFlags(data, extracted, validation)

	confidence := 0.9
	if !validation.isValid {
		confidence = 0.6
	}

	obj, _ := data.(map[string]any)
	res := &domain.AgentResult{
		ExtractedData: extracted,
		Metadata: map[string]any{
			"processing_agent":  "json_agent",
			"validation_result": validation.asMap(),
			"json_structure":    analyzeStructure(data),
			"field_count":       len(obj),
		},
		Flags:      flags,
		Confidence: confidence,
	}

	slog.Info("json_processed", "valid", validation.isValid, "flags", flags)
	return res, nil
}

type validationResult struct {
	isValid       bool
	schemaMatches []string
	errors        []string
	warnings      []string
}

func (v validationResult) asMap() map[string]any {
	return map[string]any{
		"is_valid":       v.isValid,
		"schema_matches": v.schemaMatches,
		"errors":         v.errors,
		"warnings":       v.warnings,
	}
}

// validateStructure tries every known schema. A mismatch only invalidates the
// document when the classified intent expected that schema.
func validateStructure(data any, cls domain.Classification) validationResult {
	result := validationResult{
		isValid:       true,
		schemaMatches: []string{},
		errors:        []string{},
		warnings:      []string{},
	}
	intentLower := strings.ToLower(string(cls.BusinessIntent))

	for _, name := range []string{"invoice", "transaction", "rfq"} {
		s := documentSchemas[name]
		if err := s.validate(data); err == nil {
			result.schemaMatches = append(result.schemaMatches, name)
		} else if strings.Contains(name, intentLower) && intentLower != "" {
			result.errors = append(result.errors, fmt.Sprintf("expected %s schema but validation failed: %v", name, err))
			result.isValid = false
		}
	}

	checkDataQuality(data, &result)
	return result
}

func (s schema) validate(data any) error {
	obj, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("not a JSON object")
	}
	for _, field := range s.required {
		if _, present := obj[field]; !present {
			return fmt.Errorf("missing required field %q", field)
		}
	}
	for field, kind := range s.properties {
		value, present := obj[field]
		if !present || value == nil {
			continue
		}
		if !kind.accepts(value) {
			return fmt.Errorf("field %q has wrong type", field)
		}
	}
	return nil
}

func (k fieldKind) accepts(value any) bool {
	switch k {
	case kindString:
		_, ok := value.(string)
		return ok
	case kindNumber:
		_, ok := value.(float64)
		return ok
	case kindArray:
		_, ok := value.([]any)
		return ok
	case kindObject:
		_, ok := value.(map[string]any)
		return ok
	}
	return false
}

func checkDataQuality(data any, result *validationResult) {
	obj, ok := data.(map[string]any)
	if !ok {
		return
	}
	if len(obj) == 0 {
		result.warnings = append(result.warnings, "empty JSON object")
	}

	var nullFields []string
	for key, value := range obj {
		switch v := value.(type) {
		case nil:
			nullFields = append(nullFields, key)
		case string:
			if strings.TrimSpace(v) == "" {
				result.warnings = append(result.warnings, fmt.Sprintf("empty string value for field: %s", key))
			}
		case float64:
			if math.Abs(v) > 1e10 {
				result.warnings = append(result.warnings, fmt.Sprintf("unusually large number in field %s: %v", key, v))
			}
		}
	}
	if len(nullFields) > 0 {
		result.warnings = append(result.warnings, fmt.Sprintf("null values in fields: %v", nullFields))
	}
}

var (
	amountFields  = []string{"amount", "total", "price", "value", "cost", "sum"}
	idFields      = []string{"id", "invoice_id", "transaction_id", "rfq_id", "reference", "number"}
	dateFields    = []string{"date", "timestamp", "created_at", "due_date", "deadline"}
	contactFields = []string{"email", "contact", "vendor", "customer", "client"}
)

func extractBusinessData(data any) map[string]any {
	obj, isObject := data.(map[string]any)
	extracted := map[string]any{
		"json_type":   jsonType(data),
		"field_count": len(obj),
	}
	if !isObject {
		return extracted
	}

	firstOf := func(target string, candidates []string) {
		for _, field := range candidates {
			if value, present := obj[field]; present {
				extracted[target] = value
				return
			}
		}
	}
	firstOf("monetary_value", amountFields)
	firstOf("document_id", idFields)
	firstOf("date", dateFields)
	firstOf("contact_info", contactFields)

	listFields := map[string]int{}
	for key, value := range obj {
		if arr, ok := value.([]any); ok {
			listFields[key] = len(arr)
		}
	}
	if len(listFields) > 0 {
		extracted["list_fields"] = listFields
	}
	return extracted
}

func analyzeStructure(data any) map[string]any {
	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		nested, arrays := 0, 0
		for key, value := range v {
			keys = append(keys, key)
			switch value.(type) {
			case map[string]any:
				nested++
			case []any:
				arrays++
			}
		}
		return map[string]any{
			"type":           "object",
			"keys":           keys,
			"nested_objects": nested,
			"arrays":         arrays,
			"depth":          depth(v),
		}
	case []any:
		types := map[string]struct{}{}
		for _, item := range v {
			types[jsonType(item)] = struct{}{}
		}
		itemTypes := make([]string, 0, len(types))
		for t := range types {
			itemTypes = append(itemTypes, t)
		}
		return map[string]any{
			"type":       "array",
			"length":     len(v),
			"item_types": itemTypes,
		}
	default:
		return map[string]any{
			"type":  jsonType(data),
			"value": preview(fmt.Sprintf("%v", data), 100),
		}
	}
}

func depth(data any) int {
	switch v := data.(type) {
	case map[string]any:
		deepest := 0
		for _, value := range v {
			if d := depth(value); d > deepest {
				deepest = d
			}
		}
		if len(v) == 0 {
			return 0
		}
		return deepest + 1
	case []any:
		deepest := 0
		for _, item := range v {
			if d := depth(item); d > deepest {
				deepest = d
			}
		}
		if len(v) == 0 {
			return 0
		}
		return deepest + 1
	default:
		return 0
	}
}

func jsonType(data any) string {
	switch data.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func buildFlags(data any, extracted map[string]any, validation validationResult) []string {
	flags := []string{}
	if !validation.isValid {
		flags = append(flags, "SCHEMA_VALIDATION_FAILED")
	}
	if len(validation.warnings) > 0 {
		flags = append(flags, "DATA_QUALITY_ISSUES")
	}

	if monetary, present := extracted["monetary_value"]; present && monetary != nil {
		if amount, ok := toFloat(monetary); ok {
			if amount > 10000 {
				flags = append(flags, "HIGH_VALUE_TRANSACTION")
			}
			if amount < 0 {
				flags = append(flags, "NEGATIVE_AMOUNT")
			}
		} else {
			flags = append(flags, "INVALID_MONETARY_VALUE")
		}
	}

	if obj, ok := data.(map[string]any); ok {
		serialized, err := json.Marshal(obj)
		if err == nil {
			if strings.Contains(strings.ToLower(string(serialized)), "test") {
				flags = append(flags, "TEST_DATA_DETECTED")
			}
			if len(serialized) > 10000 {
				flags = append(flags, "LARGE_DOCUMENT")
			}
		}
	}
	return flags
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func invalidJSONResult(content, parseErr string) *domain.AgentResult {
	return &domain.AgentResult{
		ExtractedData: map[string]any{
			"content_length":  len(content),
			"parse_error":     parseErr,
			"content_preview": preview(content, 200),
		},
		Metadata: map[string]any{
			"processing_agent": "json_agent",
			"parse_successful": false,
			"error_details":    parseErr,
		},
		Flags:      []string{"INVALID_JSON", "PARSE_ERROR"},
		Confidence: 0.1,
	}
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
