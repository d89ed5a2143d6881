package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mkraev/docintake/internal/core/domain"
	"github.com/mkraev/docintake/internal/core/usecase"
	"github.com/mkraev/docintake/internal/observability/metrics"
)

const serviceName = "docintake-api"

// ActionTargetTester reports per-action availability of outbound targets.
type ActionTargetTester interface {
	TestTargets(ctx context.Context) map[string]bool
}

type Router struct {
	processUC *usecase.ProcessDocumentUseCase
	retryUC   *usecase.RetryActionUseCase
	resultsUC *usecase.ResultsUseCase
	actions   ActionTargetTester
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	processUC *usecase.ProcessDocumentUseCase,
	retryUC *usecase.RetryActionUseCase,
	resultsUC *usecase.ResultsUseCase,
	actions ActionTargetTester,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		processUC: processUC,
		retryUC:   retryUC,
		resultsUC: resultsUC,
		actions:   actions,
		metrics:   m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", rt.health)
	mux.HandleFunc("/upload", rt.upload)
	mux.HandleFunc("/results", rt.listResults)
	mux.HandleFunc("/results/", rt.getResult)
	mux.HandleFunc("/retry-action", rt.retryAction)
	mux.HandleFunc("/stats", rt.stats)
	mux.HandleFunc("/webhooks/test", rt.testWebhooks)
	mux.HandleFunc("/webhooks/crm/escalate", rt.mockWebhook("crm_escalation"))
	mux.HandleFunc("/webhooks/risk_alert", rt.mockWebhook("risk_alert"))
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.processUC.MaxUploadBytes())
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	start := time.Now()
	outcome, err := rt.processUC.Process(r.Context(), fileHeader.Filename, content)
	if err != nil {
		slog.Error("upload_failed", "filename", fileHeader.Filename, "error", err)
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordDocumentProcessed(serviceName,
			string(outcome.Classification.FileType),
			string(outcome.Classification.BusinessIntent),
			"completed",
			time.Since(start))
		for _, action := range outcome.ActionsTaken {
			rt.metrics.RecordActionExecuted(serviceName, action, "success")
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"processing_id":  outcome.ProcessingID,
		"classification": outcome.Classification,
		"agent_result":   outcome.AgentResult,
		"actions_taken":  outcome.ActionsTaken,
	})
}

func (rt *Router) listResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	filter := domain.RecordFilter{
		Status:         query.Get("status"),
		FileType:       query.Get("file_type"),
		BusinessIntent: query.Get("business_intent"),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	records, err := rt.resultsUC.List(r.Context(), filter)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if records == nil {
		records = []domain.ProcessingRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": records})
}

func (rt *Router) getResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/results/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "processing id must be a positive integer")
		return
	}

	record, err := rt.resultsUC.Get(r.Context(), id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": record})
}

func (rt *Router) retryAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		ProcessingID int64  `json:"processing_id"`
		ActionType   string `json:"action_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProcessingID <= 0 || strings.TrimSpace(req.ActionType) == "" {
		writeError(w, http.StatusBadRequest, "processing_id and action_type are required")
		return
	}

	ok, err := rt.retryUC.Retry(r.Context(), req.ProcessingID, req.ActionType)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	if rt.metrics != nil {
		outcome := "success"
		if !ok {
			outcome = "failed"
		}
		rt.metrics.RecordActionExecuted(serviceName, req.ActionType, outcome)
	}

	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "failed",
			"message": "Failed to retry action " + req.ActionType,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Action " + req.ActionType + " retried successfully",
	})
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := rt.resultsUC.Stats(r.Context())
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func (rt *Router) testWebhooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if rt.actions == nil {
		writeError(w, http.StatusServiceUnavailable, "action router not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"targets": rt.actions.TestTargets(r.Context()),
	})
}

// mockWebhook is a built-in action target for local testing: it logs the
// dispatch payload and acknowledges.
func (rt *Router) mockWebhook(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		slog.Info("mock_webhook_triggered", "webhook", name, "payload", body)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": name + " processed",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
