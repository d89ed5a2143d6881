package routing

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkraev/docintake/internal/core/domain"
	"github.com/mkraev/docintake/internal/core/ports"
)

// Router maps a document's decision context to a set of executed actions:
// rule table first (each qualifying rule dispatched through the notifier),
// then supplementary heuristics appended as plain tags.
type Router struct {
	notifier ports.ActionNotifier
	rules    []domain.ActionRule
	now      func() time.Time
}

func NewRouter(notifier ports.ActionNotifier) *Router {
	return &Router{
		notifier: notifier,
		rules:    DefaultRuleTable(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Route never panics outward: any failure inside routing degrades to the
// single sentinel action "routing_error".
func (r *Router) Route(ctx context.Context, cls domain.Classification, res *domain.AgentResult, processingID int64) (actions []string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("action_routing_panic", "processing_id", processingID, "panic", rec)
			actions = []string{ActionRoutingError}
		}
	}()

	dctx := BuildContext(cls, res)

	var taken []string
	for _, rule := range r.rules {
		if !RuleSatisfied(dctx, rule) {
			continue
		}
		if r.execute(ctx, rule.Name, rule, dctx, processingID) {
			taken = append(taken, rule.Name)
			slog.Info("action_executed", "action", rule.Name, "processing_id", processingID)
		} else {
			slog.Error("action_execution_failed", "action", rule.Name, "processing_id", processingID)
		}
	}

	taken = append(taken, SupplementaryActions(dctx)...)
	return Dedupe(taken)
}

// ExecuteByName re-triggers one action against a reconstructed context.
// Rule-table actions go through their configured target; heuristic actions
// are informational and succeed without an outbound call.
func (r *Router) ExecuteByName(ctx context.Context, action string, dctx domain.DecisionContext, processingID int64) bool {
	for _, rule := range r.rules {
		if rule.Name == action {
			return r.execute(ctx, action, rule, dctx, processingID)
		}
	}
	if IsHeuristicAction(action) {
		return true
	}
	slog.Error("unknown_action", "action", action, "processing_id", processingID)
	return false
}

func (r *Router) execute(ctx context.Context, action string, rule domain.ActionRule, dctx domain.DecisionContext, processingID int64) bool {
	if rule.Target == "" {
		slog.Error("action_has_no_target", "action", action, "processing_id", processingID)
		return false
	}

	err := r.notifier.Notify(ctx, domain.ActionDispatch{
		Action:            action,
		ProcessingID:      processingID,
		Context:           dctx,
		Timestamp:         r.now(),
		TriggerConditions: rule.Conditions,
		Target:            rule.Target,
	})
	if err != nil {
		slog.Error("action_notify_failed", "action", action, "processing_id", processingID, "error", err)
		return false
	}
	return true
}

// TestTargets probes every configured outbound target and reports
// per-action availability.
func (r *Router) TestTargets(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(r.rules))
	for _, rule := range r.rules {
		if rule.Target == "" {
			results[rule.Name] = false
			continue
		}
		results[rule.Name] = r.notifier.Probe(ctx, rule.Name, rule.Target) == nil
	}
	return results
}

// Dedupe removes duplicate action names, keeping first-occurrence order.
func Dedupe(actions []string) []string {
	if len(actions) == 0 {
		return actions
	}
	seen := make(map[string]struct{}, len(actions))
	out := actions[:0]
	for _, a := range actions {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
