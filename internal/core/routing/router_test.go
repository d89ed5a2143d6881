package routing

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mkraev/docintake/internal/core/domain"
)

type notifierFake struct {
	dispatches []domain.ActionDispatch
	failFor    map[string]error
	probeErr   error
}

func (f *notifierFake) Notify(_ context.Context, dispatch domain.ActionDispatch) error {
	if err, ok := f.failFor[dispatch.Action]; ok {
		return err
	}
	f.dispatches = append(f.dispatches, dispatch)
	return nil
}

func (f *notifierFake) Probe(context.Context, string, string) error {
	return f.probeErr
}

func emailResult(urgency, tone string) *domain.AgentResult {
	return &domain.AgentResult{
		ExtractedData: map[string]any{
			"urgency": urgency,
			"tone":    tone,
		},
		Metadata: map[string]any{},
	}
}

func TestRouteCRMEscalationExample(t *testing.T) {
	notifier := &notifierFake{}
	router := NewRouter(notifier)

	cls := domain.Classification{
		FileType:       domain.FileTypeEmail,
		BusinessIntent: domain.IntentComplaint,
		Confidence:     0.8,
	}

	actions := router.Route(context.Background(), cls, emailResult("urgent", "angry"), 7)

	if !contains(actions, ActionCRMEscalation) {
		t.Fatalf("expected crm_escalation in %v", actions)
	}
	if len(notifier.dispatches) != 1 {
		t.Fatalf("expected one dispatched action, got %d", len(notifier.dispatches))
	}
	dispatch := notifier.dispatches[0]
	if dispatch.Target != "/webhooks/crm/escalate" || dispatch.ProcessingID != 7 {
		t.Fatalf("unexpected dispatch: %+v", dispatch)
	}
	if len(dispatch.TriggerConditions) != 3 {
		t.Fatalf("dispatch must carry the triggering condition list")
	}
}

func TestRouteRiskAlertExample(t *testing.T) {
	notifier := &notifierFake{}
	router := NewRouter(notifier)

	cls := domain.Classification{
		FileType:       domain.FileTypePDF,
		BusinessIntent: domain.IntentFraudRisk,
		Confidence:     0.8,
	}
	res := &domain.AgentResult{
		ExtractedData: map[string]any{
			"total_amount":        20000.0,
			"compliance_mentions": []string{"fda"},
		},
	}

	actions := router.Route(context.Background(), cls, res, 3)

	if !contains(actions, ActionRiskAlert) {
		t.Fatalf("expected risk_alert in %v", actions)
	}
}

func TestRouteUnmetConditionsTriggerNoTableActions(t *testing.T) {
	notifier := &notifierFake{}
	router := NewRouter(notifier)

	// Every rule attribute present, all conditions unmet.
	cls := domain.Classification{
		FileType:       domain.FileTypeEmail,
		BusinessIntent: domain.IntentInvoice,
		Confidence:     0.5,
	}
	res := emailResult("low", "polite")

	router.Route(context.Background(), cls, res, 1)

	if len(notifier.dispatches) != 0 {
		t.Fatalf("no rule should dispatch, got %v", notifier.dispatches)
	}
}

type panickingNotifier struct{}

func (panickingNotifier) Notify(context.Context, domain.ActionDispatch) error {
	panic("notifier exploded")
}

func (panickingNotifier) Probe(context.Context, string, string) error {
	return nil
}

func TestRoutePanicDegradesToRoutingError(t *testing.T) {
	router := NewRouter(panickingNotifier{})

	cls := domain.Classification{
		FileType:       domain.FileTypeEmail,
		BusinessIntent: domain.IntentComplaint,
		Confidence:     0.8,
	}

	actions := router.Route(context.Background(), cls, emailResult("urgent", "angry"), 11)

	if !reflect.DeepEqual(actions, []string{ActionRoutingError}) {
		t.Fatalf("actions = %v, want [%s]", actions, ActionRoutingError)
	}
}

func TestRouteFailedExecutionOmitsAction(t *testing.T) {
	notifier := &notifierFake{failFor: map[string]error{
		ActionCRMEscalation: errors.New("webhook down"),
	}}
	router := NewRouter(notifier)

	cls := domain.Classification{
		FileType:       domain.FileTypeEmail,
		BusinessIntent: domain.IntentComplaint,
		Confidence:     0.8,
	}

	actions := router.Route(context.Background(), cls, emailResult("urgent", "threatening"), 5)

	if contains(actions, ActionCRMEscalation) {
		t.Fatalf("failed action must not be recorded as taken: %v", actions)
	}
	// Heuristics still run: angry/threatening tone alone scores 1, no review.
	if contains(actions, ActionMultiRiskReview) {
		t.Fatalf("unexpected heuristic action: %v", actions)
	}
}

func TestRouteAppendsHeuristicsWithoutDispatch(t *testing.T) {
	notifier := &notifierFake{}
	router := NewRouter(notifier)

	cls := domain.Classification{
		FileType:       domain.FileTypeJSON,
		BusinessIntent: domain.IntentRFQ,
		Confidence:     0.95,
	}

	actions := router.Route(context.Background(), cls, nil, 2)

	want := []string{ActionHighConfidence, ActionRFQSalesNotification}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
	if len(notifier.dispatches) != 0 {
		t.Fatalf("heuristic actions must not dispatch webhooks")
	}
}

func TestExecuteByNameUnknownActionFails(t *testing.T) {
	router := NewRouter(&notifierFake{})

	if router.ExecuteByName(context.Background(), "made_up_action", domain.DecisionContext{}, 1) {
		t.Fatalf("unknown action must not execute")
	}
}

func TestExecuteByNameHeuristicActionSucceedsWithoutDispatch(t *testing.T) {
	notifier := &notifierFake{}
	router := NewRouter(notifier)

	ok := router.ExecuteByName(context.Background(), ActionRFQSalesNotification, domain.DecisionContext{}, 1)

	if !ok {
		t.Fatalf("heuristic action retry must succeed")
	}
	if len(notifier.dispatches) != 0 {
		t.Fatalf("heuristic action must not dispatch")
	}
}

func TestExecuteByNameRuleActionDispatches(t *testing.T) {
	notifier := &notifierFake{}
	router := NewRouter(notifier)

	ok := router.ExecuteByName(context.Background(), ActionRiskAlert, domain.DecisionContext{"file_type": "pdf"}, 9)

	if !ok {
		t.Fatalf("rule action retry must succeed when the notifier accepts it")
	}
	if len(notifier.dispatches) != 1 || notifier.dispatches[0].Target != "/webhooks/risk_alert" {
		t.Fatalf("unexpected dispatches: %+v", notifier.dispatches)
	}
}

func TestTestTargetsReportsPerAction(t *testing.T) {
	notifier := &notifierFake{probeErr: errors.New("unreachable")}
	router := NewRouter(notifier)

	results := router.TestTargets(context.Background())

	if len(results) != 2 || results[ActionCRMEscalation] || results[ActionRiskAlert] {
		t.Fatalf("unexpected probe results: %v", results)
	}
}

func TestDedupePreservesFirstOccurrenceOrder(t *testing.T) {
	got := Dedupe([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Dedupe() = %v, want %v", got, want)
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
