package routing

import "github.com/mkraev/docintake/internal/core/domain"

const (
	ActionCRMEscalation = "crm_escalation"
	ActionRiskAlert     = "risk_alert"

	ActionHighConfidence       = "high_confidence_processing"
	ActionMultiRiskReview      = "multi_risk_flag_review"
	ActionHighValueInvoice     = "high_value_invoice_approval"
	ActionRFQSalesNotification = "rfq_sales_notification"
	ActionComplianceAlert      = "compliance_team_alert"

	ActionRoutingError = "routing_error"
)

// DefaultRuleTable is the fixed action rule set. Order matters only for
// deterministic evaluation and logging; rules are independent of each other.
func DefaultRuleTable() []domain.ActionRule {
	return []domain.ActionRule{
		{
			Name: ActionCRMEscalation,
			Conditions: []domain.Condition{
				domain.MemberOf("urgency", "high", "urgent"),
				domain.MemberOf("tone", "angry", "threatening"),
				domain.MemberOf("business_intent", string(domain.IntentComplaint)),
			},
			Target: "/webhooks/crm/escalate",
		},
		{
			Name: ActionRiskAlert,
			Conditions: []domain.Condition{
				domain.MemberOf("business_intent", string(domain.IntentFraudRisk)),
				domain.BoolIs("high_value", true),
				domain.BoolIs("regulatory_flags", true),
			},
			Target: "/webhooks/risk_alert",
		},
	}
}

// heuristicActions are informational tags appended without any outbound call.
var heuristicActions = map[string]struct{}{
	ActionHighConfidence:       {},
	ActionMultiRiskReview:      {},
	ActionHighValueInvoice:     {},
	ActionRFQSalesNotification: {},
	ActionComplianceAlert:      {},
}

func IsHeuristicAction(name string) bool {
	_, ok := heuristicActions[name]
	return ok
}
