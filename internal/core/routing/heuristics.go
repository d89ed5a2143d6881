package routing

import "github.com/mkraev/docintake/internal/core/domain"

// SupplementaryActions is the second, rule-table-independent pass. The
// returned names are informational tags: they carry no side effect and
// cannot fail.
func SupplementaryActions(dctx domain.DecisionContext) []string {
	var actions []string

	if confidence, ok := dctx["confidence"].(float64); ok && confidence > 0.9 {
		actions = append(actions, ActionHighConfidence)
	}

	if riskScore(dctx) >= 2 {
		actions = append(actions, ActionMultiRiskReview)
	}

	intent, _ := dctx["business_intent"].(string)
	switch {
	case intent == string(domain.IntentInvoice) && truthy(dctx["high_value"]):
		actions = append(actions, ActionHighValueInvoice)
	case intent == string(domain.IntentRFQ):
		actions = append(actions, ActionRFQSalesNotification)
	case intent == string(domain.IntentRegulation) && truthy(dctx["has_compliance_flags"]):
		actions = append(actions, ActionComplianceAlert)
	}

	return actions
}

// riskScore accumulates one point per independent risk indicator, 0-4.
func riskScore(dctx domain.DecisionContext) int {
	score := 0
	if truthy(dctx["has_risk_flags"]) {
		score++
	}
	if truthy(dctx["has_compliance_flags"]) {
		score++
	}
	if truthy(dctx["high_value"]) {
		score++
	}
	if tone, _ := dctx["tone"].(string); tone == "angry" || tone == "threatening" {
		score++
	}
	return score
}
