package routing

import (
	"reflect"

	"github.com/mkraev/docintake/internal/core/domain"
)

// Evaluate interprets a single condition against the context.
//
// A condition whose attribute is absent from the context is vacuously
// satisfied, so a missing attribute can never veto a rule. See the
// vacuous-pass tests before changing this.
func Evaluate(dctx domain.DecisionContext, cond domain.Condition) bool {
	value, present := dctx[cond.Attribute]
	if !present {
		return true
	}

	switch {
	case cond.MemberOf != nil:
		s, ok := value.(string)
		if !ok {
			return false
		}
		for _, allowed := range cond.MemberOf {
			if s == allowed {
				return true
			}
		}
		return false

	case cond.BoolIs != nil:
		return truthy(value) == *cond.BoolIs

	default:
		return reflect.DeepEqual(value, cond.Equals)
	}
}

// RuleSatisfied reports whether all conditions of the rule hold. A rule with
// zero conditions never fires (default-deny). Evaluation short-circuits on
// the first failing condition.
func RuleSatisfied(dctx domain.DecisionContext, rule domain.ActionRule) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	for _, cond := range rule.Conditions {
		if !Evaluate(dctx, cond) {
			return false
		}
	}
	return true
}

// truthy mirrors the loose boolean coercion the rule table was written
// against: zero values, empty strings and empty collections are false.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
