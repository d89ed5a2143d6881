package domain

import "time"

// DecisionContext is the flat attribute map the action router reasons over.
// It is rebuilt fresh per invocation and never shared across requests.
type DecisionContext map[string]any

// Condition is an explicit tagged condition: exactly one of MemberOf, BoolIs
// or Equals is set. A condition on an attribute absent from the context is
// vacuously satisfied; see routing.Evaluate.
type Condition struct {
	Attribute string   `json:"attribute"`
	MemberOf  []string `json:"member_of,omitempty"`
	BoolIs    *bool    `json:"bool_is,omitempty"`
	Equals    any      `json:"equals,omitempty"`
}

func MemberOf(attribute string, values ...string) Condition {
	return Condition{Attribute: attribute, MemberOf: values}
}

func BoolIs(attribute string, value bool) Condition {
	return Condition{Attribute: attribute, BoolIs: &value}
}

func Equals(attribute string, value any) Condition {
	return Condition{Attribute: attribute, Equals: value}
}

// ActionRule is static configuration, loaded once at process start.
type ActionRule struct {
	Name       string
	Conditions []Condition
	Target     string
}

// ActionDispatch is the payload delivered to an outbound action target.
type ActionDispatch struct {
	Action            string          `json:"action"`
	ProcessingID      int64           `json:"processing_id"`
	Context           DecisionContext `json:"context"`
	Timestamp         time.Time       `json:"timestamp"`
	TriggerConditions []Condition     `json:"trigger_conditions"`

	Target string `json:"-"`
}
