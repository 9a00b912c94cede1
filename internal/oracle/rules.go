package oracle

import (
	"context"
	"strings"
)

// RuleOracle is the built-in data-minimization oracle. It enforces the same
// rules the hosted compliance model is prompted with, so development and
// degraded-mode deployments behave predictably:
//
//   - BVN/NIN may only be collected by Fintech or Healthcare organizations.
//   - An organization without a declared policy gets referred, not approved.
//   - Everything else is approved as necessary and proportionate.
type RuleOracle struct{}

func NewRuleOracle() *RuleOracle {
	return &RuleOracle{}
}

// restrictedCategories are the business categories allowed to collect
// national identifiers.
var restrictedCategories = map[string]bool{
	"Fintech":    true,
	"Healthcare": true,
}

func (o *RuleOracle) Evaluate(_ context.Context, draft Draft) (Result, error) {
	if strings.TrimSpace(draft.PolicyText) == "" {
		return Result{
			Decision:  DecisionRefer,
			Rationale: "organization has no declared data policy; deferring to the citizen",
		}, nil
	}

	if draft.DataType.Restricted() && !restrictedCategories[draft.Category] {
		return Result{
			Decision:  DecisionDeny,
			Rationale: "national identifiers are not necessary or proportionate for a " + categoryOrUnknown(draft.Category) + " organization",
		}, nil
	}

	return Result{
		Decision:  DecisionApprove,
		Rationale: "requested category is proportionate to the organization's declared purpose",
	}, nil
}

func categoryOrUnknown(category string) string {
	if category == "" {
		return "uncategorized"
	}
	return category
}

// StaticOracle always returns a fixed result. Test seam for engine precedence
// and failure-path tests.
type StaticOracle struct {
	Result Result
	Err    error
}

func (o *StaticOracle) Evaluate(context.Context, Draft) (Result, error) {
	return o.Result, o.Err
}

var (
	_ Oracle = (*RuleOracle)(nil)
	_ Oracle = (*StaticOracle)(nil)
)
