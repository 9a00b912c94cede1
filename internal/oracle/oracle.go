// Package oracle defines the policy oracle boundary: an external decision
// service that evaluates a draft data request against an organization's
// declared policy. The consent engine treats anything other than an
// affirmative approve/deny as "defer to the citizen".
package oracle

import (
	"context"

	"trustgrid/pkg/domain"
)

// Decision is the oracle's verdict on a draft request.
type Decision string

const (
	// DecisionApprove affirms the request complies with the declared policy.
	DecisionApprove Decision = "approve"
	// DecisionDeny affirms the request violates the declared policy.
	DecisionDeny Decision = "deny"
	// DecisionRefer defers the call to the citizen. Also the mandatory
	// fallback on oracle failure: automatic approval requires an affirmative
	// decision, never the absence of one.
	DecisionRefer Decision = "refer"
)

// Draft is the not-yet-persisted request the oracle evaluates.
type Draft struct {
	OrgID      domain.OrgID
	UserID     domain.UserID
	DataType   domain.DataType
	Purpose    string
	Category   string
	PolicyText string
}

// Result carries the decision plus a human-readable rationale that is
// persisted onto the resulting consent record for audit purposes.
type Result struct {
	Decision  Decision
	Rationale string
}

// Oracle evaluates draft requests. Implementations must respect ctx
// cancellation; the engine enforces a deadline and collapses failures to
// refer.
type Oracle interface {
	Evaluate(ctx context.Context, draft Draft) (Result, error)
}

// VerificationSubmission is the organization identity material handed to the
// verifier together with an opaque document reference.
type VerificationSubmission struct {
	OrgName            string
	Description        string
	Category           string
	WebsiteURL         string
	RegistrationNumber string
	DocumentRef        string
}

// VerificationResult is the verifier's verdict on an organization.
type VerificationResult struct {
	Verified bool
	Reason   string
}

// Verifier checks an organization's declared identity against its submitted
// registration document. Treated as a black box; failures leave the
// organization in the pending state for manual review.
type Verifier interface {
	VerifyOrganization(ctx context.Context, sub VerificationSubmission) (VerificationResult, error)
}
