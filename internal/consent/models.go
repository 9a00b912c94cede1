// Package consent implements the data-request state machine: submission,
// oracle evaluation, citizen response, and the transition rules between them.
package consent

import (
	"strings"
	"time"

	id "trustgrid/pkg/domain"
	dErrors "trustgrid/pkg/domain-errors"
)

// Status is the consent request lifecycle. pending is the only non-terminal
// state; every terminal state is final forever.
type Status string

const (
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusDenied       Status = "denied"
	StatusAutoApproved Status = "auto_approved"
	StatusAutoDenied   Status = "auto_denied"
)

// IsTerminal reports whether no further transition is legal.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// ApprovalMethod records who decided a terminal request.
type ApprovalMethod string

const (
	ApprovalManual ApprovalMethod = "manual"
	ApprovalAuto   ApprovalMethod = "auto"
)

// Decision is a citizen's answer to a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

// ParseDecision validates a wire decision value.
func ParseDecision(raw string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(raw))) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionDeny:
		return DecisionDeny, nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "decision must be approve or deny")
	}
}

// ConsentRequest is one organization's request to read one data field of one
// citizen.
//
// Invariants:
//   - Status is one of the five enum values
//   - RespondedAt is set iff Status != pending
//   - ApprovalMethod is set iff Status is terminal
//   - OracleRationale is persisted on every request, whatever the outcome
type ConsentRequest struct {
	ID              id.RequestID   `json:"id"`
	OrgID           id.OrgID       `json:"org_id"`
	UserID          id.UserID      `json:"user_id"`
	DataType        id.DataType    `json:"data_type"`
	Purpose         string         `json:"purpose"`
	Status          Status         `json:"status"`
	ApprovalMethod  ApprovalMethod `json:"approval_method,omitempty"`
	OracleRationale string         `json:"oracle_rationale,omitempty"`
	RequestedAt     time.Time      `json:"requested_at"`
	RespondedAt     *time.Time     `json:"responded_at,omitempty"`
}

// NewConsentRequest constructs a pending request, validating invariants. The
// caller applies any auto transition afterwards so creation and resolution
// stay two observable transitions.
func NewConsentRequest(requestID id.RequestID, orgID id.OrgID, userID id.UserID, dataType id.DataType, purpose string, now time.Time) (*ConsentRequest, error) {
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "purpose cannot be empty")
	}
	if len(purpose) > 512 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "purpose must be 512 characters or less")
	}
	if !dataType.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown data_type")
	}
	return &ConsentRequest{
		ID:          requestID,
		OrgID:       orgID,
		UserID:      userID,
		DataType:    dataType,
		Purpose:     purpose,
		Status:      StatusPending,
		RequestedAt: now,
	}, nil
}

// CanRespond rejects decisions on requests that are no longer pending.
func (r *ConsentRequest) CanRespond() error {
	if r.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidTransition, "request has already been decided")
	}
	return nil
}

// ApplyDecision resolves a pending request with a citizen's manual decision.
func (r *ConsentRequest) ApplyDecision(decision Decision, now time.Time) error {
	if err := r.CanRespond(); err != nil {
		return err
	}
	if decision == DecisionApprove {
		r.Status = StatusApproved
	} else {
		r.Status = StatusDenied
	}
	r.ApprovalMethod = ApprovalManual
	r.RespondedAt = &now
	return nil
}

// ApplyAutoResolution resolves a freshly created request on the oracle's
// authority. Only called before the request is ever visible as pending.
func (r *ConsentRequest) ApplyAutoResolution(approved bool, now time.Time) error {
	if err := r.CanRespond(); err != nil {
		return err
	}
	if approved {
		r.Status = StatusAutoApproved
	} else {
		r.Status = StatusAutoDenied
	}
	r.ApprovalMethod = ApprovalAuto
	r.RespondedAt = &now
	return nil
}
