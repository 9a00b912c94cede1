// Package transparency maintains the append-only projection of every consent
// request transition, readable by the citizen and the requesting
// organization. The log is the system's audit surface: terminal records never
// change.
package transparency

import (
	"time"

	id "trustgrid/pkg/domain"
)

// Entry is one request's current state in the log. Keyed by request id;
// upserts replace the row until the status is terminal.
type Entry struct {
	RequestID       id.RequestID `json:"request_id"`
	OrgID           id.OrgID     `json:"org_id"`
	OrgName         string       `json:"org_name"`
	UserID          id.UserID    `json:"user_id"`
	DataType        string       `json:"data_type"`
	Purpose         string       `json:"purpose"`
	Status          string       `json:"status"`
	ApprovalMethod  string       `json:"approval_method,omitempty"`
	OracleRationale string       `json:"oracle_rationale,omitempty"`
	RequestedAt     time.Time    `json:"requested_at"`
	RespondedAt     *time.Time   `json:"responded_at,omitempty"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// IsTerminal reports whether the entry may never change again. The log keeps
// its own notion of terminality so it can guard itself without trusting
// writers.
func (e Entry) IsTerminal() bool {
	return e.Status != "pending"
}

// same reports whether two entries describe the identical state, ignoring
// bookkeeping timestamps. Re-delivering a terminal entry is idempotent;
// changing one is a violation.
func (e Entry) same(other Entry) bool {
	return e.Status == other.Status &&
		e.ApprovalMethod == other.ApprovalMethod &&
		e.OracleRationale == other.OracleRationale &&
		equalTimePtr(e.RespondedAt, other.RespondedAt)
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
