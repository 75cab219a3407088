package domain

import "time"

type SwapStatus string

const (
	SwapStatusPendingPartner    SwapStatus = "PENDING_PARTNER"
	SwapStatusPendingSupervisor SwapStatus = "PENDING_SUPERVISOR"
	SwapStatusPendingUnitHead   SwapStatus = "PENDING_UNIT_HEAD"
	SwapStatusApproved          SwapStatus = "APPROVED"
	SwapStatusRejected          SwapStatus = "REJECTED"
	SwapStatusCancelled         SwapStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is permitted.
func (s SwapStatus) IsTerminal() bool {
	switch s {
	case SwapStatusApproved, SwapStatusRejected, SwapStatusCancelled:
		return true
	}
	return false
}

type DecisionOutcome string

const (
	OutcomeApproved  DecisionOutcome = "APPROVED"
	OutcomeRejected  DecisionOutcome = "REJECTED"
	OutcomeCancelled DecisionOutcome = "CANCELLED"
)

// Decision is one entry of the append-only audit trail. Entries are never
// updated or removed once recorded.
type Decision struct {
	ApproverRole Role            `json:"approverRole"`
	ApproverID   int64           `json:"approverID"`
	Outcome      DecisionOutcome `json:"outcome"`
	DecidedAt    time.Time       `json:"decidedAt"`
}

// SwapRequest is a proposal to hand one scheduled shift from the requester
// over to the target employee. UnitCode and RequiresUnitHead are snapshots
// taken at creation time; reclassifying a unit later never changes the
// approval path of an in-flight request.
type SwapRequest struct {
	ID               int64      `json:"id"`
	RequesterID      int64      `json:"requesterID"`
	TargetID         int64      `json:"targetID"`
	ShiftID          int64      `json:"shiftID"`
	UnitCode         string     `json:"unitCode"`
	Reason           string     `json:"reason"`
	RequiresUnitHead bool       `json:"requiresUnitHead"`
	Status           SwapStatus `json:"status"`
	Decisions        []Decision `json:"decisions"`
	CreatedAt        time.Time  `json:"createdAt"`
	DecidedAt        *time.Time `json:"decidedAt"`
	Version          int32      `json:"-"`
}
