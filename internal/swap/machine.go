package swap

import (
	"fmt"
	"time"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
)

// MinReasonLength is the minimum number of characters a swap reason must have.
const MinReasonLength = 10

// Event is a single decision submitted against a swap request. The machine
// is a pure function over (aggregate, event); it never touches storage or
// the notification channel.
type Event struct {
	Actor   *domain.User
	Outcome domain.DecisionOutcome
	Now     time.Time
}

// Effect describes the post-transition work the coordinator has to perform.
type Effect struct {
	Reassign      bool // transfer shift ownership from requester to target
	NotifyOutcome bool // tell every stakeholder the final outcome
}

// Propose validates a new swap proposal and builds the aggregate in its
// initial state. The "no other active request for this shift" guard needs
// storage and is enforced by the coordinator under the per-shift lock.
func Propose(requester, target *domain.User, shift *domain.Shift, reason string, classifier *Classifier, now time.Time) (*domain.SwapRequest, error) {
	if requester.ID == target.ID {
		return nil, domain.NewValidationError("requester and partner must be different employees")
	}
	if requester.Role != target.Role {
		return nil, domain.NewValidationError("swap partners must hold the same role")
	}
	if !requester.IsActive {
		return nil, domain.NewValidationError("requester is no longer an active employee")
	}
	if !target.IsActive {
		return nil, domain.NewValidationError("partner is no longer an active employee")
	}
	if len([]rune(reason)) < MinReasonLength {
		return nil, domain.NewValidationError(fmt.Sprintf("reason must be at least %d characters", MinReasonLength))
	}
	if shift.OwnerID != requester.ID {
		return nil, domain.NewValidationError("you can only offer a shift you own")
	}

	startsAt, err := shift.StartsAt()
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if !startsAt.After(now) {
		return nil, domain.NewShiftUnavailableError("shift has already started")
	}

	return &domain.SwapRequest{
		RequesterID:      requester.ID,
		TargetID:         target.ID,
		ShiftID:          shift.ID,
		UnitCode:         shift.UnitCode,
		Reason:           reason,
		RequiresUnitHead: classifier.Classify(shift.UnitCode),
		Status:           domain.SwapStatusPendingPartner,
		Decisions:        []domain.Decision{},
		CreatedAt:        now,
	}, nil
}

// Apply feeds one event through the transition table. On success it appends
// exactly one decision record and recomputes the status from the trail; a
// refused event leaves the aggregate untouched and returns a typed error.
func Apply(req *domain.SwapRequest, ev Event) (Effect, error) {
	if req.Status.IsTerminal() {
		return Effect{}, domain.NewStaleStateError(fmt.Sprintf("request %d is already %s", req.ID, req.Status))
	}

	switch ev.Outcome {
	case domain.OutcomeCancelled:
		if req.Status != domain.SwapStatusPendingPartner {
			// an approval has been recorded; never silently convert to rejection
			return Effect{}, domain.NewStaleStateError("request can no longer be cancelled once a decision has been recorded")
		}
		if ev.Actor.ID != req.RequesterID {
			return Effect{}, domain.NewUnauthorizedError("only the requester may cancel this request")
		}
	case domain.OutcomeApproved, domain.OutcomeRejected:
		switch req.Status {
		case domain.SwapStatusPendingPartner:
			if ev.Actor.ID != req.TargetID {
				return Effect{}, domain.NewUnauthorizedError("you are not the assigned partner for this request")
			}
		case domain.SwapStatusPendingSupervisor:
			if ev.Actor.Role != domain.RoleSupervisor {
				return Effect{}, domain.NewUnauthorizedError("a supervisor decision is required at this stage")
			}
			if ev.Outcome == domain.OutcomeApproved && ev.Actor.UnitCode != req.UnitCode {
				return Effect{}, domain.NewUnauthorizedError(fmt.Sprintf("approval requires a supervisor of unit %s", req.UnitCode))
			}
		case domain.SwapStatusPendingUnitHead:
			if ev.Actor.Role != domain.RoleUnitHead {
				return Effect{}, domain.NewUnauthorizedError("a unit head decision is required at this stage")
			}
			if ev.Outcome == domain.OutcomeApproved && ev.Actor.UnitCode != req.UnitCode {
				return Effect{}, domain.NewUnauthorizedError(fmt.Sprintf("approval requires the head of unit %s", req.UnitCode))
			}
		}
	default:
		return Effect{}, domain.NewValidationError(fmt.Sprintf("unknown decision outcome %q", ev.Outcome))
	}

	req.Decisions = append(req.Decisions, domain.Decision{
		ApproverRole: ev.Actor.Role,
		ApproverID:   ev.Actor.ID,
		Outcome:      ev.Outcome,
		DecidedAt:    ev.Now,
	})
	req.Status = ReplayStatus(req.Decisions, req.RequiresUnitHead)

	if req.Status.IsTerminal() {
		decidedAt := ev.Now
		req.DecidedAt = &decidedAt
		return Effect{
			Reassign:      req.Status == domain.SwapStatusApproved,
			NotifyOutcome: true,
		}, nil
	}

	return Effect{}, nil
}

// ReplayStatus derives the status from the ordered decision trail. The trail
// is the source of truth; status is only a cached projection of it.
func ReplayStatus(decisions []domain.Decision, requiresUnitHead bool) domain.SwapStatus {
	status := domain.SwapStatusPendingPartner

	for _, decision := range decisions {
		if status.IsTerminal() {
			return status
		}
		switch decision.Outcome {
		case domain.OutcomeCancelled:
			status = domain.SwapStatusCancelled
		case domain.OutcomeRejected:
			status = domain.SwapStatusRejected
		case domain.OutcomeApproved:
			switch status {
			case domain.SwapStatusPendingPartner:
				status = domain.SwapStatusPendingSupervisor
			case domain.SwapStatusPendingSupervisor:
				if requiresUnitHead {
					status = domain.SwapStatusPendingUnitHead
				} else {
					status = domain.SwapStatusApproved
				}
			case domain.SwapStatusPendingUnitHead:
				status = domain.SwapStatusApproved
			}
		}
	}

	return status
}
