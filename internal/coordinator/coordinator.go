package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
	"github.com/rsud-anugerah/shift-swap/backend/internal/locker"
	"github.com/rsud-anugerah/shift-swap/backend/internal/swap"
)

type SwapRequestRepository interface {
	CreateSwapRequest(ctx context.Context, req *domain.SwapRequest) error
	GetSwapRequestByID(ctx context.Context, id int64) (*domain.SwapRequest, error)
	UpdateSwapRequest(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error
	FindActiveRequestByShift(ctx context.Context, shiftID int64) (*domain.SwapRequest, error)
	ListSwapRequestsByParticipant(ctx context.Context, userID int64) ([]*domain.SwapRequest, error)
	ListAllSwapRequests(ctx context.Context) ([]*domain.SwapRequest, error)
}

// ShiftDirectory is the sole owner of shift-ownership data. The workflow
// never writes it except through ReassignOwner.
type ShiftDirectory interface {
	GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error)
	ReassignOwner(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error
}

type UserDirectory interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

type KeyedLocker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// Notifier delivers a message to a party, best effort. Failures never roll
// back a state transition.
type Notifier interface {
	Deliver(ctx context.Context, recipient *domain.User, notification domain.Notification) error
}

// Coordinator owns the swap request lifecycle: it runs the state machine
// against the shift directory under per-shift and per-request locks and
// triggers notifications on every transition.
type Coordinator struct {
	requests   SwapRequestRepository
	shifts     ShiftDirectory
	users      UserDirectory
	locks      KeyedLocker
	notifier   Notifier
	classifier *swap.Classifier
	now        func() time.Time
}

func NewCoordinator(requests SwapRequestRepository, shifts ShiftDirectory, users UserDirectory, locks KeyedLocker, notifier Notifier, classifier *swap.Classifier) *Coordinator {
	return &Coordinator{
		requests:   requests,
		shifts:     shifts,
		users:      users,
		locks:      locks,
		notifier:   notifier,
		classifier: classifier,
		now:        time.Now,
	}
}

// ProposeSwap validates a proposal and creates the request in
// PENDING_PARTNER. The shift lock is held from the active-request check
// through creation, so two proposals racing for one shift see exactly one
// winner; the loser gets ShiftUnavailable.
func (c *Coordinator) ProposeSwap(ctx context.Context, requesterID, targetID, shiftID int64, reason string) (*domain.SwapRequest, error) {
	requester, err := c.users.GetUserByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	target, err := c.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	release, err := c.locks.Acquire(ctx, locker.ShiftKey(shiftID))
	if err != nil {
		return nil, err
	}
	defer release()

	shift, err := c.shifts.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	active, err := c.requests.FindActiveRequestByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, domain.NewShiftUnavailableError("shift already has a pending swap")
	}

	req, err := swap.Propose(requester, target, shift, reason, c.classifier, c.now())
	if err != nil {
		return nil, err
	}

	if err := c.requests.CreateSwapRequest(ctx, req); err != nil {
		return nil, err
	}

	c.deliver(ctx, target, domain.Notification{
		Type: domain.NotificationSwapProposed,
		Data: domain.SwapProposedData{
			RequestID:     req.ID,
			RequesterName: requester.FullName,
			ShiftDate:     shift.Date.Format("2006-01-02"),
			ShiftTime:     fmt.Sprintf("%s - %s", shift.StartTime, shift.EndTime),
			UnitCode:      shift.UnitCode,
			Reason:        reason,
		},
	})

	return req, nil
}

// Decide applies a partner, supervisor or unit-head decision. Use Cancel to
// withdraw a request.
func (c *Coordinator) Decide(ctx context.Context, requestID, actorID int64, outcome domain.DecisionOutcome) (*domain.SwapRequest, error) {
	if outcome != domain.OutcomeApproved && outcome != domain.OutcomeRejected {
		return nil, domain.NewValidationError(fmt.Sprintf("outcome must be %s or %s", domain.OutcomeApproved, domain.OutcomeRejected))
	}
	return c.applyDecision(ctx, requestID, actorID, outcome)
}

// Cancel withdraws a request. Only the requester may cancel, and only while
// the request is still waiting on the partner.
func (c *Coordinator) Cancel(ctx context.Context, requestID, actorID int64) (*domain.SwapRequest, error) {
	return c.applyDecision(ctx, requestID, actorID, domain.OutcomeCancelled)
}

func (c *Coordinator) applyDecision(ctx context.Context, requestID, actorID int64, outcome domain.DecisionOutcome) (*domain.SwapRequest, error) {
	actor, err := c.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	release, err := c.locks.Acquire(ctx, locker.RequestKey(requestID))
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := c.requests.GetSwapRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	effect, err := swap.Apply(req, swap.Event{Actor: actor, Outcome: outcome, Now: c.now()})
	if err != nil {
		return nil, err
	}

	appended := req.Decisions[len(req.Decisions)-1]
	if err := c.requests.UpdateSwapRequest(ctx, req, appended); err != nil {
		return nil, err
	}

	if effect.Reassign {
		if err := c.reassignShift(ctx, req); err != nil {
			return nil, err
		}
	}

	if effect.NotifyOutcome {
		c.notifyOutcome(ctx, req)
	}

	return req, nil
}

// reassignShift commits the approved swap in the shift directory. The shift
// lock is held around the conditional update, mirroring the hold during
// validation-plus-create on proposal.
func (c *Coordinator) reassignShift(ctx context.Context, req *domain.SwapRequest) error {
	release, err := c.locks.Acquire(ctx, locker.ShiftKey(req.ShiftID))
	if err != nil {
		return err
	}
	defer release()

	if err := c.shifts.ReassignOwner(ctx, req.ShiftID, req.RequesterID, req.TargetID); err != nil {
		slog.Error("shift reassignment failed after approval", "requestID", req.ID, "shiftID", req.ShiftID, "error", err)
		return err
	}

	return nil
}

// notifyOutcome tells the requester, the target and every approver who acted
// about the final state. Delivery failures are logged and suppressed.
func (c *Coordinator) notifyOutcome(ctx context.Context, req *domain.SwapRequest) {
	data := domain.SwapOutcomeData{
		RequestID: req.ID,
		Status:    string(req.Status),
		UnitCode:  req.UnitCode,
	}

	if shift, err := c.shifts.GetShiftByID(ctx, req.ShiftID); err == nil {
		data.ShiftDate = shift.Date.Format("2006-01-02")
		data.ShiftTime = fmt.Sprintf("%s - %s", shift.StartTime, shift.EndTime)
	}

	if requester, err := c.users.GetUserByID(ctx, req.RequesterID); err == nil {
		data.RequesterName = requester.FullName
	}
	if target, err := c.users.GetUserByID(ctx, req.TargetID); err == nil {
		data.TargetName = target.FullName
	}

	recipientIDs := []int64{req.RequesterID, req.TargetID}
	for _, decision := range req.Decisions {
		recipientIDs = append(recipientIDs, decision.ApproverID)
	}

	seen := make(map[int64]struct{}, len(recipientIDs))
	for _, id := range recipientIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		recipient, err := c.users.GetUserByID(ctx, id)
		if err != nil {
			slog.Warn("could not load notification recipient", "userID", id, "requestID", req.ID, "error", err)
			continue
		}

		c.deliver(ctx, recipient, domain.Notification{
			Type: domain.NotificationSwapOutcome,
			Data: data,
		})
	}
}

func (c *Coordinator) deliver(ctx context.Context, recipient *domain.User, notification domain.Notification) {
	if err := c.notifier.Deliver(ctx, recipient, notification); err != nil {
		slog.Warn("notification delivery failed", "recipientID", recipient.ID, "type", notification.Type, "error", err)
	}
}

// GetRequest returns the current snapshot of a request: status, the full
// decision trail and the requiresUnitHead flag, for display purposes.
func (c *Coordinator) GetRequest(ctx context.Context, requestID int64) (*domain.SwapRequest, error) {
	return c.requests.GetSwapRequestByID(ctx, requestID)
}

// ListRequestsFor returns the requests a viewer may see: everything for the
// approving roles and the admin, own requests for everyone else.
func (c *Coordinator) ListRequestsFor(ctx context.Context, viewer *domain.User) ([]*domain.SwapRequest, error) {
	switch viewer.Role {
	case domain.RoleAdmin, domain.RoleSupervisor, domain.RoleUnitHead:
		return c.requests.ListAllSwapRequests(ctx)
	default:
		return c.requests.ListSwapRequestsByParticipant(ctx, viewer.ID)
	}
}
