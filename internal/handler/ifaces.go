package handler

import (
	"context"
	"time"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
)

// Narrow views of the repository and coordinator, so the web layer can be
// exercised against stubs.

type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetAllUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

type ShiftStore interface {
	ListUpcomingShiftsByOwner(ctx context.Context, ownerID int64, from time.Time) ([]*domain.Shift, error)
}

type SwapService interface {
	ProposeSwap(ctx context.Context, requesterID, targetID, shiftID int64, reason string) (*domain.SwapRequest, error)
	Decide(ctx context.Context, requestID, actorID int64, outcome domain.DecisionOutcome) (*domain.SwapRequest, error)
	Cancel(ctx context.Context, requestID, actorID int64) (*domain.SwapRequest, error)
	GetRequest(ctx context.Context, requestID int64) (*domain.SwapRequest, error)
	ListRequestsFor(ctx context.Context, viewer *domain.User) ([]*domain.SwapRequest, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, recipient *domain.User, notification domain.Notification) error
}
