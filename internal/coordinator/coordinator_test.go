package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
	"github.com/rsud-anugerah/shift-swap/backend/internal/swap"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type mockRequestRepo struct {
	createFn            func(ctx context.Context, req *domain.SwapRequest) error
	getFn               func(ctx context.Context, id int64) (*domain.SwapRequest, error)
	updateFn            func(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error
	findActiveFn        func(ctx context.Context, shiftID int64) (*domain.SwapRequest, error)
	listByParticipantFn func(ctx context.Context, userID int64) ([]*domain.SwapRequest, error)
	listAllFn           func(ctx context.Context) ([]*domain.SwapRequest, error)
}

func (m *mockRequestRepo) CreateSwapRequest(ctx context.Context, req *domain.SwapRequest) error {
	return m.createFn(ctx, req)
}

func (m *mockRequestRepo) GetSwapRequestByID(ctx context.Context, id int64) (*domain.SwapRequest, error) {
	return m.getFn(ctx, id)
}

func (m *mockRequestRepo) UpdateSwapRequest(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error {
	return m.updateFn(ctx, req, appended)
}

func (m *mockRequestRepo) FindActiveRequestByShift(ctx context.Context, shiftID int64) (*domain.SwapRequest, error) {
	return m.findActiveFn(ctx, shiftID)
}

func (m *mockRequestRepo) ListSwapRequestsByParticipant(ctx context.Context, userID int64) ([]*domain.SwapRequest, error) {
	return m.listByParticipantFn(ctx, userID)
}

func (m *mockRequestRepo) ListAllSwapRequests(ctx context.Context) ([]*domain.SwapRequest, error) {
	return m.listAllFn(ctx)
}

type mockShiftDirectory struct {
	getFn      func(ctx context.Context, id int64) (*domain.Shift, error)
	reassignFn func(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error
}

func (m *mockShiftDirectory) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	return m.getFn(ctx, id)
}

func (m *mockShiftDirectory) ReassignOwner(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error {
	return m.reassignFn(ctx, shiftID, fromOwnerID, toOwnerID)
}

type mockUserDirectory struct {
	users map[int64]*domain.User
}

func (m *mockUserDirectory) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, domain.NewUserNotFoundError(id)
	}
	return user, nil
}

type mockNotifier struct {
	mu        sync.Mutex
	delivered []domain.Notification
	deliverFn func(ctx context.Context, recipient *domain.User, notification domain.Notification) error
}

func (m *mockNotifier) Deliver(ctx context.Context, recipient *domain.User, notification domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deliverFn != nil {
		if err := m.deliverFn(ctx, recipient, notification); err != nil {
			return err
		}
	}
	m.delivered = append(m.delivered, notification)
	return nil
}

// memoryLocker is a process-local stand-in for the redis locker, enough to
// exercise the coordinator's hold-across-check-and-create behavior.
type memoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: make(map[string]bool)}
}

func (l *memoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		if !l.held[key] {
			l.held[key] = true
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				defer l.mu.Unlock()
				l.held[key] = false
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func testUsers() map[int64]*domain.User {
	return map[int64]*domain.User{
		1: {ID: 1, FullName: "Budi Santoso", Role: domain.RoleNurse, UnitCode: domain.UnitInpatient, IsActive: true},
		2: {ID: 2, FullName: "Siti Rahayu", Role: domain.RoleNurse, UnitCode: domain.UnitInpatient, IsActive: true},
		3: {ID: 3, FullName: "Agus Wijaya", Role: domain.RoleSupervisor, UnitCode: domain.UnitInpatient, IsActive: true},
	}
}

func testShift() *domain.Shift {
	return &domain.Shift{
		ID:        10,
		OwnerID:   1,
		UnitCode:  domain.UnitInpatient,
		Date:      testNow.AddDate(0, 0, 7),
		StartTime: "07:00:00",
		EndTime:   "14:00:00",
	}
}

func newTestCoordinator(requests SwapRequestRepository, shifts ShiftDirectory, notifier Notifier) *Coordinator {
	c := NewCoordinator(
		requests,
		shifts,
		&mockUserDirectory{users: testUsers()},
		newMemoryLocker(),
		notifier,
		swap.NewClassifier([]string{domain.UnitICU}),
	)
	c.now = func() time.Time { return testNow }
	return c
}

func TestProposeSwap(t *testing.T) {
	t.Run("creates the request and notifies the partner", func(t *testing.T) {
		var created *domain.SwapRequest
		requests := &mockRequestRepo{
			findActiveFn: func(ctx context.Context, shiftID int64) (*domain.SwapRequest, error) {
				return nil, nil
			},
			createFn: func(ctx context.Context, req *domain.SwapRequest) error {
				req.ID = 100
				created = req
				return nil
			},
		}
		shifts := &mockShiftDirectory{
			getFn: func(ctx context.Context, id int64) (*domain.Shift, error) {
				return testShift(), nil
			},
		}
		notifier := &mockNotifier{}
		c := newTestCoordinator(requests, shifts, notifier)

		req, err := c.ProposeSwap(context.Background(), 1, 2, 10, "family emergency at home")
		require.NoError(t, err)
		require.Equal(t, created, req)
		require.Equal(t, domain.SwapStatusPendingPartner, req.Status)
		require.False(t, req.RequiresUnitHead)

		require.Len(t, notifier.delivered, 1)
		require.Equal(t, domain.NotificationSwapProposed, notifier.delivered[0].Type)
		data := notifier.delivered[0].Data.(domain.SwapProposedData)
		require.Equal(t, int64(100), data.RequestID)
		require.Equal(t, "Budi Santoso", data.RequesterName)
	})

	t.Run("refuses a shift with an active request", func(t *testing.T) {
		requests := &mockRequestRepo{
			findActiveFn: func(ctx context.Context, shiftID int64) (*domain.SwapRequest, error) {
				return &domain.SwapRequest{ID: 99, ShiftID: shiftID}, nil
			},
			createFn: func(ctx context.Context, req *domain.SwapRequest) error {
				t.Fatal("refused proposal must not be persisted")
				return nil
			},
		}
		shifts := &mockShiftDirectory{
			getFn: func(ctx context.Context, id int64) (*domain.Shift, error) {
				return testShift(), nil
			},
		}
		notifier := &mockNotifier{}
		c := newTestCoordinator(requests, shifts, notifier)

		_, err := c.ProposeSwap(context.Background(), 1, 2, 10, "family emergency at home")
		require.ErrorIs(t, err, domain.ErrShiftUnavailable)
		require.Empty(t, notifier.delivered)
	})

	t.Run("refuses an invalid proposal without persisting", func(t *testing.T) {
		requests := &mockRequestRepo{
			findActiveFn: func(ctx context.Context, shiftID int64) (*domain.SwapRequest, error) {
				return nil, nil
			},
			createFn: func(ctx context.Context, req *domain.SwapRequest) error {
				t.Fatal("refused proposal must not be persisted")
				return nil
			},
		}
		shifts := &mockShiftDirectory{
			getFn: func(ctx context.Context, id int64) (*domain.Shift, error) {
				return testShift(), nil
			},
		}
		notifier := &mockNotifier{}
		c := newTestCoordinator(requests, shifts, notifier)

		_, err := c.ProposeSwap(context.Background(), 1, 2, 10, "too short")
		require.ErrorIs(t, err, domain.ErrValidation)
		require.Empty(t, notifier.delivered)
	})

	t.Run("unknown partner is refused before touching the shift", func(t *testing.T) {
		c := newTestCoordinator(&mockRequestRepo{}, &mockShiftDirectory{}, &mockNotifier{})

		_, err := c.ProposeSwap(context.Background(), 1, 42, 10, "family emergency at home")
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestProposeSwapRace(t *testing.T) {
	// Two proposals race for the same shift. The per-shift lock serializes
	// the check-then-create window, so exactly one wins.
	var mu sync.Mutex
	var active *domain.SwapRequest

	requests := &mockRequestRepo{
		findActiveFn: func(ctx context.Context, shiftID int64) (*domain.SwapRequest, error) {
			mu.Lock()
			defer mu.Unlock()
			return active, nil
		},
		createFn: func(ctx context.Context, req *domain.SwapRequest) error {
			mu.Lock()
			defer mu.Unlock()
			req.ID = 100
			active = req
			return nil
		},
	}
	shifts := &mockShiftDirectory{
		getFn: func(ctx context.Context, id int64) (*domain.Shift, error) {
			return testShift(), nil
		},
	}
	c := newTestCoordinator(requests, shifts, &mockNotifier{})

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ProposeSwap(context.Background(), 1, 2, 10, "family emergency at home")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, refused int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrShiftUnavailable):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, refused)
}

func pendingSupervisorRequest() *domain.SwapRequest {
	return &domain.SwapRequest{
		ID:          100,
		RequesterID: 1,
		TargetID:    2,
		ShiftID:     10,
		UnitCode:    domain.UnitInpatient,
		Reason:      "family emergency at home",
		Status:      domain.SwapStatusPendingSupervisor,
		Decisions: []domain.Decision{
			{ApproverRole: domain.RoleNurse, ApproverID: 2, Outcome: domain.OutcomeApproved, DecidedAt: testNow},
		},
		CreatedAt: testNow,
	}
}

func TestDecide(t *testing.T) {
	t.Run("cancellation outcome is rejected up front", func(t *testing.T) {
		c := newTestCoordinator(&mockRequestRepo{}, &mockShiftDirectory{}, &mockNotifier{})

		_, err := c.Decide(context.Background(), 100, 1, domain.OutcomeCancelled)
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("partner approval persists one decision without reassignment", func(t *testing.T) {
		var appendedDecision *domain.Decision
		requests := &mockRequestRepo{
			getFn: func(ctx context.Context, id int64) (*domain.SwapRequest, error) {
				return &domain.SwapRequest{
					ID:          100,
					RequesterID: 1,
					TargetID:    2,
					ShiftID:     10,
					UnitCode:    domain.UnitInpatient,
					Status:      domain.SwapStatusPendingPartner,
					Decisions:   []domain.Decision{},
				}, nil
			},
			updateFn: func(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error {
				appendedDecision = &appended
				return nil
			},
		}
		shifts := &mockShiftDirectory{
			reassignFn: func(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error {
				t.Fatal("intermediate approval must not reassign the shift")
				return nil
			},
		}
		notifier := &mockNotifier{}
		c := newTestCoordinator(requests, shifts, notifier)

		req, err := c.Decide(context.Background(), 100, 2, domain.OutcomeApproved)
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusPendingSupervisor, req.Status)
		require.NotNil(t, appendedDecision)
		require.Equal(t, int64(2), appendedDecision.ApproverID)
		require.Equal(t, domain.OutcomeApproved, appendedDecision.Outcome)
		require.Empty(t, notifier.delivered)
	})

	t.Run("final approval reassigns exactly once and notifies everyone", func(t *testing.T) {
		var reassignments int
		requests := &mockRequestRepo{
			getFn: func(ctx context.Context, id int64) (*domain.SwapRequest, error) {
				return pendingSupervisorRequest(), nil
			},
			updateFn: func(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error {
				return nil
			},
		}
		shifts := &mockShiftDirectory{
			getFn: func(ctx context.Context, id int64) (*domain.Shift, error) {
				return testShift(), nil
			},
			reassignFn: func(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error {
				reassignments++
				require.Equal(t, int64(10), shiftID)
				require.Equal(t, int64(1), fromOwnerID)
				require.Equal(t, int64(2), toOwnerID)
				return nil
			},
		}
		notifier := &mockNotifier{}
		c := newTestCoordinator(requests, shifts, notifier)

		req, err := c.Decide(context.Background(), 100, 3, domain.OutcomeApproved)
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusApproved, req.Status)
		require.Equal(t, 1, reassignments)

		// requester, target and both approvers, deduped
		require.Len(t, notifier.delivered, 3)
		for _, n := range notifier.delivered {
			require.Equal(t, domain.NotificationSwapOutcome, n.Type)
			data := n.Data.(domain.SwapOutcomeData)
			require.Equal(t, string(domain.SwapStatusApproved), data.Status)
			require.Equal(t, "Budi Santoso", data.RequesterName)
			require.Equal(t, "Siti Rahayu", data.TargetName)
		}
	})

	t.Run("rejection notifies without reassigning", func(t *testing.T) {
		requests := &mockRequestRepo{
			getFn: func(ctx context.Context, id int64) (*domain.SwapRequest, error) {
				return pendingSupervisorRequest(), nil
			},
			updateFn: func(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error {
				return nil
			},
		}
		shifts := &mockShiftDirectory{
			getFn: func(ctx context.Context, id int64) (*domain.Shift, error) {
				return testShift(), nil
			},
			reassignFn: func(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error {
				t.Fatal("rejection must not reassign the shift")
				return nil
			},
		}
		notifier := &mockNotifier{}
		c := newTestCoordinator(requests, shifts, notifier)

		req, err := c.Decide(context.Background(), 100, 3, domain.OutcomeRejected)
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusRejected, req.Status)
		require.Len(t, notifier.delivered, 3)
	})

	t.Run("stale persistence aborts before side effects", func(t *testing.T) {
		requests := &mockRequestRepo{
			getFn: func(ctx context.Context, id int64) (*domain.SwapRequest, error) {
				return pendingSupervisorRequest(), nil
			},
			updateFn: func(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error {
				return domain.NewStaleStateError("the request has moved on, reload and try again")
			},
		}
		shifts := &mockShiftDirectory{
			reassignFn: func(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error {
				t.Fatal("stale update must not reassign the shift")
				return nil
			},
		}
		notifier := &mockNotifier{}
		c := newTestCoordinator(requests, shifts, notifier)

		_, err := c.Decide(context.Background(), 100, 3, domain.OutcomeApproved)
		require.ErrorIs(t, err, domain.ErrStaleState)
		require.Empty(t, notifier.delivered)
	})

	t.Run("notification failure never fails the decision", func(t *testing.T) {
		requests := &mockRequestRepo{
			getFn: func(ctx context.Context, id int64) (*domain.SwapRequest, error) {
				return pendingSupervisorRequest(), nil
			},
			updateFn: func(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error {
				return nil
			},
		}
		shifts := &mockShiftDirectory{
			getFn: func(ctx context.Context, id int64) (*domain.Shift, error) {
				return testShift(), nil
			},
			reassignFn: func(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error {
				return nil
			},
		}
		notifier := &mockNotifier{
			deliverFn: func(ctx context.Context, recipient *domain.User, notification domain.Notification) error {
				return errors.New("broker unavailable")
			},
		}
		c := newTestCoordinator(requests, shifts, notifier)

		req, err := c.Decide(context.Background(), 100, 3, domain.OutcomeApproved)
		require.NoError(t, err)
		require.Equal(t, domain.SwapStatusApproved, req.Status)
	})

	t.Run("reassignment conflict surfaces after the state is persisted", func(t *testing.T) {
		var updated bool
		requests := &mockRequestRepo{
			getFn: func(ctx context.Context, id int64) (*domain.SwapRequest, error) {
				return pendingSupervisorRequest(), nil
			},
			updateFn: func(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error {
				updated = true
				return nil
			},
		}
		shifts := &mockShiftDirectory{
			reassignFn: func(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error {
				return domain.NewReassignmentConflictError(shiftID)
			},
		}
		c := newTestCoordinator(requests, shifts, &mockNotifier{})

		_, err := c.Decide(context.Background(), 100, 3, domain.OutcomeApproved)
		require.ErrorIs(t, err, domain.ErrReassignmentConflict)
		require.True(t, updated)
	})
}

func TestCancel(t *testing.T) {
	requests := &mockRequestRepo{
		getFn: func(ctx context.Context, id int64) (*domain.SwapRequest, error) {
			return &domain.SwapRequest{
				ID:          100,
				RequesterID: 1,
				TargetID:    2,
				ShiftID:     10,
				UnitCode:    domain.UnitInpatient,
				Status:      domain.SwapStatusPendingPartner,
				Decisions:   []domain.Decision{},
			}, nil
		},
		updateFn: func(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error {
			return nil
		},
	}
	shifts := &mockShiftDirectory{
		getFn: func(ctx context.Context, id int64) (*domain.Shift, error) {
			return testShift(), nil
		},
		reassignFn: func(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error {
			t.Fatal("cancellation must not reassign the shift")
			return nil
		},
	}
	notifier := &mockNotifier{}
	c := newTestCoordinator(requests, shifts, notifier)

	req, err := c.Cancel(context.Background(), 100, 1)
	require.NoError(t, err)
	require.Equal(t, domain.SwapStatusCancelled, req.Status)
	require.NotEmpty(t, notifier.delivered)
}

func TestListRequestsFor(t *testing.T) {
	all := []*domain.SwapRequest{{ID: 1}, {ID: 2}}
	own := []*domain.SwapRequest{{ID: 1}}

	requests := &mockRequestRepo{
		listAllFn: func(ctx context.Context) ([]*domain.SwapRequest, error) {
			return all, nil
		},
		listByParticipantFn: func(ctx context.Context, userID int64) ([]*domain.SwapRequest, error) {
			return own, nil
		},
	}
	c := newTestCoordinator(requests, &mockShiftDirectory{}, &mockNotifier{})

	got, err := c.ListRequestsFor(context.Background(), &domain.User{ID: 3, Role: domain.RoleSupervisor})
	require.NoError(t, err)
	require.Equal(t, all, got)

	got, err = c.ListRequestsFor(context.Background(), &domain.User{ID: 1, Role: domain.RoleNurse})
	require.NoError(t, err)
	require.Equal(t, own, got)
}
