package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
)

func (r *Repository) CreateSwapRequest(ctx context.Context, req *domain.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (requester_id, target_id, shift_id, unit_code, reason, requires_unit_head, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{req.RequesterID, req.TargetID, req.ShiftID, req.UnitCode, req.Reason, req.RequiresUnitHead, req.Status}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&req.ID, &req.CreatedAt, &req.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetSwapRequestByID(ctx context.Context, id int64) (*domain.SwapRequest, error) {
	query := `
		SELECT requester_id, target_id, shift_id, unit_code, reason, requires_unit_head, status, created_at, decided_at, version
		FROM swap_requests WHERE id = $1
	`

	queryCtx, cancel := r.queryContext(ctx)
	defer cancel()

	req := &domain.SwapRequest{
		ID: id,
	}

	dst := []any{&req.RequesterID, &req.TargetID, &req.ShiftID, &req.UnitCode, &req.Reason, &req.RequiresUnitHead, &req.Status, &req.CreatedAt, &req.DecidedAt, &req.Version}
	if err := r.dbpool.QueryRowContext(queryCtx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewRequestNotFoundError(id)
		}
		return nil, err
	}

	decisions, err := r.getDecisions(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Decisions = decisions

	return req, nil
}

// FindActiveRequestByShift returns the non-terminal request holding the
// shift, or nil when the shift is free. At most one can exist at a time.
func (r *Repository) FindActiveRequestByShift(ctx context.Context, shiftID int64) (*domain.SwapRequest, error) {
	query := `
		SELECT id, requester_id, target_id, unit_code, reason, requires_unit_head, status, created_at, decided_at, version
		FROM swap_requests
		WHERE shift_id = $1 AND status IN ('PENDING_PARTNER', 'PENDING_SUPERVISOR', 'PENDING_UNIT_HEAD')
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	req := &domain.SwapRequest{
		ShiftID: shiftID,
	}

	dst := []any{&req.ID, &req.RequesterID, &req.TargetID, &req.UnitCode, &req.Reason, &req.RequiresUnitHead, &req.Status, &req.CreatedAt, &req.DecidedAt, &req.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, shiftID).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return req, nil
}

// UpdateSwapRequest persists one successful transition: the new status plus
// the single decision the state machine appended. The version predicate
// turns a lost race into StaleState instead of a silent overwrite.
func (r *Repository) UpdateSwapRequest(ctx context.Context, req *domain.SwapRequest, appended domain.Decision) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE swap_requests
		SET status = $1, decided_at = $2, version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	if err := tx.QueryRowContext(ctx, query, req.Status, req.DecidedAt, req.ID, req.Version).Scan(&req.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewStaleStateError("the request has moved on, reload and try again")
		}
		return err
	}

	query = `
		INSERT INTO swap_request_decisions (request_id, approver_role, approver_id, outcome, decided_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := tx.ExecContext(ctx, query, req.ID, appended.ApproverRole, appended.ApproverID, appended.Outcome, appended.DecidedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) ListSwapRequestsByParticipant(ctx context.Context, userID int64) ([]*domain.SwapRequest, error) {
	query := `
		SELECT id, requester_id, target_id, shift_id, unit_code, reason, requires_unit_head, status, created_at, decided_at, version
		FROM swap_requests
		WHERE requester_id = $1 OR target_id = $1
		ORDER BY created_at DESC
	`

	return r.listSwapRequests(ctx, query, userID)
}

func (r *Repository) ListAllSwapRequests(ctx context.Context) ([]*domain.SwapRequest, error) {
	query := `
		SELECT id, requester_id, target_id, shift_id, unit_code, reason, requires_unit_head, status, created_at, decided_at, version
		FROM swap_requests
		ORDER BY created_at DESC
	`

	return r.listSwapRequests(ctx, query)
}

func (r *Repository) listSwapRequests(ctx context.Context, query string, args ...any) ([]*domain.SwapRequest, error) {
	queryCtx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*domain.SwapRequest, 0)
	for rows.Next() {
		req := &domain.SwapRequest{}
		dst := []any{&req.ID, &req.RequesterID, &req.TargetID, &req.ShiftID, &req.UnitCode, &req.Reason, &req.RequiresUnitHead, &req.Status, &req.CreatedAt, &req.DecidedAt, &req.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, req := range requests {
		decisions, err := r.getDecisions(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		req.Decisions = decisions
	}

	return requests, nil
}

func (r *Repository) getDecisions(ctx context.Context, requestID int64) ([]domain.Decision, error) {
	query := `
		SELECT approver_role, approver_id, outcome, decided_at
		FROM swap_request_decisions
		WHERE request_id = $1
		ORDER BY id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decisions := make([]domain.Decision, 0)
	for rows.Next() {
		var decision domain.Decision
		if err := rows.Scan(&decision.ApproverRole, &decision.ApproverID, &decision.Outcome, &decision.DecidedAt); err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return decisions, nil
}
