package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
)

func (r *Repository) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	query := `
		SELECT owner_id, unit_code, date, start_time, end_time, created_at, version
		FROM shifts WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift := &domain.Shift{
		ID: id,
	}

	dst := []any{&shift.OwnerID, &shift.UnitCode, &shift.Date, &shift.StartTime, &shift.EndTime, &shift.CreatedAt, &shift.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewShiftNotFoundError(id)
		}
		return nil, err
	}

	return shift, nil
}

func (r *Repository) ListUpcomingShiftsByOwner(ctx context.Context, ownerID int64, from time.Time) ([]*domain.Shift, error) {
	query := `
		SELECT id, unit_code, date, start_time, end_time, created_at, version
		FROM shifts
		WHERE owner_id = $1 AND date >= $2
		ORDER BY date, start_time
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, ownerID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		shift := &domain.Shift{OwnerID: ownerID}
		dst := []any{&shift.ID, &shift.UnitCode, &shift.Date, &shift.StartTime, &shift.EndTime, &shift.CreatedAt, &shift.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (owner_id, unit_code, date, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{shift.OwnerID, shift.UnitCode, shift.Date, shift.StartTime, shift.EndTime}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&shift.ID, &shift.CreatedAt, &shift.Version); err != nil {
		return err
	}

	return nil
}

// ReassignOwner transfers a shift in a single conditional update. The
// from-owner predicate makes the transfer atomic: if ownership changed since
// validation, zero rows match and the caller gets ReassignmentConflict.
func (r *Repository) ReassignOwner(ctx context.Context, shiftID, fromOwnerID, toOwnerID int64) error {
	query := `
		UPDATE shifts
		SET owner_id = $1, version = version + 1
		WHERE id = $2 AND owner_id = $3
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, toOwnerID, shiftID, fromOwnerID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NewReassignmentConflictError(shiftID)
	}

	return nil
}
