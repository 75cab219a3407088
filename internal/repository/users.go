package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
)

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT employee_id, username, password_hash, full_name, email, telegram_chat_id, role, unit_code, is_active, created_at, version
		FROM users WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.EmployeeID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.TelegramChatID, &user.Role, &user.UnitCode, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewUserNotFoundError(id)
		}
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, employee_id, password_hash, full_name, email, telegram_chat_id, role, unit_code, is_active, created_at, version
		FROM users WHERE username = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	user := &domain.User{
		Username: username,
	}

	dst := []any{&user.ID, &user.EmployeeID, &user.PasswordHash, &user.FullName, &user.Email, &user.TelegramChatID, &user.Role, &user.UnitCode, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, employee_id, username, password_hash, full_name, email, telegram_chat_id, role, unit_code, is_active, created_at, version
		FROM users
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		dst := []any{&user.ID, &user.EmployeeID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.TelegramChatID, &user.Role, &user.UnitCode, &user.IsActive, &user.CreatedAt, &user.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO users (employee_id, username, password_hash, full_name, email, telegram_chat_id, role, unit_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_active, created_at, version
	`

	args := []any{user.EmployeeID, user.Username, user.PasswordHash, user.FullName, user.Email, user.TelegramChatID, user.Role, user.UnitCode}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET
			password_hash = $1,
			email = $2,
			telegram_chat_id = $3,
			role = $4,
			unit_code = $5,
			is_active = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING employee_id, username, full_name, created_at, version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{user.PasswordHash, user.Email, user.TelegramChatID, user.Role, user.UnitCode, user.IsActive, user.ID, user.Version}
	dst := []any{&user.EmployeeID, &user.Username, &user.FullName, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewStaleStateError("user record was modified concurrently")
		}
		return err
	}

	return nil
}
