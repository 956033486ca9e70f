package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/changex/eduspace/internal/app/models"
)

// UserRepository handles database operations for users and their roles
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByID retrieves a user by ID, nil when absent
func (r *UserRepository) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	return r.getUser(ctx, squirrel.Eq{"id": userID})
}

// GetUserByEmail retrieves a user by email, nil when absent
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, squirrel.Eq{"email": email})
}

func (r *UserRepository) getUser(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	query := squirrel.Select(
		"id", "email", "password_hash", "full_name", "is_active", "last_login", "created_at",
	).
		From("users").
		Where(where).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var user models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.IsActive,
		&user.LastLogin,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	return &user, nil
}

// UpdateLastLogin stamps the user's last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	query := squirrel.Update("users").
		Set("last_login", at).
		Where("id = ?", userID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// Capabilities returns the union of capability strings the user holds in the
// institution across all of their roles.
func (r *UserRepository) Capabilities(ctx context.Context, userID, institutionID int64) ([]string, error) {
	query := squirrel.Select("capabilities").
		From("user_roles").
		Where("user_id = ? AND institution_id = ?", userID, institutionID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var capabilities []string
	for rows.Next() {
		var caps []string
		if err := rows.Scan(&caps); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		for _, c := range caps {
			if !seen[c] {
				seen[c] = true
				capabilities = append(capabilities, c)
			}
		}
	}

	return capabilities, nil
}

// HasCapabilityAnywhere reports whether any of the user's role assignments,
// at any institution, carries the capability.
func (r *UserRepository) HasCapabilityAnywhere(ctx context.Context, userID int64, capability string) (bool, error) {
	query := squirrel.Select("1").
		From("user_roles").
		Where("user_id = ? AND ? = ANY(capabilities)", userID, capability).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var one int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error executing query: %w", err)
	}

	return true, nil
}

// RecordAudit inserts an audit log row for a user action
func (r *UserRepository) RecordAudit(ctx context.Context, userID int64, action string) error {
	query := squirrel.Insert("audit_logs").
		Columns("user_id", "action").
		Values(userID, action).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}
