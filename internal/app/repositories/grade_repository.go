package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/changex/eduspace/internal/app/models"
	"github.com/changex/eduspace/internal/app/services"
)

// GradeRepository handles the reads and the single write of the grade
// aggregator: graded submissions in, final grade out.
type GradeRepository struct {
	db *pgxpool.Pool
}

// NewGradeRepository creates a new GradeRepository
func NewGradeRepository(db *pgxpool.Pool) *GradeRepository {
	return &GradeRepository{db: db}
}

// EnrollmentByID retrieves an enrollment by ID, nil when absent
func (r *GradeRepository) EnrollmentByID(ctx context.Context, enrollmentID int64) (*models.Enrollment, error) {
	query := squirrel.Select(
		"id", "user_id", "course_offering_id", "status", "grade", "letter_grade", "enrolled_at",
	).
		From("enrollments").
		Where("id = ?", enrollmentID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var enrollment models.Enrollment
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.CourseOfferingID,
		&enrollment.Status,
		&enrollment.Grade,
		&enrollment.LetterGrade,
		&enrollment.EnrolledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	return &enrollment, nil
}

// AssignmentGroups retrieves the grading groups of an offering
func (r *GradeRepository) AssignmentGroups(ctx context.Context, offeringID int64) ([]models.AssignmentGroup, error) {
	query := squirrel.Select("id", "course_offering_id", "name", "weight", "drop_lowest", "created_at").
		From("assignment_groups").
		Where("course_offering_id = ?", offeringID).
		OrderBy("id ASC").
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

	var groups []models.AssignmentGroup
	for rows.Next() {
		var group models.AssignmentGroup
		err := rows.Scan(
			&group.ID,
			&group.CourseOfferingID,
			&group.Name,
			&group.Weight,
			&group.DropLowest,
			&group.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, nil
}

// GradedItems retrieves the user's graded submissions across the offering as
// (earned, possible) pairs, ordered by submission ID for determinism.
func (r *GradeRepository) GradedItems(ctx context.Context, offeringID, userID int64) ([]services.GradedItem, error) {
	query := squirrel.Select("s.grade", "a.points_possible").
		From("submissions s").
		Join("assignments a ON a.id = s.assignment_id").
		Where("a.course_offering_id = ? AND s.user_id = ? AND s.grade IS NOT NULL", offeringID, userID).
		OrderBy("s.id ASC").
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

	var items []services.GradedItem
	for rows.Next() {
		var item services.GradedItem
		if err := rows.Scan(&item.Earned, &item.Possible); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}

// GradedItemsByGroup retrieves the user's graded submissions keyed by
// assignment group. Ungrouped assignments are excluded; they only count on
// the flat path.
func (r *GradeRepository) GradedItemsByGroup(ctx context.Context, offeringID, userID int64) (map[int64][]services.GradedItem, error) {
	query := squirrel.Select("a.group_id", "s.grade", "a.points_possible").
		From("submissions s").
		Join("assignments a ON a.id = s.assignment_id").
		Where("a.course_offering_id = ? AND s.user_id = ? AND s.grade IS NOT NULL AND a.group_id IS NOT NULL", offeringID, userID).
		OrderBy("s.id ASC").
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

	itemsByGroup := make(map[int64][]services.GradedItem)
	for rows.Next() {
		var groupID int64
		var item services.GradedItem
		if err := rows.Scan(&groupID, &item.Earned, &item.Possible); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		itemsByGroup[groupID] = append(itemsByGroup[groupID], item)
	}

	return itemsByGroup, nil
}

// SaveFinalGrade writes the computed percentage and letter onto the enrollment
func (r *GradeRepository) SaveFinalGrade(ctx context.Context, enrollmentID int64, percentage float64, letter string) error {
	query := squirrel.Update("enrollments").
		Set("grade", percentage).
		Set("letter_grade", letter).
		Where("id = ?", enrollmentID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("enrollment %d not found", enrollmentID)
	}

	return nil
}
