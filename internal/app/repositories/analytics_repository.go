package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/changex/eduspace/internal/app/models"
)

// AnalyticsRepository serves the read-only aggregate queries the analytics
// service composes. No writes.
type AnalyticsRepository struct {
	db *pgxpool.Pool
}

// NewAnalyticsRepository creates a new AnalyticsRepository
func NewAnalyticsRepository(db *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) scalarInt(ctx context.Context, query squirrel.SelectBuilder) (int, error) {
	sql, args, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var value int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&value); err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return value, nil
}

// CountUsersByRole counts an institution's users holding a role
func (r *AnalyticsRepository) CountUsersByRole(ctx context.Context, institutionID int64, roleName string) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(*)").
		From("user_roles").
		Where("institution_id = ? AND role_name = ?", institutionID, roleName))
}

// CountCourses counts an institution's catalog courses
func (r *AnalyticsRepository) CountCourses(ctx context.Context, institutionID int64) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(*)").
		From("courses").
		Where("institution_id = ?", institutionID))
}

// CountActiveOfferings counts active offerings across the institution's courses
func (r *AnalyticsRepository) CountActiveOfferings(ctx context.Context, institutionID int64) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(*)").
		From("course_offerings co").
		Join("courses c ON c.id = co.course_id").
		Where("c.institution_id = ? AND co.status = ?", institutionID, models.OfferingActive))
}

// CountEnrolledStudents counts enrolled rows across the institution's offerings
func (r *AnalyticsRepository) CountEnrolledStudents(ctx context.Context, institutionID int64) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(*)").
		From("enrollments e").
		Join("course_offerings co ON co.id = e.course_offering_id").
		Join("courses c ON c.id = co.course_id").
		Where("c.institution_id = ? AND e.status = ?", institutionID, models.EnrollmentEnrolled))
}

// CompletedPaymentTotal sums the institution's completed payment amounts
func (r *AnalyticsRepository) CompletedPaymentTotal(ctx context.Context, institutionID int64) (float64, error) {
	query := squirrel.Select("COALESCE(SUM(amount), 0)").
		From("payments").
		Where("institution_id = ? AND status = ?", institutionID, models.PaymentCompleted).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var total float64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return total, nil
}

// EnrolledGrades returns the grades of the offering's enrolled students,
// ungraded enrollments counting as zero.
func (r *AnalyticsRepository) EnrolledGrades(ctx context.Context, offeringID int64) ([]float64, error) {
	query := squirrel.Select("COALESCE(grade, 0)").
		From("enrollments").
		Where("course_offering_id = ? AND status = ?", offeringID, models.EnrollmentEnrolled).
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

	var grades []float64
	for rows.Next() {
		var grade float64
		if err := rows.Scan(&grade); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		grades = append(grades, grade)
	}

	return grades, nil
}

// DistinctClassDates counts the offering's distinct attendance dates
func (r *AnalyticsRepository) DistinctClassDates(ctx context.Context, offeringID int64) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(DISTINCT date)").
		From("attendance").
		Where("course_offering_id = ?", offeringID))
}

// PresentCount counts the offering's present attendance records
func (r *AnalyticsRepository) PresentCount(ctx context.Context, offeringID int64) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(*)").
		From("attendance").
		Where("course_offering_id = ? AND status = ?", offeringID, models.AttendancePresent))
}

// CountAssignments counts the offering's assignments
func (r *AnalyticsRepository) CountAssignments(ctx context.Context, offeringID int64) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(*)").
		From("assignments").
		Where("course_offering_id = ?", offeringID))
}

// CountSubmissions counts submissions across the offering's assignments
func (r *AnalyticsRepository) CountSubmissions(ctx context.Context, offeringID int64) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(*)").
		From("submissions s").
		Join("assignments a ON a.id = s.assignment_id").
		Where("a.course_offering_id = ?", offeringID))
}

// CountLoginsSince counts the user's login audit records in the window
func (r *AnalyticsRepository) CountLoginsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(*)").
		From("audit_logs").
		Where("user_id = ? AND action = 'login' AND created_at >= ?", userID, since))
}

// CountSubmissionsSince counts the user's submissions in the window
func (r *AnalyticsRepository) CountSubmissionsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(*)").
		From("submissions").
		Where("user_id = ? AND submitted_at >= ?", userID, since))
}

// CountAttendanceSince counts the user's attendance records in the window
func (r *AnalyticsRepository) CountAttendanceSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	return r.scalarInt(ctx, squirrel.Select("COUNT(*)").
		From("attendance").
		Where("user_id = ? AND created_at >= ?", userID, since))
}
