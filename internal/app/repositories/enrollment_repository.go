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
	"github.com/changex/eduspace/internal/db"
	"github.com/changex/eduspace/internal/pkg/apperrors"
	"github.com/changex/eduspace/internal/pkg/dberrors"
)

// EnrollmentRepository handles database operations for enrollments and the
// waitlist. It is the only writer of enrollment status and waitlist rows.
type EnrollmentRepository struct {
	db *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// WithOfferingLock runs fn inside a transaction holding a per-offering
// advisory lock. The lock is transaction-scoped: it releases on commit or
// rollback, so the capacity check and the insert it guards are atomic with
// respect to concurrent admissions on the same offering.
func (r *EnrollmentRepository) WithOfferingLock(ctx context.Context, offeringID int64, fn func(ctx context.Context, view services.AdmissionView) error) error {
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", offeringID); err != nil {
			return fmt.Errorf("%w: failed to acquire offering lock: %v", apperrors.ErrStoreUnavailable, err)
		}
		return fn(ctx, &admissionView{tx: tx})
	})
	return err
}

// EnrollmentByID retrieves an enrollment by ID, nil when absent
func (r *EnrollmentRepository) EnrollmentByID(ctx context.Context, enrollmentID int64) (*models.Enrollment, error) {
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

// UpdateEnrollmentStatus sets a new status on an enrollment
func (r *EnrollmentRepository) UpdateEnrollmentStatus(ctx context.Context, enrollmentID int64, status models.EnrollmentStatus) error {
	query := squirrel.Update("enrollments").
		Set("status", status).
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
		return apperrors.ErrEnrollmentNotFound
	}

	return nil
}

// EnrollmentsByOffering retrieves all enrollments with a given status
func (r *EnrollmentRepository) EnrollmentsByOffering(ctx context.Context, offeringID int64, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	query := squirrel.Select(
		"id", "user_id", "course_offering_id", "status", "grade", "letter_grade", "enrolled_at",
	).
		From("enrollments").
		Where("course_offering_id = ? AND status = ?", offeringID, status).
		OrderBy("enrolled_at ASC").
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

	var enrollments []models.Enrollment
	for rows.Next() {
		var enrollment models.Enrollment
		err := rows.Scan(
			&enrollment.ID,
			&enrollment.UserID,
			&enrollment.CourseOfferingID,
			&enrollment.Status,
			&enrollment.Grade,
			&enrollment.LetterGrade,
			&enrollment.EnrolledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}

	return enrollments, nil
}

// InstitutionForOffering resolves the institution that owns an offering's course.
func (r *EnrollmentRepository) InstitutionForOffering(ctx context.Context, offeringID int64) (int64, error) {
	query := squirrel.Select("c.institution_id").
		From("course_offerings co").
		Join("courses c ON c.id = co.course_id").
		Where("co.id = ?", offeringID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var institutionID int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&institutionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrOfferingNotFound
		}
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return institutionID, nil
}

// InstitutionForEnrollment resolves the institution through the enrollment's
// offering and course.
func (r *EnrollmentRepository) InstitutionForEnrollment(ctx context.Context, enrollmentID int64) (int64, error) {
	query := squirrel.Select("c.institution_id").
		From("enrollments e").
		Join("course_offerings co ON co.id = e.course_offering_id").
		Join("courses c ON c.id = co.course_id").
		Where("e.id = ?", enrollmentID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var institutionID int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&institutionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrEnrollmentNotFound
		}
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return institutionID, nil
}

// admissionView runs the admission reads and writes on the locked transaction.
type admissionView struct {
	tx pgx.Tx
}

// OfferingByID retrieves an offering by ID, nil when absent
func (v *admissionView) OfferingByID(ctx context.Context, offeringID int64) (*models.CourseOffering, error) {
	query := squirrel.Select(
		"id", "course_id", "instructor_id", "term", "year", "capacity", "status", "created_at",
	).
		From("course_offerings").
		Where("id = ?", offeringID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var offering models.CourseOffering
	err = v.tx.QueryRow(ctx, sql, args...).Scan(
		&offering.ID,
		&offering.CourseID,
		&offering.InstructorID,
		&offering.Term,
		&offering.Year,
		&offering.Capacity,
		&offering.Status,
		&offering.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	return &offering, nil
}

// EnrollmentExists checks for an enrollment in any status
func (v *admissionView) EnrollmentExists(ctx context.Context, userID, offeringID int64) (bool, error) {
	query := squirrel.Select("1").
		From("enrollments").
		Where("user_id = ? AND course_offering_id = ?", userID, offeringID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var exists int
	err = v.tx.QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error executing query: %w", err)
	}

	return true, nil
}

// EnrolledCount counts enrollments with status enrolled
func (v *admissionView) EnrolledCount(ctx context.Context, offeringID int64) (int, error) {
	query := squirrel.Select("COUNT(*)").
		From("enrollments").
		Where("course_offering_id = ? AND status = ?", offeringID, models.EnrollmentEnrolled).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var count int
	if err := v.tx.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return count, nil
}

// WaitlistExists checks for an existing waitlist entry
func (v *admissionView) WaitlistExists(ctx context.Context, offeringID, userID int64) (bool, error) {
	query := squirrel.Select("1").
		From("waitlist").
		Where("course_offering_id = ? AND user_id = ?", offeringID, userID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var exists int
	err = v.tx.QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error executing query: %w", err)
	}

	return true, nil
}

// CreateWaitlistEntry appends a user to the offering's FIFO waitlist
func (v *admissionView) CreateWaitlistEntry(ctx context.Context, offeringID, userID int64) (*models.WaitlistEntry, error) {
	query := squirrel.Insert("waitlist").
		Columns("course_offering_id", "user_id").
		Values(offeringID, userID).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	entry := models.WaitlistEntry{
		CourseOfferingID: offeringID,
		UserID:           userID,
	}
	err = v.tx.QueryRow(ctx, sql, args...).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "unique_waitlist") {
			return nil, apperrors.ErrAlreadyWaitlisted
		}
		if dberrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflictError("waitlist entry conflicts with existing data")
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	return &entry, nil
}

// PrerequisiteCourseIDs lists the prerequisite courses of a course
func (v *admissionView) PrerequisiteCourseIDs(ctx context.Context, courseID int64) ([]int64, error) {
	query := squirrel.Select("prerequisite_id").
		From("course_prerequisites").
		Where("course_id = ?", courseID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := v.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// CompletedCourseIDs returns the courses the user completed with a passing grade
func (v *admissionView) CompletedCourseIDs(ctx context.Context, userID int64, passingGrade float64) (map[int64]bool, error) {
	query := squirrel.Select("DISTINCT co.course_id").
		From("enrollments e").
		Join("course_offerings co ON co.id = e.course_offering_id").
		Where("e.user_id = ? AND e.status = ? AND e.grade >= ?", userID, models.EnrollmentCompleted, passingGrade).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := v.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	completed := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		completed[id] = true
	}

	return completed, nil
}

// CreateEnrollment inserts an enrolled row for the user
func (v *admissionView) CreateEnrollment(ctx context.Context, userID, offeringID int64) (*models.Enrollment, error) {
	query := squirrel.Insert("enrollments").
		Columns("user_id", "course_offering_id", "status").
		Values(userID, offeringID, models.EnrollmentEnrolled).
		Suffix("RETURNING id, enrolled_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	enrollment := models.Enrollment{
		UserID:           userID,
		CourseOfferingID: offeringID,
		Status:           models.EnrollmentEnrolled,
	}
	err = v.tx.QueryRow(ctx, sql, args...).Scan(&enrollment.ID, &enrollment.EnrolledAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "unique_enrollment") {
			return nil, apperrors.ErrAlreadyEnrolled
		}
		if dberrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflictError("enrollment conflicts with existing data")
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	return &enrollment, nil
}

// NextUnnotifiedWaitlistEntries lists waitlist entries pending a promotion
// offer, earliest first.
func (v *admissionView) NextUnnotifiedWaitlistEntries(ctx context.Context, offeringID int64) ([]models.WaitlistEntry, error) {
	query := squirrel.Select("id", "course_offering_id", "user_id", "notified", "created_at").
		From("waitlist").
		Where("course_offering_id = ? AND notified = FALSE", offeringID).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := v.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var entries []models.WaitlistEntry
	for rows.Next() {
		var entry models.WaitlistEntry
		err := rows.Scan(
			&entry.ID,
			&entry.CourseOfferingID,
			&entry.UserID,
			&entry.Notified,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// MarkWaitlistNotified flags an entry as having received a promotion offer
func (v *admissionView) MarkWaitlistNotified(ctx context.Context, entryID int64) error {
	query := squirrel.Update("waitlist").
		Set("notified", true).
		Where("id = ?", entryID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := v.tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("waitlist entry %d not found", entryID)
	}

	return nil
}
