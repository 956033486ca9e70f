package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/changex/eduspace/internal/app/services"
)

// RiskRepository extracts the per-student feature vectors the risk scorer
// consumes. Everything is computed in one query per offering; rows come back
// ordered by user ID so the scorer's output order is stable.
type RiskRepository struct {
	db *pgxpool.Pool
}

// NewRiskRepository creates a new RiskRepository
func NewRiskRepository(db *pgxpool.Pool) *RiskRepository {
	return &RiskRepository{db: db}
}

// featureQuery computes, per enrolled student of the offering:
// avg_grade: mean graded-submission percentage, 0 with no graded work
// submission_rate: submissions / total assignments, 0 with no assignments
// attendance_rate: present records / distinct class dates, 0 with no classes
const featureQuery = `
SELECT
    e.user_id,
    COALESCE((
        SELECT AVG(s.grade / NULLIF(a.points_possible, 0) * 100)
        FROM submissions s
        JOIN assignments a ON a.id = s.assignment_id
        WHERE a.course_offering_id = e.course_offering_id
          AND s.user_id = e.user_id
          AND s.grade IS NOT NULL
    ), 0) AS avg_grade,
    CASE WHEN total.assignments = 0 THEN 0 ELSE (
        SELECT COUNT(*)::float
        FROM submissions s
        JOIN assignments a ON a.id = s.assignment_id
        WHERE a.course_offering_id = e.course_offering_id
          AND s.user_id = e.user_id
    ) / total.assignments END AS submission_rate,
    CASE WHEN total.class_dates = 0 THEN 0 ELSE (
        SELECT COUNT(*)::float
        FROM attendance att
        WHERE att.course_offering_id = e.course_offering_id
          AND att.user_id = e.user_id
          AND att.status = 'present'
    ) / total.class_dates END AS attendance_rate
FROM enrollments e
CROSS JOIN LATERAL (
    SELECT
        (SELECT COUNT(*)::float FROM assignments a WHERE a.course_offering_id = e.course_offering_id) AS assignments,
        (SELECT COUNT(DISTINCT att.date)::float FROM attendance att WHERE att.course_offering_id = e.course_offering_id) AS class_dates
) AS total
WHERE e.course_offering_id = $1 AND e.status = 'enrolled'
ORDER BY e.user_id ASC`

// StudentFeatures returns one feature row per enrolled student of the offering
func (r *RiskRepository) StudentFeatures(ctx context.Context, offeringID int64) ([]services.StudentFeatures, error) {
	rows, err := r.db.Query(ctx, featureQuery, offeringID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var features []services.StudentFeatures
	for rows.Next() {
		var f services.StudentFeatures
		if err := rows.Scan(&f.StudentID, &f.AvgGrade, &f.SubmissionRate, &f.AttendanceRate); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		features = append(features, f)
	}

	return features, nil
}
