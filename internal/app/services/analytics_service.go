package services

import (
	"context"
	"fmt"
	"time"

	"github.com/changex/eduspace/internal/app/models"
	"github.com/changex/eduspace/internal/pkg/apperrors"
)

// InstitutionStats aggregates an institution's headline numbers.
type InstitutionStats struct {
	Students        int     `json:"students"`
	Faculty         int     `json:"faculty"`
	Courses         int     `json:"courses"`
	ActiveOfferings int     `json:"activeOfferings"`
	Enrollments     int     `json:"enrollments"`
	Revenue         float64 `json:"revenue"`
}

// CoursePerformance aggregates one offering's outcomes over its enrolled
// students. All rates are zero when there are no enrolled students.
type CoursePerformance struct {
	AvgGrade        float64 `json:"avgGrade"`
	PassRate        float64 `json:"passRate"`
	AttendanceRate  float64 `json:"attendanceRate"`
	SubmissionRate  float64 `json:"submissionRate"`
	EnrollmentCount int     `json:"enrollmentCount"`
}

// UserActivity counts a user's recent activity within a trailing window.
type UserActivity struct {
	Logins      int `json:"logins"`
	Submissions int `json:"submissions"`
	Attendance  int `json:"attendance"`
	WindowDays  int `json:"windowDays"`
}

// AnalyticsStore is the read-only query surface the aggregator composes.
type AnalyticsStore interface {
	CountUsersByRole(ctx context.Context, institutionID int64, roleName string) (int, error)
	CountCourses(ctx context.Context, institutionID int64) (int, error)
	CountActiveOfferings(ctx context.Context, institutionID int64) (int, error)
	CountEnrolledStudents(ctx context.Context, institutionID int64) (int, error)
	CompletedPaymentTotal(ctx context.Context, institutionID int64) (float64, error)

	EnrolledGrades(ctx context.Context, offeringID int64) ([]float64, error)
	DistinctClassDates(ctx context.Context, offeringID int64) (int, error)
	PresentCount(ctx context.Context, offeringID int64) (int, error)
	CountAssignments(ctx context.Context, offeringID int64) (int, error)
	CountSubmissions(ctx context.Context, offeringID int64) (int, error)

	CountLoginsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	CountSubmissionsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	CountAttendanceSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// AnalyticsService composes read-side statistics over the entities the other
// services manage. It holds no domain invariants of its own; empty inputs
// yield zeroed aggregates, never errors.
type AnalyticsService struct {
	store             AnalyticsStore
	passingGrade      float64
	defaultWindowDays int
}

// NewAnalyticsService creates a new analytics service instance
func NewAnalyticsService(store AnalyticsStore, passingGrade float64, defaultWindowDays int) *AnalyticsService {
	if passingGrade <= 0 {
		passingGrade = 60.0
	}
	if defaultWindowDays <= 0 {
		defaultWindowDays = 30
	}
	return &AnalyticsService{
		store:             store,
		passingGrade:      passingGrade,
		defaultWindowDays: defaultWindowDays,
	}
}

// InstitutionStats returns the institution-wide aggregate.
func (s *AnalyticsService) InstitutionStats(ctx context.Context, institutionID int64) (*InstitutionStats, error) {
	if institutionID <= 0 {
		return nil, apperrors.ErrValidationFailed
	}

	stats := &InstitutionStats{}
	var err error

	if stats.Students, err = s.store.CountUsersByRole(ctx, institutionID, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("error counting students: %w", err)
	}
	if stats.Faculty, err = s.store.CountUsersByRole(ctx, institutionID, models.RoleFaculty); err != nil {
		return nil, fmt.Errorf("error counting faculty: %w", err)
	}
	if stats.Courses, err = s.store.CountCourses(ctx, institutionID); err != nil {
		return nil, fmt.Errorf("error counting courses: %w", err)
	}
	if stats.ActiveOfferings, err = s.store.CountActiveOfferings(ctx, institutionID); err != nil {
		return nil, fmt.Errorf("error counting active offerings: %w", err)
	}
	if stats.Enrollments, err = s.store.CountEnrolledStudents(ctx, institutionID); err != nil {
		return nil, fmt.Errorf("error counting enrollments: %w", err)
	}
	if stats.Revenue, err = s.store.CompletedPaymentTotal(ctx, institutionID); err != nil {
		return nil, fmt.Errorf("error summing payments: %w", err)
	}

	return stats, nil
}

// CoursePerformance returns grade, pass, attendance and submission rates for
// one offering. An offering with no enrolled students yields the zero value.
func (s *AnalyticsService) CoursePerformance(ctx context.Context, offeringID int64) (*CoursePerformance, error) {
	if offeringID <= 0 {
		return nil, apperrors.ErrValidationFailed
	}

	grades, err := s.store.EnrolledGrades(ctx, offeringID)
	if err != nil {
		return nil, fmt.Errorf("error loading enrolled grades: %w", err)
	}

	perf := &CoursePerformance{EnrollmentCount: len(grades)}
	if len(grades) == 0 {
		return perf, nil
	}

	var sum float64
	var passed int
	for _, grade := range grades {
		sum += grade
		if grade >= s.passingGrade {
			passed++
		}
	}
	perf.AvgGrade = sum / float64(len(grades))
	perf.PassRate = float64(passed) / float64(len(grades))

	classDates, err := s.store.DistinctClassDates(ctx, offeringID)
	if err != nil {
		return nil, fmt.Errorf("error counting class dates: %w", err)
	}
	if classDates > 0 {
		present, err := s.store.PresentCount(ctx, offeringID)
		if err != nil {
			return nil, fmt.Errorf("error counting attendance: %w", err)
		}
		perf.AttendanceRate = float64(present) / float64(classDates*len(grades))
	}

	assignments, err := s.store.CountAssignments(ctx, offeringID)
	if err != nil {
		return nil, fmt.Errorf("error counting assignments: %w", err)
	}
	if assignments > 0 {
		submitted, err := s.store.CountSubmissions(ctx, offeringID)
		if err != nil {
			return nil, fmt.Errorf("error counting submissions: %w", err)
		}
		perf.SubmissionRate = float64(submitted) / float64(assignments*len(grades))
	}

	return perf, nil
}

// UserActivity counts logins, submissions and attendance records over the
// trailing window. windowDays <= 0 uses the configured default.
func (s *AnalyticsService) UserActivity(ctx context.Context, userID int64, windowDays int) (*UserActivity, error) {
	if userID <= 0 {
		return nil, apperrors.ErrValidationFailed
	}
	if windowDays <= 0 {
		windowDays = s.defaultWindowDays
	}

	since := time.Now().AddDate(0, 0, -windowDays)
	activity := &UserActivity{WindowDays: windowDays}
	var err error

	if activity.Logins, err = s.store.CountLoginsSince(ctx, userID, since); err != nil {
		return nil, fmt.Errorf("error counting logins: %w", err)
	}
	if activity.Submissions, err = s.store.CountSubmissionsSince(ctx, userID, since); err != nil {
		return nil, fmt.Errorf("error counting submissions: %w", err)
	}
	if activity.Attendance, err = s.store.CountAttendanceSince(ctx, userID, since); err != nil {
		return nil, fmt.Errorf("error counting attendance: %w", err)
	}

	return activity, nil
}
