package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changex/eduspace/internal/app/models"
	"github.com/changex/eduspace/internal/pkg/apperrors"
)

type fakeAnalyticsStore struct {
	students        int
	faculty         int
	courses         int
	activeOfferings int
	enrolled        int
	revenue         float64

	grades      []float64
	classDates  int
	present     int
	assignments int
	submissions int

	logins            int
	userSubmissions   int
	attendanceMarks   int
	lastActivitySince time.Time
}

func (s *fakeAnalyticsStore) CountUsersByRole(_ context.Context, _ int64, roleName string) (int, error) {
	if roleName == models.RoleFaculty {
		return s.faculty, nil
	}
	return s.students, nil
}

func (s *fakeAnalyticsStore) CountCourses(context.Context, int64) (int, error) {
	return s.courses, nil
}

func (s *fakeAnalyticsStore) CountActiveOfferings(context.Context, int64) (int, error) {
	return s.activeOfferings, nil
}

func (s *fakeAnalyticsStore) CountEnrolledStudents(context.Context, int64) (int, error) {
	return s.enrolled, nil
}

func (s *fakeAnalyticsStore) CompletedPaymentTotal(context.Context, int64) (float64, error) {
	return s.revenue, nil
}

func (s *fakeAnalyticsStore) EnrolledGrades(context.Context, int64) ([]float64, error) {
	return s.grades, nil
}

func (s *fakeAnalyticsStore) DistinctClassDates(context.Context, int64) (int, error) {
	return s.classDates, nil
}

func (s *fakeAnalyticsStore) PresentCount(context.Context, int64) (int, error) {
	return s.present, nil
}

func (s *fakeAnalyticsStore) CountAssignments(context.Context, int64) (int, error) {
	return s.assignments, nil
}

func (s *fakeAnalyticsStore) CountSubmissions(context.Context, int64) (int, error) {
	return s.submissions, nil
}

func (s *fakeAnalyticsStore) CountLoginsSince(_ context.Context, _ int64, since time.Time) (int, error) {
	s.lastActivitySince = since
	return s.logins, nil
}

func (s *fakeAnalyticsStore) CountSubmissionsSince(context.Context, int64, time.Time) (int, error) {
	return s.userSubmissions, nil
}

func (s *fakeAnalyticsStore) CountAttendanceSince(context.Context, int64, time.Time) (int, error) {
	return s.attendanceMarks, nil
}

func TestInstitutionStats(t *testing.T) {
	store := &fakeAnalyticsStore{
		students:        120,
		faculty:         8,
		courses:         14,
		activeOfferings: 6,
		enrolled:        240,
		revenue:         15000.50,
	}
	svc := NewAnalyticsService(store, 60, 30)

	stats, err := svc.InstitutionStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 120, stats.Students)
	assert.Equal(t, 8, stats.Faculty)
	assert.Equal(t, 14, stats.Courses)
	assert.Equal(t, 6, stats.ActiveOfferings)
	assert.Equal(t, 240, stats.Enrollments)
	assert.InDelta(t, 15000.50, stats.Revenue, 1e-9)
}

func TestCoursePerformance(t *testing.T) {
	store := &fakeAnalyticsStore{
		grades:      []float64{90, 70, 50, 80},
		classDates:  10,
		present:     32, // 32 of 40 possible marks
		assignments: 5,
		submissions: 18, // 18 of 20 possible submissions
	}
	svc := NewAnalyticsService(store, 60, 30)

	perf, err := svc.CoursePerformance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, perf.EnrollmentCount)
	assert.InDelta(t, 72.5, perf.AvgGrade, 1e-9)
	assert.InDelta(t, 0.75, perf.PassRate, 1e-9)
	assert.InDelta(t, 0.8, perf.AttendanceRate, 1e-9)
	assert.InDelta(t, 0.9, perf.SubmissionRate, 1e-9)
}

// An offering with no enrolled students yields the zero aggregate, not an
// error or a division by zero.
func TestCoursePerformanceEmptyOffering(t *testing.T) {
	svc := NewAnalyticsService(&fakeAnalyticsStore{}, 60, 30)

	perf, err := svc.CoursePerformance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, &CoursePerformance{}, perf)
}

func TestCoursePerformanceNoSessionsOrAssignments(t *testing.T) {
	store := &fakeAnalyticsStore{grades: []float64{100}}
	svc := NewAnalyticsService(store, 60, 30)

	perf, err := svc.CoursePerformance(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, perf.AttendanceRate)
	assert.Zero(t, perf.SubmissionRate)
	assert.InDelta(t, 100.0, perf.AvgGrade, 1e-9)
	assert.InDelta(t, 1.0, perf.PassRate, 1e-9)
}

func TestUserActivityDefaultWindow(t *testing.T) {
	store := &fakeAnalyticsStore{logins: 3, userSubmissions: 7, attendanceMarks: 12}
	svc := NewAnalyticsService(store, 60, 30)

	activity, err := svc.UserActivity(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, activity.WindowDays)
	assert.Equal(t, 3, activity.Logins)
	assert.Equal(t, 7, activity.Submissions)
	assert.Equal(t, 12, activity.Attendance)

	// The since bound reflects the window.
	expected := time.Now().AddDate(0, 0, -30)
	assert.WithinDuration(t, expected, store.lastActivitySince, time.Minute)
}

func TestAnalyticsValidation(t *testing.T) {
	svc := NewAnalyticsService(&fakeAnalyticsStore{}, 60, 30)

	_, err := svc.InstitutionStats(context.Background(), 0)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.CoursePerformance(context.Background(), -1)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.UserActivity(context.Background(), 0, 7)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
