package models

import "time"

// AssignmentGroup is a weighted grading category within an offering.
// Weights need not sum to 100; the final percentage is weight-normalized.
type AssignmentGroup struct {
	ID               int64     `json:"id" db:"id"`
	CourseOfferingID int64     `json:"courseOfferingId" db:"course_offering_id"`
	Name             string    `json:"name" db:"name"`
	Weight           float64   `json:"weight" db:"weight"`
	DropLowest       int       `json:"dropLowest" db:"drop_lowest"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// Assignment is a gradable item, optionally belonging to a group.
type Assignment struct {
	ID               int64      `json:"id" db:"id"`
	CourseOfferingID int64      `json:"courseOfferingId" db:"course_offering_id"`
	GroupID          *int64     `json:"groupId,omitempty" db:"group_id"`
	Title            string     `json:"title" db:"title"`
	DueAt            *time.Time `json:"dueAt,omitempty" db:"due_at"`
	PointsPossible   float64    `json:"pointsPossible" db:"points_possible"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
}

// Submission is a student's work on an assignment. Grade nil means ungraded.
// Submissions are written by the submission-intake flow and read here.
type Submission struct {
	ID           int64      `json:"id" db:"id"`
	AssignmentID int64      `json:"assignmentId" db:"assignment_id"`
	UserID       int64      `json:"userId" db:"user_id"`
	Grade        *float64   `json:"grade,omitempty" db:"grade"`
	SubmittedAt  time.Time  `json:"submittedAt" db:"submitted_at"`
	GradedAt     *time.Time `json:"gradedAt,omitempty" db:"graded_at"`
}

// Attendance marks a student's presence in one class session.
type Attendance struct {
	ID               int64            `json:"id" db:"id"`
	CourseOfferingID int64            `json:"courseOfferingId" db:"course_offering_id"`
	UserID           int64            `json:"userId" db:"user_id"`
	Date             time.Time        `json:"date" db:"date"`
	Status           AttendanceStatus `json:"status" db:"status"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
}
