package models

import "time"

// Enrollment is the (user, offering) relationship the coordinator owns.
// Grade and LetterGrade are written only by the grade aggregator.
type Enrollment struct {
	ID               int64            `json:"id" db:"id"`
	UserID           int64            `json:"userId" db:"user_id"`
	CourseOfferingID int64            `json:"courseOfferingId" db:"course_offering_id"`
	Status           EnrollmentStatus `json:"status" db:"status"`
	Grade            *float64         `json:"grade,omitempty" db:"grade"`
	LetterGrade      *string          `json:"letterGrade,omitempty" db:"letter_grade"`
	EnrolledAt       time.Time        `json:"enrolledAt" db:"enrolled_at"`
}

// WaitlistEntry queues a user for a seat in a full offering, FIFO by CreatedAt.
type WaitlistEntry struct {
	ID               int64     `json:"id" db:"id"`
	CourseOfferingID int64     `json:"courseOfferingId" db:"course_offering_id"`
	UserID           int64     `json:"userId" db:"user_id"`
	Notified         bool      `json:"notified" db:"notified"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}
