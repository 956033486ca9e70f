package models

import "time"

// Course represents a course in an institution's catalog.
type Course struct {
	ID            int64     `json:"id" db:"id"`
	InstitutionID int64     `json:"institutionId" db:"institution_id"`
	Code          string    `json:"code" db:"code"`
	Title         string    `json:"title" db:"title"`
	Description   *string   `json:"description,omitempty" db:"description"`
	Credits       int       `json:"credits" db:"credits"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	PrerequisiteIDs []int64 `json:"prerequisiteIds,omitempty"`
}

// CourseOffering is a concrete run of a course in a term with a seat capacity.
type CourseOffering struct {
	ID           int64          `json:"id" db:"id"`
	CourseID     int64          `json:"courseId" db:"course_id"`
	InstructorID *int64         `json:"instructorId,omitempty" db:"instructor_id"`
	Term         *string        `json:"term,omitempty" db:"term"`
	Year         *int           `json:"year,omitempty" db:"year"`
	Capacity     int            `json:"capacity" db:"capacity"`
	Status       OfferingStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	Course *Course `json:"course,omitempty"`
}
