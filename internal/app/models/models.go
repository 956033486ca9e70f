package models

// EnrollmentStatus tracks a student's relationship to a course offering.
type EnrollmentStatus string

const (
	EnrollmentEnrolled   EnrollmentStatus = "enrolled"
	EnrollmentWaitlisted EnrollmentStatus = "waitlisted"
	EnrollmentCompleted  EnrollmentStatus = "completed"
	EnrollmentDropped    EnrollmentStatus = "dropped"
)

// OfferingStatus represents the lifecycle state of a course offering.
type OfferingStatus string

const (
	OfferingActive   OfferingStatus = "active"
	OfferingArchived OfferingStatus = "archived"
)

// AttendanceStatus marks a student's presence on a class date.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceExcused AttendanceStatus = "excused"
)

// PaymentStatus represents a payment's settlement state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Role names used by the authorization policy and analytics role counts.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)
