package dto

// EnrollmentRequest asks to enroll a student into a course offering.
type EnrollmentRequest struct {
	UserID     int64 `json:"userId" binding:"required,min=1"`
	OfferingID int64 `json:"offeringId" binding:"required,min=1"`
}

// UserActivityQuery carries the optional activity window override.
type UserActivityQuery struct {
	WindowDays int `form:"windowDays" binding:"omitempty,min=1,max=365"`
}
