package services

// Services defined in this package:
// - EnrollmentService: admission control, waitlisting, promotion, drop/complete
// - GradingService: final-grade computation and persistence
// - RiskService: dropout-risk scoring over extracted student features
// - AnalyticsService: read-side institution/course/user aggregates
// - AuthService: login and token issuance

// Services holds all the service instances
type Services struct {
	Enrollment *EnrollmentService
	Grading    *GradingService
	Risk       *RiskService
	Analytics  *AnalyticsService
	Auth       *AuthService
}
