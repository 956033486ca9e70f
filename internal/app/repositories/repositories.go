package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	EnrollmentRepository   *EnrollmentRepository
	GradeRepository        *GradeRepository
	RiskRepository         *RiskRepository
	AnalyticsRepository    *AnalyticsRepository
	NotificationRepository *NotificationRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		EnrollmentRepository:   NewEnrollmentRepository(db),
		GradeRepository:        NewGradeRepository(db),
		RiskRepository:         NewRiskRepository(db),
		AnalyticsRepository:    NewAnalyticsRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}
