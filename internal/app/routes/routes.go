package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appauth "github.com/changex/eduspace/internal/app/auth"
	"github.com/changex/eduspace/internal/app/controllers"
	"github.com/changex/eduspace/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	enrollmentController *controllers.EnrollmentController,
	gradeController *controllers.GradeController,
	riskController *controllers.RiskController,
	analyticsController *controllers.AnalyticsController,
	realtimeController *controllers.RealtimeController,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		enrollments := authenticated.Group("/enrollments")
		{
			enrollments.POST("", enrollmentController.RequestEnrollment)
			enrollments.POST("/:id/drop", enrollmentController.DropEnrollment)
			enrollments.POST("/:id/complete", enrollmentController.CompleteEnrollment)
			enrollments.GET("/:id/grade", gradeController.GetFinalGrade)
			enrollments.POST("/:id/grade",
				authMiddleware.EnrollmentCapabilityRequired(appauth.CapFinalizeGrades),
				gradeController.CalculateFinalGrade)
		}

		offerings := authenticated.Group("/offerings")
		{
			offerings.POST("/:id/promote",
				authMiddleware.OfferingCapabilityRequired(appauth.CapManageEnrollment),
				enrollmentController.PromoteFromWaitlist)
			offerings.GET("/:id/at-risk",
				authMiddleware.OfferingCapabilityRequired(appauth.CapViewRisk),
				riskController.AtRiskStudents)
			offerings.GET("/:id/performance",
				authMiddleware.OfferingCapabilityRequired(appauth.CapViewAnalytics),
				analyticsController.CoursePerformance)
			offerings.GET("/:id/updates", realtimeController.Subscribe)
		}

		authenticated.GET("/institutions/:institutionId/stats",
			authMiddleware.CapabilityRequired(appauth.CapViewAnalytics),
			analyticsController.InstitutionStats)
		authenticated.GET("/users/:id/activity", analyticsController.UserActivity)

		authenticated.POST("/risk/model/reload",
			authMiddleware.CapabilityAnywhereRequired(appauth.CapViewRisk),
			riskController.ReloadModel)
	}
}
