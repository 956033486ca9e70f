package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/changex/eduspace/internal/app/models/dto"
	"github.com/changex/eduspace/internal/app/services"
	"github.com/changex/eduspace/internal/middleware"
)

// AnalyticsController handles read-side analytics endpoints
type AnalyticsController struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(analyticsService *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analyticsService: analyticsService}
}

// InstitutionStats returns headline aggregates for an institution
// @Summary Institution statistics
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param institutionId path int true "Institution ID"
// @Success 200 {object} dto.APIResponse{data=services.InstitutionStats}
// @Router /institutions/{institutionId}/stats [get]
func (c *AnalyticsController) InstitutionStats(ctx *gin.Context) {
	institutionID, ok := pathID(ctx, "institutionId")
	if !ok {
		return
	}

	stats, err := c.analyticsService.InstitutionStats(ctx.Request.Context(), institutionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(stats))
}

// CoursePerformance returns grade and attendance aggregates for an offering
// @Summary Course performance
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offering ID"
// @Success 200 {object} dto.APIResponse{data=services.CoursePerformance}
// @Router /offerings/{id}/performance [get]
func (c *AnalyticsController) CoursePerformance(ctx *gin.Context) {
	offeringID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	performance, err := c.analyticsService.CoursePerformance(ctx.Request.Context(), offeringID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(performance))
}

// UserActivity returns recent activity counters for a user
// @Summary User activity
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param windowDays query int false "Activity window in days"
// @Success 200 {object} dto.APIResponse{data=services.UserActivity}
// @Router /users/{id}/activity [get]
func (c *AnalyticsController) UserActivity(ctx *gin.Context) {
	userID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var query dto.UserActivityQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid query parameters").
			WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	activity, err := c.analyticsService.UserActivity(ctx.Request.Context(), userID, query.WindowDays)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(activity))
}
