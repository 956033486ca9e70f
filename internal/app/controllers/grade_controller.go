package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/changex/eduspace/internal/app/models/dto"
	"github.com/changex/eduspace/internal/app/services"
	"github.com/changex/eduspace/internal/middleware"
)

// GradeController handles grade computation endpoints
type GradeController struct {
	gradingService *services.GradingService
}

// NewGradeController creates a new GradeController
func NewGradeController(gradingService *services.GradingService) *GradeController {
	return &GradeController{gradingService: gradingService}
}

// CalculateFinalGrade computes and stores the final grade for an enrollment
// @Summary Calculate final grade
// @Description Aggregates graded submissions into a weighted final grade
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=services.FinalGrade}
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /enrollments/{id}/grade [post]
func (c *GradeController) CalculateFinalGrade(ctx *gin.Context) {
	enrollmentID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	grade, err := c.gradingService.CalculateFinalGrade(ctx.Request.Context(), enrollmentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(grade))
}

// GetFinalGrade returns the stored final grade for an enrollment
// @Summary Get final grade
// @Tags grades
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=services.FinalGrade}
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found or not yet graded"
// @Router /enrollments/{id}/grade [get]
func (c *GradeController) GetFinalGrade(ctx *gin.Context) {
	enrollmentID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	grade, err := c.gradingService.GetFinalGrade(ctx.Request.Context(), enrollmentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(grade))
}
