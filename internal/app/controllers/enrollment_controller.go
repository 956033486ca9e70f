package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appauth "github.com/changex/eduspace/internal/app/auth"
	"github.com/changex/eduspace/internal/app/models/dto"
	"github.com/changex/eduspace/internal/app/services"
	"github.com/changex/eduspace/internal/middleware"
	"github.com/changex/eduspace/internal/pkg/apperrors"
)

// EnrollmentController handles enrollment lifecycle endpoints
type EnrollmentController struct {
	enrollmentService *services.EnrollmentService
	authz             *appauth.AuthorizationService
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService *services.EnrollmentService, authz *appauth.AuthorizationService) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
		authz:             authz,
	}
}

// RequestEnrollment admits a student into an offering or its waitlist
// @Summary Request enrollment
// @Description Runs admission control for the student against the offering
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.EnrollmentRequest true "Enrollment request"
// @Success 201 {object} dto.APIResponse{data=services.AdmissionResult} "Admitted"
// @Success 202 {object} dto.APIResponse{data=services.AdmissionResult} "Waitlisted"
// @Failure 403 {object} dto.ErrorResponse "Acting for another student without the management capability"
// @Failure 404 {object} dto.ErrorResponse "Offering not found"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled or waitlisted"
// @Failure 422 {object} dto.ErrorResponse "Prerequisites not satisfied"
// @Router /enrollments [post]
func (c *EnrollmentController) RequestEnrollment(ctx *gin.Context) {
	var req dto.EnrollmentRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	actorID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	// Students enroll themselves; enrolling someone else needs the
	// management capability at the offering's institution.
	allowed, err := c.authz.CanActOnOffering(ctx.Request.Context(), actorID, req.UserID, req.OfferingID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if !allowed {
		middleware.HandleAPIError(ctx, apperrors.ErrPermissionDenied)
		return
	}

	result, err := c.enrollmentService.RequestEnrollment(ctx.Request.Context(), req.UserID, req.OfferingID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if result.Decision == services.DecisionRejected {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodePrerequisiteNotMet, "Prerequisites not satisfied").
			WithDetails(result.MissingPrerequisites)
		ctx.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(errorDetail))
		return
	}

	status := http.StatusCreated
	if result.Decision == services.DecisionWaitlisted {
		status = http.StatusAccepted
	}

	ctx.JSON(status, dto.NewAPIResponse(result))
}

// PromoteFromWaitlist promotes the next eligible waitlist entry
// @Summary Promote from waitlist
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offering ID"
// @Success 200 {object} dto.APIResponse{data=services.PromotionResult}
// @Failure 404 {object} dto.ErrorResponse "Offering not found"
// @Router /offerings/{id}/promote [post]
func (c *EnrollmentController) PromoteFromWaitlist(ctx *gin.Context) {
	offeringID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	result, err := c.enrollmentService.PromoteFromWaitlist(ctx.Request.Context(), offeringID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(result))
}

// DropEnrollment marks an active enrollment as dropped
// @Summary Drop enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Failure 409 {object} dto.ErrorResponse "Enrollment is not active"
// @Router /enrollments/{id}/drop [post]
func (c *EnrollmentController) DropEnrollment(ctx *gin.Context) {
	enrollmentID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.enrollmentService.DropEnrollment(ctx.Request.Context(), enrollmentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Enrollment dropped"}))
}

// CompleteEnrollment marks an active enrollment as completed
// @Summary Complete enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Failure 409 {object} dto.ErrorResponse "Enrollment is not active"
// @Router /enrollments/{id}/complete [post]
func (c *EnrollmentController) CompleteEnrollment(ctx *gin.Context) {
	enrollmentID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.enrollmentService.CompleteEnrollment(ctx.Request.Context(), enrollmentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Enrollment completed"}))
}

// pathID parses an int64 path parameter, writing a 400 response when invalid.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id < 1 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name+" parameter").
			WithField(name)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}
