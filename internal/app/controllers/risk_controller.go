package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/changex/eduspace/internal/app/models/dto"
	"github.com/changex/eduspace/internal/app/services"
	"github.com/changex/eduspace/internal/middleware"
	"github.com/changex/eduspace/internal/pkg/riskmodel"
)

// RiskController handles dropout-risk endpoints
type RiskController struct {
	riskService *services.RiskService
	registry    *riskmodel.Registry
}

// NewRiskController creates a new RiskController
func NewRiskController(riskService *services.RiskService, registry *riskmodel.Registry) *RiskController {
	return &RiskController{riskService: riskService, registry: registry}
}

// AtRiskStudents scores every enrolled student in an offering
// @Summary List at-risk students
// @Description Returns dropout-risk scores for all students enrolled in the offering
// @Tags risk
// @Produce json
// @Security BearerAuth
// @Param id path int true "Offering ID"
// @Success 200 {object} dto.APIResponse{data=[]services.RiskScore}
// @Router /offerings/{id}/at-risk [get]
func (c *RiskController) AtRiskStudents(ctx *gin.Context) {
	offeringID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	scores, err := c.riskService.AtRiskStudents(ctx.Request.Context(), offeringID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(scores))
}

// ReloadModel re-reads the risk model from disk
// @Summary Reload risk model
// @Tags risk
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /risk/model/reload [post]
func (c *RiskController) ReloadModel(ctx *gin.Context) {
	if err := c.registry.Reload(); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Risk model reloaded"}))
}
