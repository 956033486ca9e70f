package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/changex/eduspace/internal/app/models/dto"
	"github.com/changex/eduspace/internal/middleware"
	"github.com/changex/eduspace/internal/pkg/realtime"
)

// RealtimeController upgrades connections onto the realtime hub
type RealtimeController struct {
	hub *realtime.Hub
}

// NewRealtimeController creates a new RealtimeController
func NewRealtimeController(hub *realtime.Hub) *RealtimeController {
	return &RealtimeController{hub: hub}
}

// Subscribe opens a websocket subscription to an offering's updates
// @Summary Subscribe to offering updates
// @Tags realtime
// @Security BearerAuth
// @Param id path int true "Offering ID"
// @Router /offerings/{id}/updates [get]
func (c *RealtimeController) Subscribe(ctx *gin.Context) {
	offeringID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.hub.Serve(ctx.Writer, ctx.Request, userID, offeringID); err != nil {
		middleware.HandleAPIError(ctx, err)
	}
}
