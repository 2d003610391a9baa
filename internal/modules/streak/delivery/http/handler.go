package http

import (
	"context"
	"net/http"
	"time"

	"bonded.app/memories/internal/entity"
	membershipService "bonded.app/memories/internal/modules/membership/service"
	streakDto "bonded.app/memories/internal/modules/streak/dto"
	streakService "bonded.app/memories/internal/modules/streak/service"
	"bonded.app/memories/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoginRecorder advances login streaks and the achievements that depend on them.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, userID, groupID uuid.UUID, at time.Time) (*entity.Streak, error)
}

type StreakHandler struct {
	service    streakService.StreakService
	membership membershipService.MembershipService
	logins     LoginRecorder
}

func NewStreakHandler(service streakService.StreakService, membership membershipService.MembershipService, logins LoginRecorder) *StreakHandler {
	return &StreakHandler{service: service, membership: membership, logins: logins}
}

// RecordLogin handles POST /groups/:group_id/streaks/login
func (h *StreakHandler) RecordLogin(c *gin.Context) {
	groupID, ok := response.ParamUUID(c, "group_id")
	if !ok {
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if _, err := h.membership.RequireMember(c.Request.Context(), groupID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	streak, err := h.logins.RecordLogin(c.Request.Context(), userID, groupID, time.Now().UTC())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": streakDto.NewStreakResponse(*streak)})
}

// ListStreaks handles GET /groups/:group_id/streaks?user=<id>
func (h *StreakHandler) ListStreaks(c *gin.Context) {
	groupID, ok := response.ParamUUID(c, "group_id")
	if !ok {
		return
	}

	callerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if _, err := h.membership.RequireMember(c.Request.Context(), groupID, callerID); err != nil {
		response.ResponseError(c, err)
		return
	}

	var userFilter *uuid.UUID
	if raw := c.Query("user"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user"})
			return
		}
		userFilter = &id
	}

	streaks, err := h.service.ListByGroup(c.Request.Context(), groupID, userFilter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	data := make([]streakDto.StreakResponse, 0, len(streaks))
	for _, s := range streaks {
		data = append(data, streakDto.NewStreakResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}
