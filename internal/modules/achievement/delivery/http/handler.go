package http

import (
	"net/http"

	achievementService "bonded.app/memories/internal/modules/achievement/service"
	membershipService "bonded.app/memories/internal/modules/membership/service"
	"bonded.app/memories/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AchievementHandler struct {
	service    achievementService.AchievementService
	membership membershipService.MembershipService
}

func NewAchievementHandler(service achievementService.AchievementService, membership membershipService.MembershipService) *AchievementHandler {
	return &AchievementHandler{service: service, membership: membership}
}

// ListMine handles GET /achievements?group=<id>
func (h *AchievementHandler) ListMine(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var groupID *uuid.UUID
	if raw := c.Query("group"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group"})
			return
		}
		if _, err := h.membership.RequireMember(c.Request.Context(), id, userID); err != nil {
			response.ResponseError(c, err)
			return
		}
		groupID = &id
	}

	grants, err := h.service.ListGrants(c.Request.Context(), userID, groupID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": grants})
}

func (h *AchievementHandler) Catalog(c *gin.Context) {
	achievements, err := h.service.Catalog(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": achievements})
}
