package http

import (
	"net/http"

	membershipService "bonded.app/memories/internal/modules/membership/service"
	statService "bonded.app/memories/internal/modules/stat/service"
	"bonded.app/memories/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StatHandler struct {
	statService statService.StatService
	membership  membershipService.MembershipService
}

func NewStatHandler(statService statService.StatService, membership membershipService.MembershipService) *StatHandler {
	return &StatHandler{
		statService: statService,
		membership:  membership,
	}
}

// GetUserStats handles GET /groups/:group_id/stats?user=<id>, defaulting to the caller.
func (h *StatHandler) GetUserStats(c *gin.Context) {
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

	userID := callerID
	if raw := c.Query("user"); raw != "" {
		if userID, err = uuid.Parse(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user"})
			return
		}
	}

	stats, err := h.statService.GetUserStats(c.Request.Context(), groupID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}
