package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"bonded.app/memories/internal/entity"
	leaderboardDto "bonded.app/memories/internal/modules/leaderboard/dto"
	leaderboardService "bonded.app/memories/internal/modules/leaderboard/service"
	membershipService "bonded.app/memories/internal/modules/membership/service"
	"bonded.app/memories/pkg/ratelimiter"
	"bonded.app/memories/pkg/response"
	"bonded.app/memories/pkg/validator"
	"github.com/gin-gonic/gin"
)

const calculateAction = "leaderboard_calculate"

type LeaderboardHandler struct {
	service        leaderboardService.LeaderboardService
	membership     membershipService.MembershipService
	limiter        *ratelimiter.Limiter
	calculateLimit time.Duration
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService, membership membershipService.MembershipService, limiter *ratelimiter.Limiter, calculateLimit time.Duration) *LeaderboardHandler {
	return &LeaderboardHandler{
		service:        service,
		membership:     membership,
		limiter:        limiter,
		calculateLimit: calculateLimit,
	}
}

// Calculate handles POST /groups/:group_id/leaderboard/calculate
func (h *LeaderboardHandler) Calculate(c *gin.Context) {
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

	var req leaderboardDto.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	if req.Period == "" {
		req.Period = c.DefaultQuery("period", entity.PeriodAllTime)
	}

	ctx := c.Request.Context()
	if err := h.limiter.Enforce(ctx, userID, calculateAction, h.calculateLimit); err != nil {
		response.ResponseError(c, err)
		return
	}

	leaderboard, err := h.service.Calculate(ctx, groupID, req.Period)
	if err != nil {
		_ = h.limiter.Clear(ctx, userID, calculateAction) // rollback
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}

// GetLeaderboard handles GET /groups/:group_id/leaderboard?period=weekly&limit=10
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
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

	period := c.DefaultQuery("period", entity.PeriodAllTime)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := h.service.GetEntries(c.Request.Context(), groupID, period, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries, "period": period})
}
