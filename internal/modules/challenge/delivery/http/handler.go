package http

import (
	"net/http"

	challengeDto "bonded.app/memories/internal/modules/challenge/dto"
	challengeService "bonded.app/memories/internal/modules/challenge/service"
	membershipService "bonded.app/memories/internal/modules/membership/service"
	"bonded.app/memories/pkg/response"
	"bonded.app/memories/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChallengeHandler struct {
	service    challengeService.ChallengeService
	membership membershipService.MembershipService
}

func NewChallengeHandler(service challengeService.ChallengeService, membership membershipService.MembershipService) *ChallengeHandler {
	return &ChallengeHandler{service: service, membership: membership}
}

// memberOf resolves the caller and checks they belong to the group.
func (h *ChallengeHandler) memberOf(c *gin.Context, groupID uuid.UUID) (uuid.UUID, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, false
	}
	if _, err := h.membership.RequireMember(c.Request.Context(), groupID, userID); err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, false
	}
	return userID, true
}

func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	groupID, ok := response.ParamUUID(c, "group_id")
	if !ok {
		return
	}
	userID, ok := h.memberOf(c, groupID)
	if !ok {
		return
	}

	var req challengeDto.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	challenge, err := h.service.Create(c.Request.Context(), userID, groupID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": challenge})
}

// ListChallenges handles GET /groups/:group_id/challenges?current=true
func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	groupID, ok := response.ParamUUID(c, "group_id")
	if !ok {
		return
	}
	if _, ok := h.memberOf(c, groupID); !ok {
		return
	}

	challenges, err := h.service.List(c.Request.Context(), groupID, c.Query("current") == "true")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": challenges})
}

// GetChallenge handles GET /challenges/:challenge_id
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	challengeID, ok := response.ParamUUID(c, "challenge_id")
	if !ok {
		return
	}

	challenge, err := h.service.Detail(c.Request.Context(), challengeID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if _, ok := h.memberOf(c, challenge.GroupID); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": challenge})
}

func (h *ChallengeHandler) ListGroupProgress(c *gin.Context) {
	groupID, ok := response.ParamUUID(c, "group_id")
	if !ok {
		return
	}
	if _, ok := h.memberOf(c, groupID); !ok {
		return
	}

	progress, err := h.service.ListGroupProgress(c.Request.Context(), groupID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": progress})
}

func (h *ChallengeHandler) AdvanceProgress(c *gin.Context) {
	challengeID, ok := response.ParamUUID(c, "challenge_id")
	if !ok {
		return
	}

	var req challengeDto.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	challenge, err := h.service.Get(c.Request.Context(), challengeID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	userID, ok := h.memberOf(c, challenge.GroupID)
	if !ok {
		return
	}

	progress, err := h.service.Advance(c.Request.Context(), userID, challengeID, *req.Delta)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": progress})
}

// GetProgress returns the caller's progress, or everyone's with ?all=true.
func (h *ChallengeHandler) GetProgress(c *gin.Context) {
	challengeID, ok := response.ParamUUID(c, "challenge_id")
	if !ok {
		return
	}

	challenge, err := h.service.Get(c.Request.Context(), challengeID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	userID, ok := h.memberOf(c, challenge.GroupID)
	if !ok {
		return
	}

	if c.Query("all") == "true" {
		all, err := h.service.ListProgress(c.Request.Context(), challengeID)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": all})
		return
	}

	progress, err := h.service.Progress(c.Request.Context(), challengeID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": progress})
}
