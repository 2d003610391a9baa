package http

import (
	"net/http"

	activityDto "bonded.app/memories/internal/modules/activity/dto"
	activityService "bonded.app/memories/internal/modules/activity/service"
	"bonded.app/memories/pkg/response"
	"bonded.app/memories/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	service activityService.ActivityService
}

func NewActivityHandler(service activityService.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// CreatePost accepts JSON or multipart form data with an optional "media" file.
func (h *ActivityHandler) CreatePost(c *gin.Context) {
	groupID, ok := response.ParamUUID(c, "group_id")
	if !ok {
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req activityDto.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	var media *activityDto.MediaFile
	if fileHeader, err := c.FormFile("media"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read media"})
			return
		}
		defer file.Close()

		media = &activityDto.MediaFile{
			Reader:   file,
			FileName: fileHeader.Filename,
		}
	}

	post, err := h.service.CreatePost(c.Request.Context(), userID, groupID, req, media)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": post})
}

func (h *ActivityHandler) CreateComment(c *gin.Context) {
	postID, ok := response.ParamUUID(c, "post_id")
	if !ok {
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req activityDto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	comment, err := h.service.CreateComment(c.Request.Context(), userID, postID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": comment})
}

func (h *ActivityHandler) CreateEvent(c *gin.Context) {
	groupID, ok := response.ParamUUID(c, "group_id")
	if !ok {
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req activityDto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	event, err := h.service.CreateEvent(c.Request.Context(), userID, groupID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": event})
}

// React handles POST /posts/:post_id/reactions. A first reaction answers 201, a changed one 200.
func (h *ActivityHandler) React(c *gin.Context) {
	postID, ok := response.ParamUUID(c, "post_id")
	if !ok {
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req activityDto.ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	reaction, err := h.service.React(c.Request.Context(), userID, postID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status := http.StatusOK
	if reaction.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": reaction})
}

func (h *ActivityHandler) ReactionCounts(c *gin.Context) {
	postID, ok := response.ParamUUID(c, "post_id")
	if !ok {
		return
	}

	counts, err := h.service.ReactionCounts(c.Request.Context(), postID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": counts})
}
