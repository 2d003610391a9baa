package dto

import (
	"io"
	"time"

	"bonded.app/memories/internal/entity"
	"github.com/google/uuid"
)

type CreatePostRequest struct {
	Text string `form:"text" json:"text" binding:"max=5000"`
}

// MediaFile is an uploaded post attachment.
type MediaFile struct {
	Reader   io.Reader
	FileName string
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

type CreateEventRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=5000"`
	Type        string     `json:"type" binding:"omitempty,max=20"`
	StartTime   time.Time  `json:"start_time" binding:"required"`
	EndTime     *time.Time `json:"end_time" binding:"omitempty,gtfield=StartTime"`
}

type ReactRequest struct {
	Type  string  `json:"type" binding:"required,oneof=like love laugh wow sad angry custom"`
	Emoji *string `json:"emoji" binding:"omitempty,max=10"`
}

type PostResponse struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"group_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Text      string    `json:"text"`
	MediaURL  *string   `json:"media_url,omitempty"`
	MediaType string    `json:"media_type"`
	CreatedAt time.Time `json:"created_at"`
}

type ReactionResponse struct {
	PostID  uuid.UUID        `json:"post_id"`
	Type    string           `json:"type"`
	Emoji   *string          `json:"emoji,omitempty"`
	Created bool             `json:"created"`
	Counts  map[string]int64 `json:"counts"`
}

func NewPostResponse(p *entity.Post) *PostResponse {
	return &PostResponse{
		ID:        p.ID,
		GroupID:   p.GroupID,
		AuthorID:  p.AuthorID,
		Text:      p.Text,
		MediaURL:  p.MediaURL,
		MediaType: p.MediaType,
		CreatedAt: p.CreatedAt,
	}
}
