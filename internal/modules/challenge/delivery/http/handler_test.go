package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bonded.app/memories/internal/entity"
	challengeRepo "bonded.app/memories/internal/modules/challenge/repository"
	challengeService "bonded.app/memories/internal/modules/challenge/service"
	membershipRepo "bonded.app/memories/internal/modules/membership/repository"
	membershipService "bonded.app/memories/internal/modules/membership/service"
	"bonded.app/memories/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db     *gorm.DB
	router *gin.Engine
	group  entity.Group
	member entity.User
	caller *entity.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	members := membershipService.NewMembershipService(membershipRepo.NewMembershipRepository(db))
	svc := challengeService.NewChallengeService(challengeRepo.NewChallengeRepository(db), members, nil, nil)
	h := NewChallengeHandler(svc, members)

	e := &env{db: db}
	e.group = testutil.CreateGroup(t, db, "crew")
	e.member = testutil.Member(t, db, e.group, "parker")
	e.caller = &e.member

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", e.caller.ID.String())
		c.Next()
	})
	r.POST("/groups/:group_id/challenges", h.CreateChallenge)
	r.GET("/groups/:group_id/challenges", h.ListChallenges)
	r.GET("/challenges/:challenge_id", h.GetChallenge)
	r.POST("/challenges/:challenge_id/progress", h.AdvanceProgress)
	r.GET("/challenges/:challenge_id/progress", h.GetProgress)
	e.router = r
	return e
}

func (e *env) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) createChallenge(t *testing.T) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	w := e.do(http.MethodPost, "/groups/"+e.group.ID.String()+"/challenges", gin.H{
		"title":          "Post every day",
		"challenge_type": "weekly",
		"category":       "post",
		"target_count":   3,
		"start_date":     now.Add(-time.Hour),
		"end_date":       now.Add(72 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ID           uuid.UUID `json:"id"`
			PointsReward int       `json:"points_reward"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.Data.PointsReward)
	return resp.Data.ID
}

func TestCreateChallenge_Validation(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/groups/"+e.group.ID.String()+"/challenges", gin.H{
		"title":          "bad",
		"challenge_type": "hourly",
		"category":       "post",
		"target_count":   0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Challenge type must be one of")
}

func TestAdvanceProgress(t *testing.T) {
	e := newEnv(t)
	id := e.createChallenge(t)
	path := "/challenges/" + id.String() + "/progress"

	w := e.do(http.MethodPost, path, gin.H{"delta": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, path, gin.H{"delta": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, path, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, path, gin.H{"delta": 2})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			CurrentCount int     `json:"current_count"`
			Percentage   float64 `json:"progress_percentage"`
			Username     string  `json:"user_username"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.CurrentCount)
	assert.Equal(t, 66.7, resp.Data.Percentage)
	assert.Equal(t, "parker", resp.Data.Username)

	w = e.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current_count":2`)

	w = e.do(http.MethodPost, "/challenges/"+uuid.NewString()+"/progress", gin.H{"delta": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNonMemberIsForbidden(t *testing.T) {
	e := newEnv(t)
	id := e.createChallenge(t)

	outsider := testutil.CreateUser(t, e.db, "outsider")
	e.caller = &outsider

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/groups/"+e.group.ID.String()+"/challenges", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/challenges/"+id.String()+"/progress", gin.H{"delta": 1}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/challenges/"+id.String(), nil).Code)
}

func TestGetChallenge(t *testing.T) {
	e := newEnv(t)
	id := e.createChallenge(t)
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/challenges/"+id.String()+"/progress", gin.H{"delta": 3}).Code)

	w := e.do(http.MethodGet, "/challenges/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data struct {
			ID              uuid.UUID `json:"id"`
			Title           string    `json:"title"`
			IsCurrent       bool      `json:"is_current"`
			CreatorUsername string    `json:"creator_username"`
			ProgressCount   int64     `json:"progress_count"`
			CompletionRate  float64   `json:"completion_rate"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.Data.ID)
	assert.Equal(t, "Post every day", resp.Data.Title)
	assert.True(t, resp.Data.IsCurrent)
	assert.Equal(t, "parker", resp.Data.CreatorUsername)
	assert.EqualValues(t, 1, resp.Data.ProgressCount)
	assert.Equal(t, 100.0, resp.Data.CompletionRate)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/challenges/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/challenges/nope", nil).Code)
}
