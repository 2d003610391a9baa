package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	achievementRepo "bonded.app/memories/internal/modules/achievement/repository"
	leaderboardRepo "bonded.app/memories/internal/modules/leaderboard/repository"
	membershipRepo "bonded.app/memories/internal/modules/membership/repository"
	membershipService "bonded.app/memories/internal/modules/membership/service"
	statRepo "bonded.app/memories/internal/modules/stat/repository"
	statService "bonded.app/memories/internal/modules/stat/service"
	"bonded.app/memories/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	members := membershipService.NewMembershipService(membershipRepo.NewMembershipRepository(db))
	svc := statService.NewStatService(statRepo.NewStatRepository(db), achievementRepo.NewActivityCounter(db), leaderboardRepo.NewLeaderboardRepository(db), members)
	h := NewStatHandler(svc, members)

	group := testutil.CreateGroup(t, db, "crew")
	caller := testutil.Member(t, db, group, "parker")
	friend := testutil.Member(t, db, group, "rowan")
	outsider := testutil.CreateUser(t, db, "outsider")
	testutil.CreatePost(t, db, group, friend, time.Now().UTC().Add(-time.Hour))

	as := caller
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", as.ID.String())
		c.Next()
	})
	r.GET("/groups/:group_id/stats", h.GetUserStats)

	type statsResponse struct {
		Data struct {
			UserID     uuid.UUID `json:"user_id"`
			Username   string    `json:"user_username"`
			TotalPosts int       `json:"total_posts"`
			TotalPts   int       `json:"total_points"`
			Rank       *int      `json:"rank"`
		} `json:"data"`
	}
	do := func(query string) (*httptest.ResponseRecorder, statsResponse) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/groups/"+group.ID.String()+"/stats"+query, nil))
		var resp statsResponse
		if w.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		}
		return w, resp
	}

	t.Run("defaults to the caller", func(t *testing.T) {
		w, resp := do("")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, caller.ID, resp.Data.UserID)
		assert.Equal(t, "parker", resp.Data.Username)
		assert.Zero(t, resp.Data.TotalPosts)
		assert.Nil(t, resp.Data.Rank)
	})

	t.Run("another member", func(t *testing.T) {
		w, resp := do("?user=" + friend.ID.String())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "rowan", resp.Data.Username)
		assert.Equal(t, 1, resp.Data.TotalPosts)
		assert.Equal(t, 5, resp.Data.TotalPts)
	})

	t.Run("user outside the group", func(t *testing.T) {
		w, _ := do("?user=" + outsider.ID.String())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed user", func(t *testing.T) {
		w, _ := do("?user=rowan")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("caller outside the group", func(t *testing.T) {
		as = outsider
		defer func() { as = caller }()
		w, _ := do("")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
