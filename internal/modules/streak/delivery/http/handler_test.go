package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bonded.app/memories/internal/entity"
	"bonded.app/memories/internal/modules/gamification"
	membershipRepo "bonded.app/memories/internal/modules/membership/repository"
	membershipService "bonded.app/memories/internal/modules/membership/service"
	streakRepo "bonded.app/memories/internal/modules/streak/repository"
	streakService "bonded.app/memories/internal/modules/streak/service"
	"bonded.app/memories/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noChallenges struct{}

func (noChallenges) AdvanceForActivity(context.Context, uuid.UUID, uuid.UUID, string, bool) error {
	return nil
}

type noAchievements struct{}

func (noAchievements) Evaluate(context.Context, uuid.UUID, *uuid.UUID) ([]entity.Achievement, error) {
	return nil, nil
}

func TestStreakEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	members := membershipService.NewMembershipService(membershipRepo.NewMembershipRepository(db))
	streaks := streakService.NewStreakService(streakRepo.NewStreakRepository(db))
	h := NewStreakHandler(streaks, members, gamification.NewTracker(streaks, noChallenges{}, noAchievements{}, nil))

	group := testutil.CreateGroup(t, db, "crew")
	member := testutil.Member(t, db, group, "quinn")
	outsider := testutil.CreateUser(t, db, "outsider")
	caller := member

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", caller.ID.String())
		c.Next()
	})
	r.POST("/groups/:group_id/streaks/login", h.RecordLogin)
	r.GET("/groups/:group_id/streaks", h.ListStreaks)

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}
	base := "/groups/" + group.ID.String() + "/streaks"

	w := do(http.MethodPost, base+"/login")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		Data struct {
			StreakType    string `json:"streak_type"`
			CurrentStreak int    `json:"current_streak"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, entity.ActivityLogin, created.Data.StreakType)
	assert.Equal(t, 1, created.Data.CurrentStreak)

	// Same day, no change.
	require.Equal(t, http.StatusOK, do(http.MethodPost, base+"/login").Code)

	w = do(http.MethodGet, base+"?user="+member.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []struct {
			CurrentStreak int `json:"current_streak"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, 1, list.Data[0].CurrentStreak)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, base+"?user=nope").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/groups/nope/streaks").Code)

	caller = outsider
	assert.Equal(t, http.StatusForbidden, do(http.MethodPost, base+"/login").Code)
	assert.Equal(t, http.StatusForbidden, do(http.MethodGet, base).Code)
}
