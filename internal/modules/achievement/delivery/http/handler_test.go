package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	achievementRepo "bonded.app/memories/internal/modules/achievement/repository"
	achievementService "bonded.app/memories/internal/modules/achievement/service"
	membershipRepo "bonded.app/memories/internal/modules/membership/repository"
	membershipService "bonded.app/memories/internal/modules/membership/service"
	"bonded.app/memories/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listResponse struct {
	Data []struct {
		Achievement struct {
			Name string `json:"name"`
		} `json:"achievement"`
		GroupID *string `json:"group_id"`
		IsGroup bool    `json:"is_group"`
	} `json:"data"`
}

func TestAchievementEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	ctx := context.Background()
	members := membershipService.NewMembershipService(membershipRepo.NewMembershipRepository(db))
	svc := achievementService.NewAchievementService(achievementRepo.NewAchievementRepository(db), achievementRepo.NewActivityCounter(db), nil, nil)
	h := NewAchievementHandler(svc, members)

	crew := testutil.CreateGroup(t, db, "crew")
	other := testutil.CreateGroup(t, db, "other")
	user := testutil.Member(t, db, crew, "morgan")
	testutil.CreatePost(t, db, crew, user, time.Now().UTC())

	seeded, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, user.ID, &crew.ID)
	require.NoError(t, err)
	_, err = svc.Evaluate(ctx, user.ID, nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", user.ID.String())
		c.Next()
	})
	r.GET("/achievements", h.ListMine)
	r.GET("/achievements/catalog", h.Catalog)

	do := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}
	decode := func(w *httptest.ResponseRecorder) listResponse {
		var resp listResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	t.Run("all grants", func(t *testing.T) {
		w := do("/achievements")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode(w)
		require.Len(t, resp.Data, 2)
		for _, g := range resp.Data {
			assert.Equal(t, "First Memory", g.Achievement.Name)
		}
	})

	t.Run("group filter", func(t *testing.T) {
		w := do("/achievements?group=" + crew.ID.String())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode(w)
		require.Len(t, resp.Data, 1)
		assert.True(t, resp.Data[0].IsGroup)
		require.NotNil(t, resp.Data[0].GroupID)
		assert.Equal(t, crew.ID.String(), *resp.Data[0].GroupID)
	})

	t.Run("group the caller is not in", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do("/achievements?group="+other.ID.String()).Code)
	})

	t.Run("malformed group", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do("/achievements?group=crew").Code)
	})

	t.Run("catalog", func(t *testing.T) {
		w := do("/achievements/catalog")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data []json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, int(seeded))
	})
}
