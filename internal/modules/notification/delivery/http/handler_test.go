package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bonded.app/memories/internal/entity"
	notifRepo "bonded.app/memories/internal/modules/notification/repository"
	notifService "bonded.app/memories/internal/modules/notification/service"
	"bonded.app/memories/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, notifService.NotificationService, entity.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	svc := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), rdb, nil)
	h := NewNotificationHandler(svc, rdb, nil, nil)
	user := testutil.CreateUser(t, db, "devon")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", user.ID.String())
		c.Next()
	})
	r.GET("/notifications", h.GetNotifications)
	r.GET("/notifications/unread-count", h.UnreadCount)
	r.PUT("/notifications/:id/read", h.MarkAsRead)
	r.GET("/notifications/ws", h.HandleWebSocket)
	return r, svc, user
}

func TestListAndMarkRead(t *testing.T) {
	r, svc, user := setup(t)
	n := &entity.Notification{UserID: user.ID, EntityID: uuid.New(), EntityType: "challenge", Type: entity.NotificationChallengeCompleted}
	require.NoError(t, svc.CreateNotification(context.Background(), n))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []entity.Notification `json:"data"`
		Meta struct {
			Limit int `json:"limit"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, 5, body.Meta.Limit)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/notifications/"+n.ID.String()+"/read", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/notifications/"+uuid.NewString()+"/read", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/notifications/nope/read", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebSocketStreamsPublishedNotifications(t *testing.T) {
	r, svc, user := setup(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	n := &entity.Notification{UserID: user.ID, EntityID: uuid.New(), EntityType: "achievement", Type: entity.NotificationAchievementUnlocked, Message: "First Post"}

	// the subscription is set up asynchronously after the upgrade, keep publishing until one arrives
	deadline := time.Now().Add(3 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	received := make(chan entity.Notification, 1)
	go func() {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var got entity.Notification
		if json.Unmarshal(data, &got) == nil {
			received <- got
		}
	}()

	for time.Now().Before(deadline) {
		n.ID = uuid.Nil
		require.NoError(t, svc.CreateNotification(context.Background(), n))
		select {
		case got := <-received:
			assert.Equal(t, "First Post", got.Message)
			assert.Equal(t, user.ID, got.UserID)
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
	t.Fatal("no notification received over websocket")
}
