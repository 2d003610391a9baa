package service

import (
	"context"
	"testing"
	"time"

	"bonded.app/memories/internal/entity"
	achievementRepo "bonded.app/memories/internal/modules/achievement/repository"
	leaderboardRepo "bonded.app/memories/internal/modules/leaderboard/repository"
	leaderboardService "bonded.app/memories/internal/modules/leaderboard/service"
	membershipRepo "bonded.app/memories/internal/modules/membership/repository"
	membershipService "bonded.app/memories/internal/modules/membership/service"
	statRepo "bonded.app/memories/internal/modules/stat/repository"
	"bonded.app/memories/internal/testutil"
	"bonded.app/memories/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserStats(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	members := membershipService.NewMembershipService(membershipRepo.NewMembershipRepository(db))
	lbRepo := leaderboardRepo.NewLeaderboardRepository(db)
	svc := NewStatService(statRepo.NewStatRepository(db), achievementRepo.NewActivityCounter(db), lbRepo, members)

	group := testutil.CreateGroup(t, db, "crew")
	user := testutil.CreateUser(t, db, "sam_account")
	testutil.AddMember(t, db, group, user, "Sammy")
	at := time.Now().UTC().Add(-time.Hour)

	post := testutil.CreatePost(t, db, group, user, at)
	testutil.CreatePost(t, db, group, user, at)
	testutil.CreateComment(t, db, post, user, at)
	testutil.CreateReaction(t, db, post, user, at)
	testutil.CreateEvent(t, db, group, user, at)
	require.NoError(t, db.Create(&entity.Streak{
		UserID: user.ID, GroupID: group.ID, StreakType: entity.ActivityPost,
		CurrentStreak: 3, LongestStreak: 5, LastActivity: at, IsActive: true,
	}).Error)

	stats, err := svc.GetUserStats(ctx, group.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sammy", stats.Username)
	assert.Equal(t, 2, stats.TotalPosts)
	assert.Equal(t, 1, stats.TotalEvents)
	assert.Equal(t, 1, stats.TotalComments)
	assert.Equal(t, 1, stats.TotalReactions)
	assert.Equal(t, map[string]int{"post": 3}, stats.CurrentStreaks)
	assert.Equal(t, map[string]int{"post": 5}, stats.LongestStreaks)
	// 2*5 + 10 + 2 + 1 + 3*15
	assert.Equal(t, 68, stats.TotalPoints)
	assert.Nil(t, stats.Rank)

	lb := leaderboardService.NewLeaderboardService(lbRepo, members, nil, 0, nil)
	_, err = lb.Calculate(ctx, group.ID, entity.PeriodAllTime)
	require.NoError(t, err)

	stats, err = svc.GetUserStats(ctx, group.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stats.Rank)
	assert.Equal(t, 1, *stats.Rank)
}

func TestGetUserStats_NotMember(t *testing.T) {
	db := testutil.NewDB(t)
	members := membershipService.NewMembershipService(membershipRepo.NewMembershipRepository(db))
	svc := NewStatService(statRepo.NewStatRepository(db), achievementRepo.NewActivityCounter(db), leaderboardRepo.NewLeaderboardRepository(db), members)
	group := testutil.CreateGroup(t, db, "crew")

	_, err := svc.GetUserStats(context.Background(), group.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
