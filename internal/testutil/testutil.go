// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"bonded.app/memories/internal/entity"
	"bonded.app/memories/pkg/database"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory sqlite database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRedis starts a miniredis server and returns a client connected to it.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func CreateGroup(t testing.TB, db *gorm.DB, name string) entity.Group {
	t.Helper()
	g := entity.Group{Name: name}
	mustCreate(t, db, &g)
	return g
}

func CreateUser(t testing.TB, db *gorm.DB, username string) entity.User {
	t.Helper()
	u := entity.User{Username: username, Email: username + "@example.com"}
	mustCreate(t, db, &u)
	return u
}

// AddMember joins user to group. An empty groupName leaves the membership without a group-specific name.
func AddMember(t testing.TB, db *gorm.DB, group entity.Group, user entity.User, groupName string) entity.GroupMembership {
	t.Helper()
	m := entity.GroupMembership{GroupID: group.ID, UserID: user.ID, Role: entity.MemberRoleMember}
	if groupName != "" {
		m.Username = &groupName
	}
	mustCreate(t, db, &m)
	return m
}

// Member creates a user and adds them to the group under the same name.
func Member(t testing.TB, db *gorm.DB, group entity.Group, username string) entity.User {
	t.Helper()
	u := CreateUser(t, db, username)
	AddMember(t, db, group, u, username)
	return u
}

func CreatePost(t testing.TB, db *gorm.DB, group entity.Group, author entity.User, at time.Time) entity.Post {
	t.Helper()
	p := entity.Post{GroupID: group.ID, AuthorID: author.ID, Text: "post", MediaType: entity.MediaTypeText, CreatedAt: at}
	mustCreate(t, db, &p)
	return p
}

func CreateComment(t testing.TB, db *gorm.DB, post entity.Post, user entity.User, at time.Time) entity.Comment {
	t.Helper()
	c := entity.Comment{PostID: post.ID, UserID: user.ID, Text: "comment", CreatedAt: at}
	mustCreate(t, db, &c)
	return c
}

func CreateEvent(t testing.TB, db *gorm.DB, group entity.Group, creator entity.User, at time.Time) entity.Event {
	t.Helper()
	e := entity.Event{GroupID: group.ID, CreatorID: creator.ID, Title: "event", StartTime: at, CreatedAt: at}
	mustCreate(t, db, &e)
	return e
}

func CreateReaction(t testing.TB, db *gorm.DB, post entity.Post, user entity.User, at time.Time) entity.Reaction {
	t.Helper()
	r := entity.Reaction{PostID: post.ID, UserID: user.ID, Type: "like", CreatedAt: at}
	mustCreate(t, db, &r)
	return r
}

// CreateChallenge creates an active challenge running from start to end.
func CreateChallenge(t testing.TB, db *gorm.DB, group entity.Group, creator entity.User, category string, target int, start, end time.Time) entity.Challenge {
	t.Helper()
	c := entity.Challenge{
		GroupID:       group.ID,
		Title:         category + " challenge",
		ChallengeType: entity.ChallengeWeekly,
		Category:      category,
		TargetCount:   target,
		PointsReward:  10,
		StartDate:     start,
		EndDate:       end,
		IsActive:      true,
		CreatedByID:   creator.ID,
	}
	mustCreate(t, db, &c)
	return c
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Clock is a settable time source for services that take a now func.
type Clock struct {
	Now time.Time
}

func (c *Clock) Func() func() time.Time {
	return func() time.Time { return c.Now }
}

func (c *Clock) Advance(d time.Duration) {
	c.Now = c.Now.Add(d)
}

func mustCreate(t testing.TB, db *gorm.DB, v any) {
	t.Helper()
	mustExec(t, db.Create(v))
}

func mustExec(t testing.TB, tx *gorm.DB) {
	t.Helper()
	if tx.Error != nil {
		t.Fatalf("fixture: %v", tx.Error)
	}
}
