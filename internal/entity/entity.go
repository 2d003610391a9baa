package entity

// All returns every model in migration order.
func All() []any {
	return []any{
		&Group{},
		&User{},
		&GroupMembership{},
		&Post{},
		&Comment{},
		&Event{},
		&Reaction{},
		&Streak{},
		&Challenge{},
		&ChallengeProgress{},
		&Leaderboard{},
		&LeaderboardEntry{},
		&Achievement{},
		&UserAchievement{},
		&Notification{},
	}
}
