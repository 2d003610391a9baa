package service

import (
	"encoding/json"
	"fmt"
)

// Criteria is the decoded form of Achievement.Criteria. Keys the engine does
// not know are dropped when decoding and can never grant.
type Criteria struct {
	Posts     *int64           `json:"posts"`
	Comments  *int64           `json:"comments"`
	Events    *int64           `json:"events"`
	Reactions *int64           `json:"reactions"`
	Streak    *StreakCriterion `json:"streak"`
}

type StreakCriterion struct {
	Type   string `json:"type"`
	Length *int   `json:"length"`
}

// MinLength returns the required streak length, 1 when unset.
func (s StreakCriterion) MinLength() int {
	if s.Length == nil {
		return 1
	}
	return *s.Length
}

func ParseCriteria(raw []byte) (Criteria, error) {
	var c Criteria
	if len(raw) == 0 || string(raw) == "null" {
		return c, nil
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return Criteria{}, fmt.Errorf("decode criteria: %w", err)
	}
	return c, nil
}

// Empty reports whether no known key is present.
func (c Criteria) Empty() bool {
	return c.Posts == nil && c.Comments == nil && c.Events == nil && c.Reactions == nil && c.Streak == nil
}
