package model

import "time"

// RankSnapshot records the group's hiscore standing at a point in time
type RankSnapshot struct {
	ID           string    `json:"id"`
	Rank         int       `json:"rank"`
	PrestigeRank *int      `json:"prestigeRank,omitempty"`
	TotalXP      int64     `json:"totalXp"`
	RankChange   int       `json:"rankChange"`
	XPChange     int64     `json:"xpChange"`
	Timestamp    time.Time `json:"timestamp"`
}
