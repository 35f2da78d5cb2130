package response

import (
	"time"

	"github.com/mcoot/osrsbingo/internal/model"
)

// Health is the response for the health check
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

// Token is the response for admin login
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Leaderboard lists player standings, best first
type Leaderboard struct {
	Leader  string              `json:"leader,omitempty"` // empty on a tie or with no players
	Players []model.PlayerScore `json:"players"`
}

// DropResult is the response for recording a single drop
type DropResult struct {
	Drop           *model.DropRecord     `json:"drop"`
	Duplicate      bool                  `json:"duplicate"`
	TilesCompleted []model.CompletedTile `json:"tiles_completed"`
}

// WebhookResult summarizes a Dink webhook delivery
type WebhookResult struct {
	Recorded       int                   `json:"recorded"`
	Duplicates     int                   `json:"duplicates"`
	TilesCompleted []model.CompletedTile `json:"tiles_completed"`
}

// History is the response for the drop history
type History struct {
	Drops []*model.DropRecord `json:"drops"`
	Count int                 `json:"count"`
}

// Deleted reports how many records were removed
type Deleted struct {
	Deleted int `json:"deleted"`
}

// RankHistory is the response for the rank snapshot history
type RankHistory struct {
	Snapshots []*model.RankSnapshot `json:"snapshots"`
}

// WebhookInfo tells an admin where plugins should post
type WebhookInfo struct {
	DinkURL   string `json:"dink_url"`
	DropsURL  string `json:"drops_url"`
	KeyNeeded bool   `json:"key_needed"`
}
