package request

import "time"

// LoginRequest is the request body for admin login
type LoginRequest struct {
	Password string `json:"password"`
}

// ResizeRequest is the request body for resizing the board
type ResizeRequest struct {
	Size int `json:"size"`
}

// EditTileRequest is the request body for editing a tile. Items may be
// given as a list or as newline-separated text.
type EditTileRequest struct {
	Items      []string `json:"items,omitempty"`
	ItemsText  string   `json:"items_text,omitempty"`
	Value      int      `json:"value"`
	Title      string   `json:"title,omitempty"`
	RequireAll bool     `json:"require_all,omitempty"`
}

// LineBonusesRequest is the request body for setting line bonuses
type LineBonusesRequest struct {
	Rows  []int `json:"rows"`
	Cols  []int `json:"cols"`
	Diags []int `json:"diags"`
}

// CompletionRequest is the request body for manually completing a tile
type CompletionRequest struct {
	Player string `json:"player"`
}

// DropRequest is the request body for recording a drop
type DropRequest struct {
	Player    string     `json:"player"`
	Item      string     `json:"item"`
	Value     float64    `json:"value"`
	Quantity  int        `json:"quantity,omitempty"`
	DropType  string     `json:"drop_type,omitempty"`
	NPC       string     `json:"npc,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// DeleteDropsRequest identifies the drops to remove from the history
type DeleteDropsRequest struct {
	Player    string    `json:"player"`
	Item      string    `json:"item"`
	Timestamp time.Time `json:"timestamp"`
}

// DeathRequest is the request body for recording a death
type DeathRequest struct {
	Player    string     `json:"player"`
	NPC       string     `json:"npc,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// RankSnapshotRequest is the request body for recording a rank snapshot
type RankSnapshotRequest struct {
	Rank         int        `json:"rank"`
	PrestigeRank *int       `json:"prestige_rank,omitempty"`
	TotalXP      int64      `json:"total_xp"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
}
