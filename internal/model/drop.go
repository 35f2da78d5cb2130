package model

import "time"

// Drop sources
const (
	SourceAPI    = "api"
	SourceDink   = "dink"
	SourceManual = "manual"
	SourceImport = "import"
)

// DefaultDropType is used when a drop arrives without one
const DefaultDropType = "loot"

// DropRecord is one item drop in the history
type DropRecord struct {
	ID            string          `json:"id"`
	Player        string          `json:"player"`
	Item          string          `json:"item"`
	Value         float64         `json:"value"`
	Quantity      int             `json:"quantity,omitempty"`
	DropType      string          `json:"drop_type"`
	Source        string          `json:"source,omitempty"`
	NPC           string          `json:"npc,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	TileCompleted bool            `json:"tileCompleted"`
	TilesInfo     []CompletedTile `json:"tilesInfo,omitempty"`
}

// DropQuery filters the drop history
type DropQuery struct {
	Player string
	Item   string
	Start  time.Time // zero means unbounded
	End    time.Time // zero means unbounded
	Limit  int       // zero means no limit
}

// Matches reports whether a record passes the player, item and time filters
func (q DropQuery) Matches(d *DropRecord) bool {
	if q.Player != "" && !equalFold(q.Player, d.Player) {
		return false
	}
	if q.Item != "" && !equalFold(q.Item, d.Item) {
		return false
	}
	if !q.Start.IsZero() && d.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && d.Timestamp.After(q.End) {
		return false
	}
	return true
}
