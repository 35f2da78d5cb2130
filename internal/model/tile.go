package model

import (
	"encoding/json"
	"slices"
	"strings"
)

// RequirementKind distinguishes how a tile is completed
type RequirementKind int

const (
	// RequireAny completes the tile on any single matching item
	RequireAny RequirementKind = iota
	// RequireAll completes the tile once every required item is collected
	RequireAll
)

// Requirement is the completion rule of a tile.
// Items and Progress are only meaningful for RequireAll.
type Requirement struct {
	Kind     RequirementKind
	Items    []string
	Progress map[string][]string // player -> required items collected so far
}

// AnyOf returns the single-item requirement
func AnyOf() Requirement {
	return Requirement{Kind: RequireAny}
}

// AllOf returns a requirement needing every item in items.
// A nil progress map starts empty.
func AllOf(items []string, progress map[string][]string) Requirement {
	if progress == nil {
		progress = make(map[string][]string)
	}
	return Requirement{
		Kind:     RequireAll,
		Items:    slices.Clone(items),
		Progress: progress,
	}
}

// IsAllOf reports whether the tile needs every required item
func (r Requirement) IsAllOf() bool {
	return r.Kind == RequireAll
}

// Tile is one cell of the bingo board
type Tile struct {
	Items        []string
	Value        int
	DisplayTitle string
	CompletedBy  []string
	Requirement  Requirement
}

// NewTile returns an empty, unconfigured tile
func NewTile() Tile {
	return Tile{
		Items:       []string{},
		Value:       DefaultTileValue,
		CompletedBy: []string{},
		Requirement: AnyOf(),
	}
}

// Title is the text shown on the tile
func (t *Tile) Title() string {
	if t.DisplayTitle != "" {
		return t.DisplayTitle
	}
	if len(t.Items) > 0 {
		return t.Items[0]
	}
	return ""
}

// IsCompletedBy reports whether player has completed the tile
func (t *Tile) IsCompletedBy(player string) bool {
	if player == "" {
		return false
	}
	return slices.Contains(t.CompletedBy, player)
}

// MarkCompleted adds player to the completion set.
// Returns false if the player had already completed the tile.
func (t *Tile) MarkCompleted(player string) bool {
	if t.IsCompletedBy(player) {
		return false
	}
	t.CompletedBy = append(t.CompletedBy, player)
	return true
}

// RemoveCompletion removes player from the completion set and discards any
// partial progress they had towards a require-all tile.
func (t *Tile) RemoveCompletion(player string) bool {
	idx := slices.Index(t.CompletedBy, player)
	if t.Requirement.Progress != nil {
		delete(t.Requirement.Progress, player)
	}
	if idx < 0 {
		return false
	}
	t.CompletedBy = slices.Delete(t.CompletedBy, idx, idx+1)
	return true
}

// RecordProgress notes that player collected a required item and reports
// whether the player now holds every required item.
func (t *Tile) RecordProgress(player, requiredItem string) bool {
	if !t.Requirement.IsAllOf() {
		return false
	}
	if t.Requirement.Progress == nil {
		t.Requirement.Progress = make(map[string][]string)
	}
	collected := t.Requirement.Progress[player]
	if !containsFold(collected, requiredItem) {
		collected = append(collected, requiredItem)
		t.Requirement.Progress[player] = collected
	}
	for _, req := range t.Requirement.Items {
		if !containsFold(collected, req) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the tile
func (t Tile) Clone() Tile {
	clone := Tile{
		Items:        slices.Clone(t.Items),
		Value:        t.Value,
		DisplayTitle: t.DisplayTitle,
		CompletedBy:  slices.Clone(t.CompletedBy),
		Requirement:  Requirement{Kind: t.Requirement.Kind},
	}
	if t.Requirement.IsAllOf() {
		clone.Requirement.Items = slices.Clone(t.Requirement.Items)
		clone.Requirement.Progress = make(map[string][]string, len(t.Requirement.Progress))
		for p, items := range t.Requirement.Progress {
			clone.Requirement.Progress[p] = slices.Clone(items)
		}
	}
	return clone
}

func containsFold(items []string, item string) bool {
	target := strings.ToLower(strings.TrimSpace(item))
	for _, it := range items {
		if strings.ToLower(strings.TrimSpace(it)) == target {
			return true
		}
	}
	return false
}

// tileDocument is the wire shape of a tile. requiredItems and itemProgress
// are present only for require-all tiles.
type tileDocument struct {
	Items         []string            `json:"items"`
	Value         int                 `json:"value"`
	DisplayTitle  string              `json:"displayTitle"`
	CompletedBy   []string            `json:"completedBy"`
	RequiredItems []string            `json:"requiredItems,omitempty"`
	ItemProgress  map[string][]string `json:"itemProgress,omitempty"`
}

// MarshalJSON encodes the tile in its document shape
func (t Tile) MarshalJSON() ([]byte, error) {
	doc := tileDocument{
		Items:        t.Items,
		Value:        t.Value,
		DisplayTitle: t.DisplayTitle,
		CompletedBy:  t.CompletedBy,
	}
	if doc.Items == nil {
		doc.Items = []string{}
	}
	if doc.CompletedBy == nil {
		doc.CompletedBy = []string{}
	}
	if t.Requirement.IsAllOf() {
		doc.RequiredItems = t.Requirement.Items
		doc.ItemProgress = t.Requirement.Progress
		if doc.ItemProgress == nil {
			doc.ItemProgress = map[string][]string{}
		}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes a tile document. A requiredItems list of more than
// one item makes the tile require-all; anything else is single-item. A value
// that is not positive falls back to DefaultTileValue.
func (t *Tile) UnmarshalJSON(data []byte) error {
	doc := tileDocument{Value: DefaultTileValue}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	t.Items = doc.Items
	if t.Items == nil {
		t.Items = []string{}
	}
	t.Value = doc.Value
	if t.Value <= 0 {
		t.Value = DefaultTileValue
	}
	t.DisplayTitle = doc.DisplayTitle
	t.CompletedBy = dedupe(doc.CompletedBy)

	if len(doc.RequiredItems) > 1 {
		t.Requirement = AllOf(doc.RequiredItems, doc.ItemProgress)
	} else {
		t.Requirement = AnyOf()
	}
	return nil
}

func dedupe(players []string) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
