package model

import (
	"encoding/json"
	"fmt"
)

// Board defaults applied on creation and when decoding documents that omit them
const (
	DefaultBoardSize = 5
	DefaultTileValue = 10
	DefaultLineBonus = 50
	DefaultDiagBonus = 100
	DiagonalCount    = 2
)

const emptyCompletions = "{}"

// Board is the bingo board: an N×N grid of tiles stored row-major plus the
// bonus configuration for every line.
type Board struct {
	Size        int
	Tiles       []Tile
	LineBonuses LineBonuses

	// completions is an opaque legacy field carried so documents round-trip.
	completions json.RawMessage
}

// NewBoard creates a board of fresh tiles with default bonuses.
// A size below 1 is a programming error.
func NewBoard(size int) *Board {
	if size < 1 {
		panic(fmt.Sprintf("model: invalid board size %d", size))
	}
	tiles := make([]Tile, size*size)
	for i := range tiles {
		tiles[i] = NewTile()
	}
	return &Board{
		Size:        size,
		Tiles:       tiles,
		LineBonuses: DefaultLineBonuses(size),
		completions: json.RawMessage(emptyCompletions),
	}
}

// Index converts a row/col pair into a tile index
func (b *Board) Index(row, col int) int {
	return row*b.Size + col
}

// Tile returns the tile at index, or nil if out of range
func (b *Board) Tile(index int) *Tile {
	if index < 0 || index >= len(b.Tiles) {
		return nil
	}
	return &b.Tiles[index]
}

// IsValidIndex returns true if the index addresses a tile
func (b *Board) IsValidIndex(index int) bool {
	return index >= 0 && index < b.Size*b.Size && index < len(b.Tiles)
}

// Validate checks the structural invariants of the board.
// A violation means the document is corrupt and must not be scored.
func (b *Board) Validate() error {
	if b.Size < 1 {
		return fmt.Errorf("%w: board size %d", ErrCorruptBoard, b.Size)
	}
	if len(b.Tiles) != b.Size*b.Size {
		return fmt.Errorf("%w: %d tiles for size %d", ErrCorruptBoard, len(b.Tiles), b.Size)
	}
	if len(b.LineBonuses.Rows) != b.Size || len(b.LineBonuses.Cols) != b.Size {
		return fmt.Errorf("%w: line bonuses do not match size %d", ErrCorruptBoard, b.Size)
	}
	if len(b.LineBonuses.Diags) != DiagonalCount {
		return fmt.Errorf("%w: expected %d diagonal bonuses, got %d", ErrCorruptBoard, DiagonalCount, len(b.LineBonuses.Diags))
	}
	for i := range b.Tiles {
		if b.Tiles[i].Value <= 0 {
			return fmt.Errorf("%w: tile %d has value %d", ErrCorruptBoard, i+1, b.Tiles[i].Value)
		}
	}
	return nil
}

// Clone returns a deep copy of the board
func (b *Board) Clone() *Board {
	clone := &Board{
		Size:        b.Size,
		Tiles:       make([]Tile, len(b.Tiles)),
		LineBonuses: b.LineBonuses.Clone(),
	}
	for i := range b.Tiles {
		clone.Tiles[i] = b.Tiles[i].Clone()
	}
	if b.completions != nil {
		clone.completions = append(json.RawMessage(nil), b.completions...)
	}
	return clone
}

// Players returns every player who has completed at least one tile,
// in order of first appearance scanning tiles in index order.
func (b *Board) Players() []string {
	seen := make(map[string]bool)
	var players []string
	for i := range b.Tiles {
		for _, p := range b.Tiles[i].CompletedBy {
			if !seen[p] {
				seen[p] = true
				players = append(players, p)
			}
		}
	}
	return players
}

// boardDocument is the persisted JSON shape of a board
type boardDocument struct {
	BoardSize   *int             `json:"boardSize,omitempty"`
	Tiles       []Tile           `json:"tiles"`
	Completions json.RawMessage  `json:"completions,omitempty"`
	LineBonuses *lineBonusesJSON `json:"lineBonuses,omitempty"`
}

type lineBonusesJSON struct {
	Rows  []int `json:"rows"`
	Cols  []int `json:"cols"`
	Diags []int `json:"diags"`
}

// MarshalJSON encodes the board in its document shape
func (b Board) MarshalJSON() ([]byte, error) {
	size := b.Size
	completions := b.completions
	if len(completions) == 0 {
		completions = json.RawMessage(emptyCompletions)
	}
	tiles := b.Tiles
	if tiles == nil {
		tiles = []Tile{}
	}
	return json.Marshal(boardDocument{
		BoardSize:   &size,
		Tiles:       tiles,
		Completions: completions,
		LineBonuses: &lineBonusesJSON{
			Rows:  nonNilInts(b.LineBonuses.Rows),
			Cols:  nonNilInts(b.LineBonuses.Cols),
			Diags: nonNilInts(b.LineBonuses.Diags),
		},
	})
}

// UnmarshalJSON decodes a board document, filling in defaults for a missing
// size or missing line bonuses. It does not validate; callers use Validate.
func (b *Board) UnmarshalJSON(data []byte) error {
	var doc boardDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	b.Size = DefaultBoardSize
	if doc.BoardSize != nil {
		b.Size = *doc.BoardSize
	}
	b.Tiles = doc.Tiles
	b.completions = doc.Completions

	b.LineBonuses = LineBonuses{}
	if doc.LineBonuses != nil {
		b.LineBonuses = LineBonuses{
			Rows:  doc.LineBonuses.Rows,
			Cols:  doc.LineBonuses.Cols,
			Diags: doc.LineBonuses.Diags,
		}
	}
	if b.Size > 0 {
		defaults := DefaultLineBonuses(b.Size)
		if b.LineBonuses.Rows == nil {
			b.LineBonuses.Rows = defaults.Rows
		}
		if b.LineBonuses.Cols == nil {
			b.LineBonuses.Cols = defaults.Cols
		}
		if b.LineBonuses.Diags == nil {
			b.LineBonuses.Diags = defaults.Diags
		}
	}
	return nil
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
