package model

import "slices"

// Diagonal identifies one of the two board diagonals
type Diagonal int

const (
	DiagonalMain Diagonal = 0 // top-left to bottom-right
	DiagonalAnti Diagonal = 1 // top-right to bottom-left
)

// LineBonuses holds bonus points for each row, each column and both diagonals
type LineBonuses struct {
	Rows  []int `json:"rows"`
	Cols  []int `json:"cols"`
	Diags []int `json:"diags"`
}

// DefaultLineBonuses returns the default bonus configuration for a board size
func DefaultLineBonuses(size int) LineBonuses {
	rows := make([]int, size)
	cols := make([]int, size)
	for i := 0; i < size; i++ {
		rows[i] = DefaultLineBonus
		cols[i] = DefaultLineBonus
	}
	return LineBonuses{
		Rows:  rows,
		Cols:  cols,
		Diags: []int{DefaultDiagBonus, DefaultDiagBonus},
	}
}

// Clone returns a deep copy of the bonuses
func (lb LineBonuses) Clone() LineBonuses {
	return LineBonuses{
		Rows:  slices.Clone(lb.Rows),
		Cols:  slices.Clone(lb.Cols),
		Diags: slices.Clone(lb.Diags),
	}
}

// LineCompletion lists the lines a player has fully completed
type LineCompletion struct {
	Rows      []int      `json:"rows"`
	Cols      []int      `json:"cols"`
	Diagonals []Diagonal `json:"diagonals"`
}

// Count returns the total number of completed lines
func (lc LineCompletion) Count() int {
	return len(lc.Rows) + len(lc.Cols) + len(lc.Diagonals)
}

// PlayerScore is a player's derived standing on the board
type PlayerScore struct {
	Player          string         `json:"player"`
	TilesCompleted  int            `json:"tilesCompleted"`
	BasePoints      int            `json:"basePoints"`
	LineBonusPoints int            `json:"lineBonusPoints"`
	TotalPoints     int            `json:"totalPoints"`
	Lines           LineCompletion `json:"lines"`
}

// CompletedTile describes a tile newly completed by a drop
type CompletedTile struct {
	Tile  int      `json:"tile"` // 1-based tile number
	Items []string `json:"items"`
	Value int      `json:"value"`
}
