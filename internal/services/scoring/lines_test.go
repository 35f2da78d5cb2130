package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/osrsbingo/internal/model"
)

// boardFrom builds a board from row strings where each letter marks the tile
// as completed by that player ("a" is alice, "b" is bob) and "." is empty.
func boardFrom(rows ...string) *model.Board {
	board := model.NewBoard(len(rows))
	names := map[rune]string{'a': "alice", 'b': "bob", 'c': "carol"}
	for row, line := range rows {
		for col, ch := range line {
			if name, ok := names[ch]; ok {
				board.Tiles[board.Index(row, col)].MarkCompleted(name)
			}
		}
	}
	return board
}

func TestRowAndColumnCompletion(t *testing.T) {
	board := boardFrom(
		"aaa",
		"a.b",
		"a.b",
	)

	assert.True(t, IsRowComplete(board, "alice", 0))
	assert.False(t, IsRowComplete(board, "alice", 1))
	assert.True(t, IsColComplete(board, "alice", 0))
	assert.False(t, IsColComplete(board, "bob", 2))
}

func TestOutOfRangeLinesAreIncomplete(t *testing.T) {
	board := boardFrom("aa", "aa")

	assert.False(t, IsRowComplete(board, "alice", -1))
	assert.False(t, IsRowComplete(board, "alice", 2))
	assert.False(t, IsColComplete(board, "alice", 5))
	assert.False(t, IsDiagonalComplete(board, "alice", model.Diagonal(2)))
}

func TestDiagonals(t *testing.T) {
	board := boardFrom(
		"a.b",
		".ab",
		"b.a",
	)

	assert.True(t, IsDiagonalComplete(board, "alice", model.DiagonalMain))
	assert.False(t, IsDiagonalComplete(board, "alice", model.DiagonalAnti))
	assert.False(t, IsDiagonalComplete(board, "bob", model.DiagonalAnti))
}

func TestAntiDiagonal(t *testing.T) {
	board := boardFrom(
		"..c",
		".c.",
		"c..",
	)

	assert.True(t, IsDiagonalComplete(board, "carol", model.DiagonalAnti))
	assert.False(t, IsDiagonalComplete(board, "carol", model.DiagonalMain))
}

func TestEmptyPlayerCompletesNothing(t *testing.T) {
	board := model.NewBoard(1)
	board.Tiles[0].CompletedBy = []string{""}

	result := CompletionsFor(board, "")

	assert.Zero(t, result.Count())
	assert.False(t, IsRowComplete(board, "", 0))
}

func TestSizeOneBoardCompletesAllFourLines(t *testing.T) {
	board := boardFrom("a")

	result := CompletionsFor(board, "alice")

	assert.Equal(t, []int{0}, result.Rows)
	assert.Equal(t, []int{0}, result.Cols)
	assert.Equal(t, []model.Diagonal{model.DiagonalMain, model.DiagonalAnti}, result.Diagonals)
}

func TestCompletionsForIsIdempotent(t *testing.T) {
	board := boardFrom(
		"aaa",
		"ab.",
		"a.b",
	)

	first := CompletionsFor(board, "alice")
	second := CompletionsFor(board, "alice")

	assert.Equal(t, first, second)
	assert.Equal(t, []int{0}, first.Rows)
	assert.Equal(t, []int{0}, first.Cols)
	assert.Empty(t, first.Diagonals)
}

func TestRequireAllProgressAloneDoesNotCompleteLine(t *testing.T) {
	board := boardFrom(
		"a.",
		"..",
	)
	// alice holds every required item of tile 1 but was never credited with it
	board.Tiles[1].Requirement = model.AllOf(
		[]string{"Dragon chainbody", "Dragon med helm"},
		map[string][]string{"alice": {"Dragon chainbody", "Dragon med helm"}},
	)

	assert.False(t, IsRowComplete(board, "alice", 0))

	result := CompletionsFor(board, "alice")
	assert.Empty(t, result.Rows)
	assert.Zero(t, result.Count())

	board.Tiles[1].MarkCompleted("alice")
	assert.Equal(t, []int{0}, CompletionsFor(board, "alice").Rows)
}
