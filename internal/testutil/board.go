package testutil

import "github.com/mcoot/osrsbingo/internal/model"

// BoardWithItems returns a fresh board whose first tiles hold the given
// items, one item per tile.
func BoardWithItems(size int, items ...string) *model.Board {
	board := model.NewBoard(size)
	for i, item := range items {
		if i >= len(board.Tiles) {
			break
		}
		board.Tiles[i].Items = []string{item}
	}
	return board
}

// CompleteTiles marks player as having completed each tile index
func CompleteTiles(board *model.Board, player string, indices ...int) {
	for _, idx := range indices {
		board.Tiles[idx].MarkCompleted(player)
	}
}
