package scoring

import "github.com/mcoot/osrsbingo/internal/model"

// IsRowComplete reports whether player has completed every tile in row
func IsRowComplete(board *model.Board, player string, row int) bool {
	if player == "" || row < 0 || row >= board.Size {
		return false
	}
	for col := 0; col < board.Size; col++ {
		if !completedAt(board, player, board.Index(row, col)) {
			return false
		}
	}
	return true
}

// IsColComplete reports whether player has completed every tile in col
func IsColComplete(board *model.Board, player string, col int) bool {
	if player == "" || col < 0 || col >= board.Size {
		return false
	}
	for row := 0; row < board.Size; row++ {
		if !completedAt(board, player, board.Index(row, col)) {
			return false
		}
	}
	return true
}

// IsDiagonalComplete reports whether player has completed every tile on the
// given diagonal
func IsDiagonalComplete(board *model.Board, player string, which model.Diagonal) bool {
	if player == "" || board.Size < 1 {
		return false
	}
	for i := 0; i < board.Size; i++ {
		var idx int
		switch which {
		case model.DiagonalMain:
			idx = board.Index(i, i)
		case model.DiagonalAnti:
			idx = board.Index(i, board.Size-1-i)
		default:
			return false
		}
		if !completedAt(board, player, idx) {
			return false
		}
	}
	return true
}

// CompletionsFor returns every line player has fully completed.
// It does not modify the board.
func CompletionsFor(board *model.Board, player string) model.LineCompletion {
	result := model.LineCompletion{
		Rows:      []int{},
		Cols:      []int{},
		Diagonals: []model.Diagonal{},
	}
	if player == "" {
		return result
	}

	for row := 0; row < board.Size; row++ {
		if IsRowComplete(board, player, row) {
			result.Rows = append(result.Rows, row)
		}
	}
	for col := 0; col < board.Size; col++ {
		if IsColComplete(board, player, col) {
			result.Cols = append(result.Cols, col)
		}
	}
	for _, d := range []model.Diagonal{model.DiagonalMain, model.DiagonalAnti} {
		if IsDiagonalComplete(board, player, d) {
			result.Diagonals = append(result.Diagonals, d)
		}
	}
	return result
}

func completedAt(board *model.Board, player string, index int) bool {
	tile := board.Tile(index)
	return tile != nil && tile.IsCompletedBy(player)
}
