package scoring

import (
	"log/slog"
	"sort"

	"github.com/mcoot/osrsbingo/internal/model"
)

// Service computes player scores and the leaderboard for a board
type Service struct {
	logger *slog.Logger
}

// New creates a new scoring Service
func New(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// PlayerScore scores a single player. A player with no completions scores zero.
func (s *Service) PlayerScore(board *model.Board, player string) (model.PlayerScore, error) {
	if err := board.Validate(); err != nil {
		return model.PlayerScore{}, err
	}
	return scorePlayer(board, player), nil
}

// ComputeLeaderboard scores every player who has completed at least one tile,
// ordered by total points descending and then by name.
func (s *Service) ComputeLeaderboard(board *model.Board) ([]model.PlayerScore, error) {
	if err := board.Validate(); err != nil {
		s.logger.Warn("refusing to score corrupt board", slog.String("error", err.Error()))
		return nil, err
	}

	players := board.Players()
	scores := make([]model.PlayerScore, 0, len(players))
	for _, player := range players {
		scores = append(scores, scorePlayer(board, player))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].TotalPoints != scores[j].TotalPoints {
			return scores[i].TotalPoints > scores[j].TotalPoints
		}
		return scores[i].Player < scores[j].Player
	})

	return scores, nil
}

// DetermineLeader returns the top player, or empty string if the top spot is tied
func (s *Service) DetermineLeader(scores []model.PlayerScore) string {
	if len(scores) == 0 {
		return ""
	}

	top := scores[0].TotalPoints
	tieCount := 0
	for _, score := range scores {
		if score.TotalPoints == top {
			tieCount++
		}
	}

	if tieCount > 1 {
		return ""
	}

	return scores[0].Player
}

func scorePlayer(board *model.Board, player string) model.PlayerScore {
	score := model.PlayerScore{Player: player}

	for i := range board.Tiles {
		if board.Tiles[i].IsCompletedBy(player) {
			score.TilesCompleted++
			score.BasePoints += board.Tiles[i].Value
		}
	}

	lines := CompletionsFor(board, player)
	for _, row := range lines.Rows {
		score.LineBonusPoints += board.LineBonuses.Rows[row]
	}
	for _, col := range lines.Cols {
		score.LineBonusPoints += board.LineBonuses.Cols[col]
	}
	for _, d := range lines.Diagonals {
		score.LineBonusPoints += board.LineBonuses.Diags[d]
	}

	score.Lines = lines
	score.TotalPoints = score.BasePoints + score.LineBonusPoints
	return score
}

// ServiceInterface is the scoring contract consumed by handlers
type ServiceInterface interface {
	PlayerScore(board *model.Board, player string) (model.PlayerScore, error)
	ComputeLeaderboard(board *model.Board) ([]model.PlayerScore, error)
	DetermineLeader(scores []model.PlayerScore) string
}

var _ ServiceInterface = (*Service)(nil)
