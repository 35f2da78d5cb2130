package scoring

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New(testutil.NopLogger())
}

func (s *ServiceSuite) TestEmptyBoardHasNoPlayers() {
	scores, err := s.service.ComputeLeaderboard(model.NewBoard(5))

	s.Require().NoError(err)
	s.Empty(scores)
}

func (s *ServiceSuite) TestFullRowEarnsBaseAndBonus() {
	board := boardFrom(
		"aaaaa",
		".....",
		".....",
		".....",
		".....",
	)

	scores, err := s.service.ComputeLeaderboard(board)

	s.Require().NoError(err)
	s.Require().Len(scores, 1)
	s.Equal("alice", scores[0].Player)
	s.Equal(5, scores[0].TilesCompleted)
	s.Equal(50, scores[0].BasePoints)
	s.Equal(50, scores[0].LineBonusPoints)
	s.Equal(100, scores[0].TotalPoints)
	s.Equal([]int{0}, scores[0].Lines.Rows)
}

func (s *ServiceSuite) TestSizeOneBoardAwardsFourBonuses() {
	board := boardFrom("a")
	board.LineBonuses = model.LineBonuses{Rows: []int{1}, Cols: []int{2}, Diags: []int{4, 8}}

	score, err := s.service.PlayerScore(board, "alice")

	s.Require().NoError(err)
	s.Equal(10, score.BasePoints)
	s.Equal(15, score.LineBonusPoints)
	s.Equal(25, score.TotalPoints)
}

func (s *ServiceSuite) TestUsesTileValuesAndPerLineBonuses() {
	board := boardFrom(
		"ab",
		"a.",
	)
	board.Tiles[0].Value = 25
	board.Tiles[2].Value = 5
	board.LineBonuses.Cols = []int{7, 0}

	score, err := s.service.PlayerScore(board, "alice")

	s.Require().NoError(err)
	s.Equal(2, score.TilesCompleted)
	s.Equal(30, score.BasePoints)
	s.Equal(7, score.LineBonusPoints)
}

func (s *ServiceSuite) TestLeaderboardSortedDescending() {
	board := boardFrom(
		"bba",
		"...",
		"c..",
	)

	scores, err := s.service.ComputeLeaderboard(board)

	s.Require().NoError(err)
	s.Require().Len(scores, 3)
	s.Equal("bob", scores[0].Player)
	s.Equal(20, scores[0].TotalPoints)
}

func (s *ServiceSuite) TestTiesBrokenByName() {
	board := boardFrom(
		"c.b",
		"...",
		"a..",
	)

	scores, err := s.service.ComputeLeaderboard(board)

	s.Require().NoError(err)
	s.Require().Len(scores, 3)
	s.Equal("alice", scores[0].Player)
	s.Equal("bob", scores[1].Player)
	s.Equal("carol", scores[2].Player)
	s.Equal("", s.service.DetermineLeader(scores))
}

func (s *ServiceSuite) TestDetermineLeader() {
	board := boardFrom(
		"aa",
		"b.",
	)

	scores, err := s.service.ComputeLeaderboard(board)

	s.Require().NoError(err)
	s.Equal("alice", s.service.DetermineLeader(scores))
	s.Equal("", s.service.DetermineLeader(nil))
}

func (s *ServiceSuite) TestCorruptBoardRejected() {
	board := boardFrom("aa", "aa")
	board.Tiles = board.Tiles[:3]

	_, err := s.service.ComputeLeaderboard(board)
	s.ErrorIs(err, model.ErrCorruptBoard)

	_, err = s.service.PlayerScore(board, "alice")
	s.ErrorIs(err, model.ErrCorruptBoard)
}
