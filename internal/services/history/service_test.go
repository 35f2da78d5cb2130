package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/osrsbingo/internal/dependencies/mocks"
	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/services/board"
	"github.com/mcoot/osrsbingo/internal/services/valuefilter"
	"github.com/mcoot/osrsbingo/internal/storage/memory"
	"github.com/mcoot/osrsbingo/internal/testutil"
)

// stubMatcher completes tile 1 for any item listed in completes
type stubMatcher struct {
	completes map[string]bool
	calls     []string
	err       error
}

func (m *stubMatcher) ApplyDrop(_ context.Context, player, item string) ([]model.CompletedTile, error) {
	m.calls = append(m.calls, player+"/"+item)
	if m.err != nil {
		return nil, m.err
	}
	if m.completes[item] {
		return []model.CompletedTile{{Tile: 1, Items: []string{item}, Value: 10}}, nil
	}
	return []model.CompletedTile{}, nil
}

type ServiceSuite struct {
	suite.Suite
	storage   *memory.Storage
	matcher   *stubMatcher
	clock     *mocks.MockClock
	publisher *testutil.RecordingPublisher
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

var now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.matcher = &stubMatcher{completes: map[string]bool{"Twisted bow": true}}
	s.clock = mocks.NewMockClock(now)
	s.publisher = &testutil.RecordingPublisher{}
	s.service = New(s.storage, s.matcher, s.clock, s.publisher, testutil.NopLogger(), DefaultOptions())
	s.ctx = context.Background()
}

// RecordDrop tests

func (s *ServiceSuite) TestRecordDropAppliesToBoard() {
	result, err := s.service.RecordDrop(s.ctx, DropInput{Player: " alice ", Item: "Twisted bow", Value: 1_200_000_000})
	s.Require().NoError(err)

	s.False(result.Duplicate)
	s.Equal("alice", result.Drop.Player)
	s.Equal(now, result.Drop.Timestamp)
	s.Equal(model.DefaultDropType, result.Drop.DropType)
	s.Equal(model.SourceAPI, result.Drop.Source)
	s.True(result.Drop.TileCompleted)
	s.Len(result.Drop.TilesInfo, 1)
	s.NotEmpty(result.Drop.ID)
	s.Equal([]string{"alice/Twisted bow"}, s.matcher.calls)
	s.Equal([]model.EventType{model.EventDropRecorded}, s.publisher.Types(model.TopicDrops))

	stored, err := s.storage.ListDrops(s.ctx, model.DropQuery{})
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.True(stored[0].TileCompleted)
}

func (s *ServiceSuite) TestRecordDropWithoutCompletion() {
	result, err := s.service.RecordDrop(s.ctx, DropInput{Player: "bob", Item: "Bones", DropType: "pet"})
	s.Require().NoError(err)

	s.False(result.Drop.TileCompleted)
	s.Empty(result.TilesCompleted)
	s.Equal("pet", result.Drop.DropType)
}

func (s *ServiceSuite) TestRecordDropSkipsDuplicatesInsideWindow() {
	first, err := s.service.RecordDrop(s.ctx, DropInput{Player: "alice", Item: "Twisted bow"})
	s.Require().NoError(err)

	s.clock.Advance(4 * time.Second)
	second, err := s.service.RecordDrop(s.ctx, DropInput{Player: "alice", Item: "Twisted bow"})
	s.Require().NoError(err)

	s.True(second.Duplicate)
	s.Equal(first.Drop.ID, second.Drop.ID)

	// The duplicate is still offered to the board, which ignores tiles already held
	s.Len(s.matcher.calls, 2)

	stored, err := s.storage.ListDrops(s.ctx, model.DropQuery{})
	s.Require().NoError(err)
	s.Len(stored, 1)
	s.Equal([]model.EventType{model.EventDropRecorded}, s.publisher.Types(model.TopicDrops))
}

func (s *ServiceSuite) TestRecordDropAfterImportCreditsBoard() {
	boards := board.New(s.storage, mocks.NewMockRandom(), s.clock, nil, testutil.NopLogger(), board.DefaultOptions())
	_, err := boards.Resize(s.ctx, true, 2)
	s.Require().NoError(err)
	_, err = boards.EditTile(s.ctx, true, 0, model.TileEdit{Items: []string{"Twisted bow"}, Value: 10})
	s.Require().NoError(err)

	service := New(s.storage, boards, s.clock, nil, testutil.NopLogger(), DefaultOptions())

	imported, err := service.ImportDrop(s.ctx, DropInput{Player: "alice", Item: "Twisted bow"})
	s.Require().NoError(err)
	s.Empty(imported.TilesCompleted)

	s.clock.Advance(2 * time.Second)
	result, err := service.RecordDrop(s.ctx, DropInput{Player: "alice", Item: "Twisted bow"})
	s.Require().NoError(err)

	s.True(result.Duplicate)
	s.Equal(imported.Drop.ID, result.Drop.ID)
	s.Require().Len(result.TilesCompleted, 1)
	s.Equal(1, result.TilesCompleted[0].Tile)

	current, err := boards.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"alice"}, current.Tiles[0].CompletedBy)

	stored, err := s.storage.ListDrops(s.ctx, model.DropQuery{})
	s.Require().NoError(err)
	s.Len(stored, 1)
}

func (s *ServiceSuite) TestRecordDropOutsideWindowIsNew() {
	_, err := s.service.RecordDrop(s.ctx, DropInput{Player: "alice", Item: "Bones"})
	s.Require().NoError(err)

	s.clock.Advance(6 * time.Second)
	result, err := s.service.RecordDrop(s.ctx, DropInput{Player: "alice", Item: "Bones"})
	s.Require().NoError(err)
	s.False(result.Duplicate)

	stored, err := s.storage.ListDrops(s.ctx, model.DropQuery{})
	s.Require().NoError(err)
	s.Len(stored, 2)
}

func (s *ServiceSuite) TestRecordDropDifferentPlayerIsNotDuplicate() {
	_, err := s.service.RecordDrop(s.ctx, DropInput{Player: "alice", Item: "Bones"})
	s.Require().NoError(err)

	result, err := s.service.RecordDrop(s.ctx, DropInput{Player: "bob", Item: "Bones"})
	s.Require().NoError(err)
	s.False(result.Duplicate)
}

func (s *ServiceSuite) TestRecordDropValidation() {
	_, err := s.service.RecordDrop(s.ctx, DropInput{Item: "Bones"})
	s.ErrorIs(err, model.ErrValidation)

	_, err = s.service.RecordDrop(s.ctx, DropInput{Player: "alice"})
	s.ErrorIs(err, model.ErrValidation)

	_, err = s.service.RecordDrop(s.ctx, DropInput{Player: "alice", Item: "Bones", Value: -1})
	s.ErrorIs(err, model.ErrValidation)
}

func (s *ServiceSuite) TestRecordDropPropagatesBoardError() {
	s.matcher.err = model.ErrCorruptBoard

	_, err := s.service.RecordDrop(s.ctx, DropInput{Player: "alice", Item: "Bones"})
	s.ErrorIs(err, model.ErrCorruptBoard)

	stored, err := s.storage.ListDrops(s.ctx, model.DropQuery{})
	s.Require().NoError(err)
	s.Empty(stored)
}

// ImportDrop tests

func (s *ServiceSuite) TestImportDropNeverTouchesBoard() {
	result, err := s.service.ImportDrop(s.ctx, DropInput{Player: "alice", Item: "Twisted bow"})
	s.Require().NoError(err)

	s.Empty(s.matcher.calls)
	s.False(result.Drop.TileCompleted)
	s.Equal(model.SourceImport, result.Drop.Source)
}

// ListDrops tests

func (s *ServiceSuite) seedDrops() {
	values := []float64{50_000, 150_000, 2_000_000, 90_000, 105_000}
	for i, v := range values {
		_, err := s.service.ImportDrop(s.ctx, DropInput{
			Player:    []string{"alice", "bob"}[i%2],
			Item:      "Item",
			Value:     v,
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		})
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) TestListDropsAppliesValueFilterBeforeLimit() {
	s.seedDrops()

	drops, err := s.service.ListDrops(s.ctx, ListQuery{
		DropQuery: model.DropQuery{Limit: 2},
		Value:     valuefilter.Parse(">100k"),
	})
	s.Require().NoError(err)

	s.Require().Len(drops, 2)
	s.Equal(105_000.0, drops[0].Value)
	s.Equal(2_000_000.0, drops[1].Value)
}

func (s *ServiceSuite) TestListDropsFiltersByPlayer() {
	s.seedDrops()

	drops, err := s.service.ListDrops(s.ctx, ListQuery{DropQuery: model.DropQuery{Player: "BOB"}})
	s.Require().NoError(err)

	s.Len(drops, 2)
	for _, d := range drops {
		s.Equal("bob", d.Player)
	}
}

func (s *ServiceSuite) TestListDropsCapsLimit() {
	svc := New(s.storage, s.matcher, s.clock, nil, testutil.NopLogger(), Options{DefaultLimit: 2, MaxLimit: 3})
	s.seedDrops()

	drops, err := svc.ListDrops(s.ctx, ListQuery{})
	s.Require().NoError(err)
	s.Len(drops, 2)

	drops, err = svc.ListDrops(s.ctx, ListQuery{DropQuery: model.DropQuery{Limit: 50}})
	s.Require().NoError(err)
	s.Len(drops, 3)
}

// DeleteDrops tests

func (s *ServiceSuite) TestDeleteDrops() {
	result, err := s.service.ImportDrop(s.ctx, DropInput{Player: "alice", Item: "Bones"})
	s.Require().NoError(err)

	_, err = s.service.DeleteDrops(s.ctx, false, "alice", "Bones", result.Drop.Timestamp)
	s.ErrorIs(err, model.ErrPermissionDenied)

	removed, err := s.service.DeleteDrops(s.ctx, true, "alice", "Bones", result.Drop.Timestamp)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.service.DeleteDrops(s.ctx, true, "alice", "Bones", result.Drop.Timestamp)
	s.ErrorIs(err, model.ErrDropNotFound)
}

func (s *ServiceSuite) TestDeleteDropsRequiresTimestamp() {
	_, err := s.service.DeleteDrops(s.ctx, true, "alice", "Bones", time.Time{})
	s.ErrorIs(err, model.ErrValidation)
}

// Death tests

func (s *ServiceSuite) recordDeath(player, npc string, offset time.Duration) {
	_, err := s.service.RecordDeath(s.ctx, DeathInput{Player: player, NPC: npc, Timestamp: now.Add(offset)})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestRecordDeathValidatesPlayer() {
	_, err := s.service.RecordDeath(s.ctx, DeathInput{NPC: "Zulrah"})
	s.ErrorIs(err, model.ErrValidation)
}

func (s *ServiceSuite) TestRecordDeathPublishes() {
	death, err := s.service.RecordDeath(s.ctx, DeathInput{Player: "alice"})
	s.Require().NoError(err)

	s.Equal(now, death.Timestamp)
	s.Equal([]model.EventType{model.EventDeathRecorded}, s.publisher.Types(model.TopicDeaths))
}

func (s *ServiceSuite) TestDeathStats() {
	s.recordDeath("alice", "Zulrah", 0)
	s.recordDeath("alice", "Vorkath", time.Hour)
	s.recordDeath("bob", "Zulrah", 30*time.Minute)

	stats, err := s.service.DeathStats(s.ctx)
	s.Require().NoError(err)

	s.Equal(3, stats.TotalDeaths)
	s.Require().Len(stats.PlayerStats, 2)
	s.Equal("alice", stats.PlayerStats[0].Player)
	s.Equal(2, stats.PlayerStats[0].Deaths)
	s.Equal("Vorkath", stats.PlayerStats[0].LastNPC)
	s.Equal(now.Add(time.Hour), stats.PlayerStats[0].LastDeath)
	s.Equal("bob", stats.PlayerStats[1].Player)
}

func (s *ServiceSuite) TestDeathsByNPC() {
	s.recordDeath("alice", "Zulrah", 0)
	s.recordDeath("bob", "Zulrah", time.Minute)
	s.recordDeath("alice", "Zulrah", 2*time.Minute)
	s.recordDeath("carol", "Vorkath", 3*time.Minute)
	s.recordDeath("carol", "", 4*time.Minute)

	stats, err := s.service.DeathsByNPC(s.ctx, 0)
	s.Require().NoError(err)

	s.Require().Len(stats, 2)
	s.Equal("Zulrah", stats[0].NPC)
	s.Equal(3, stats[0].Deaths)
	s.Equal(2, stats[0].UniquePlayers)
	s.ElementsMatch([]string{"alice", "bob"}, stats[0].Players)
	s.Equal("alice", stats[0].LastVictim)
	s.Equal(now.Add(2*time.Minute), stats[0].LastDeathTime)

	limited, err := s.service.DeathsByNPC(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *ServiceSuite) TestDeathsByPlayerNPC() {
	s.recordDeath("alice", "Zulrah", 0)
	s.recordDeath("alice", "Zulrah", time.Minute)
	s.recordDeath("bob", "Vorkath", 2*time.Minute)
	s.recordDeath("bob", "", 3*time.Minute)

	counts, err := s.service.DeathsByPlayerNPC(s.ctx)
	s.Require().NoError(err)

	s.Equal(map[string]map[string]int{
		"alice": {"Zulrah": 2},
		"bob":   {"Vorkath": 1},
	}, counts)
}

func (s *ServiceSuite) TestStorageErrorsPropagate() {
	boom := errors.New("boom")
	s.matcher.err = boom

	_, err := s.service.RecordDrop(s.ctx, DropInput{Player: "alice", Item: "Bones"})
	s.ErrorIs(err, boom)
}
