// Package storagetest holds the behaviour suite every storage backend runs.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/storage"
)

// Suite exercises a storage.Storage implementation. Backends embed it and set
// Storage in their SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

var base = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func (s *Suite) drop(player, item string, offset time.Duration, value float64) *model.DropRecord {
	return &model.DropRecord{
		ID:        player + "-" + item + "-" + offset.String(),
		Player:    player,
		Item:      item,
		Value:     value,
		DropType:  model.DefaultDropType,
		Source:    model.SourceAPI,
		Timestamp: base.Add(offset),
	}
}

// Board tests

func (s *Suite) TestGetBoardNotFound() {
	_, err := s.Storage.GetBoard(s.Ctx)
	s.ErrorIs(err, model.ErrBoardNotFound)
}

func (s *Suite) TestSaveAndGetBoard() {
	board := model.NewBoard(3)
	board.Tiles[4].Items = []string{"Dragon warhammer"}
	board.Tiles[4].DisplayTitle = "DWH"
	board.Tiles[4].MarkCompleted("alice")
	board.Tiles[5].Items = []string{"Hilt", "Blade"}
	board.Tiles[5].Requirement = model.AllOf(board.Tiles[5].Items, nil)
	board.Tiles[5].RecordProgress("bob", "Hilt")
	board.LineBonuses.Diags = []int{5, 6}

	s.Require().NoError(s.Storage.SaveBoard(s.Ctx, board))

	got, err := s.Storage.GetBoard(s.Ctx)
	s.Require().NoError(err)
	s.Equal(board.Size, got.Size)
	s.Equal(board.Tiles, got.Tiles)
	s.Equal(board.LineBonuses, got.LineBonuses)
}

func (s *Suite) TestSaveBoardOverwrites() {
	s.Require().NoError(s.Storage.SaveBoard(s.Ctx, model.NewBoard(5)))
	s.Require().NoError(s.Storage.SaveBoard(s.Ctx, model.NewBoard(2)))

	got, err := s.Storage.GetBoard(s.Ctx)
	s.Require().NoError(err)
	s.Equal(2, got.Size)
	s.Len(got.Tiles, 4)
}

func (s *Suite) TestBoardSnapshotLifecycle() {
	_, err := s.Storage.GetBoardSnapshot(s.Ctx)
	s.ErrorIs(err, model.ErrSnapshotNotFound)

	board := model.NewBoard(2)
	board.Tiles[0].Items = []string{"Zenyte shard"}
	s.Require().NoError(s.Storage.SaveBoardSnapshot(s.Ctx, board))

	got, err := s.Storage.GetBoardSnapshot(s.Ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Zenyte shard"}, got.Tiles[0].Items)

	s.Require().NoError(s.Storage.DeleteBoardSnapshot(s.Ctx))
	_, err = s.Storage.GetBoardSnapshot(s.Ctx)
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

// Drop tests

func (s *Suite) TestFindDropWithinWindow() {
	s.Require().NoError(s.Storage.SaveDrop(s.Ctx, s.drop("alice", "Abyssal whip", 0, 1_500_000)))

	found, err := s.Storage.FindDrop(s.Ctx, "alice", "Abyssal whip", base.Add(-5*time.Second), base.Add(5*time.Second))
	s.Require().NoError(err)
	s.Equal("alice", found.Player)
	s.Equal(1_500_000.0, found.Value)

	_, err = s.Storage.FindDrop(s.Ctx, "alice", "Abyssal whip", base.Add(6*time.Second), base.Add(20*time.Second))
	s.ErrorIs(err, model.ErrDropNotFound)

	_, err = s.Storage.FindDrop(s.Ctx, "bob", "Abyssal whip", base.Add(-5*time.Second), base.Add(5*time.Second))
	s.ErrorIs(err, model.ErrDropNotFound)
}

func (s *Suite) TestListDropsNewestFirstWithLimit() {
	s.Require().NoError(s.Storage.SaveDrop(s.Ctx, s.drop("alice", "A", 0, 1)))
	s.Require().NoError(s.Storage.SaveDrop(s.Ctx, s.drop("bob", "B", time.Hour, 2)))
	s.Require().NoError(s.Storage.SaveDrop(s.Ctx, s.drop("alice", "C", 2*time.Hour, 3)))

	drops, err := s.Storage.ListDrops(s.Ctx, model.DropQuery{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(drops, 2)
	s.Equal("C", drops[0].Item)
	s.Equal("B", drops[1].Item)
}

func (s *Suite) TestListDropsFilters() {
	s.Require().NoError(s.Storage.SaveDrop(s.Ctx, s.drop("Alice", "A", 0, 1)))
	s.Require().NoError(s.Storage.SaveDrop(s.Ctx, s.drop("bob", "B", time.Hour, 2)))
	s.Require().NoError(s.Storage.SaveDrop(s.Ctx, s.drop("Alice", "C", 48*time.Hour, 3)))

	byPlayer, err := s.Storage.ListDrops(s.Ctx, model.DropQuery{Player: "alice"})
	s.Require().NoError(err)
	s.Len(byPlayer, 2)

	byRange, err := s.Storage.ListDrops(s.Ctx, model.DropQuery{
		Start: base.Add(30 * time.Minute),
		End:   base.Add(24 * time.Hour),
	})
	s.Require().NoError(err)
	s.Require().Len(byRange, 1)
	s.Equal("B", byRange[0].Item)
	s.True(byRange[0].Timestamp.Equal(base.Add(time.Hour)))
}

func (s *Suite) TestDropPreservesTileInfo() {
	d := s.drop("alice", "Tanzanite fang", 0, 4_000_000)
	d.TileCompleted = true
	d.TilesInfo = []model.CompletedTile{{Tile: 3, Items: []string{"Tanzanite fang"}, Value: 20}}
	d.NPC = "Zulrah"
	s.Require().NoError(s.Storage.SaveDrop(s.Ctx, d))

	drops, err := s.Storage.ListDrops(s.Ctx, model.DropQuery{})
	s.Require().NoError(err)
	s.Require().Len(drops, 1)
	s.True(drops[0].TileCompleted)
	s.Equal(d.TilesInfo, drops[0].TilesInfo)
	s.Equal("Zulrah", drops[0].NPC)
}

func (s *Suite) TestDeleteDrops() {
	s.Require().NoError(s.Storage.SaveDrop(s.Ctx, s.drop("alice", "A", 0, 1)))
	s.Require().NoError(s.Storage.SaveDrop(s.Ctx, s.drop("alice", "A", time.Minute, 1)))

	n, err := s.Storage.DeleteDrops(s.Ctx, "alice", "A", base)
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.Storage.DeleteDrops(s.Ctx, "alice", "A", base)
	s.Require().NoError(err)
	s.Equal(0, n)

	drops, err := s.Storage.ListDrops(s.Ctx, model.DropQuery{})
	s.Require().NoError(err)
	s.Len(drops, 1)
}

// Death tests

func (s *Suite) TestSaveAndListDeaths() {
	s.Require().NoError(s.Storage.SaveDeath(s.Ctx, &model.DeathRecord{ID: "d1", Player: "alice", NPC: "Vorkath", Timestamp: base}))
	s.Require().NoError(s.Storage.SaveDeath(s.Ctx, &model.DeathRecord{ID: "d2", Player: "bob", NPC: "Zulrah", Timestamp: base.Add(time.Hour)}))

	deaths, err := s.Storage.ListDeaths(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(deaths, 2)
	s.Equal("bob", deaths[0].Player)
	s.Equal("Vorkath", deaths[1].NPC)
}

// Rank tests

func (s *Suite) TestRankSnapshots() {
	prestige := 12
	s.Require().NoError(s.Storage.SaveRankSnapshot(s.Ctx, &model.RankSnapshot{ID: "r1", Rank: 100, TotalXP: 1000, Timestamp: base}))
	s.Require().NoError(s.Storage.SaveRankSnapshot(s.Ctx, &model.RankSnapshot{ID: "r2", Rank: 90, PrestigeRank: &prestige, TotalXP: 2000, RankChange: 10, XPChange: 1000, Timestamp: base.Add(time.Hour)}))

	latest, err := s.Storage.ListRankSnapshots(s.Ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(latest, 1)
	s.Equal(90, latest[0].Rank)
	s.Require().NotNil(latest[0].PrestigeRank)
	s.Equal(12, *latest[0].PrestigeRank)
	s.Equal(int64(1000), latest[0].XPChange)

	all, err := s.Storage.ListRankSnapshots(s.Ctx, 0)
	s.Require().NoError(err)
	s.Len(all, 2)
}
