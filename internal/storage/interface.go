package storage

import (
	"context"
	"time"

	"github.com/mcoot/osrsbingo/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Board operations
	GetBoard(ctx context.Context) (*model.Board, error)
	SaveBoard(ctx context.Context, board *model.Board) error

	// Shuffle undo snapshot
	GetBoardSnapshot(ctx context.Context) (*model.Board, error)
	SaveBoardSnapshot(ctx context.Context, board *model.Board) error
	DeleteBoardSnapshot(ctx context.Context) error

	// Drop history operations
	SaveDrop(ctx context.Context, drop *model.DropRecord) error
	// FindDrop returns a drop by player and item with a timestamp in [from, to]
	FindDrop(ctx context.Context, player, item string, from, to time.Time) (*model.DropRecord, error)
	// ListDrops returns matching drops, newest first
	ListDrops(ctx context.Context, query model.DropQuery) ([]*model.DropRecord, error)
	// DeleteDrops removes drops by player and item at exactly ts, returning the count removed
	DeleteDrops(ctx context.Context, player, item string, ts time.Time) (int, error)

	// Death operations
	SaveDeath(ctx context.Context, death *model.DeathRecord) error
	// ListDeaths returns every death, newest first
	ListDeaths(ctx context.Context) ([]*model.DeathRecord, error)

	// Rank snapshot operations
	SaveRankSnapshot(ctx context.Context, snapshot *model.RankSnapshot) error
	// ListRankSnapshots returns up to limit snapshots, newest first; limit <= 0 returns all
	ListRankSnapshots(ctx context.Context, limit int) ([]*model.RankSnapshot, error)
}
