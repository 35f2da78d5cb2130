package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	board    *model.Board
	snapshot *model.Board
	drops    []*model.DropRecord
	deaths   []*model.DeathRecord
	ranks    []*model.RankSnapshot
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Board operations

func (s *Storage) GetBoard(ctx context.Context) (*model.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.board == nil {
		return nil, model.ErrBoardNotFound
	}
	return s.board.Clone(), nil
}

func (s *Storage) SaveBoard(ctx context.Context, board *model.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = board.Clone()
	return nil
}

func (s *Storage) GetBoardSnapshot(ctx context.Context) (*model.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, model.ErrSnapshotNotFound
	}
	return s.snapshot.Clone(), nil
}

func (s *Storage) SaveBoardSnapshot(ctx context.Context, board *model.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = board.Clone()
	return nil
}

func (s *Storage) DeleteBoardSnapshot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	return nil
}

// Drop operations

func (s *Storage) SaveDrop(ctx context.Context, drop *model.DropRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *drop
	s.drops = append(s.drops, &d)
	return nil
}

func (s *Storage) FindDrop(ctx context.Context, player, item string, from, to time.Time) (*model.DropRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.drops {
		if d.Player == player && d.Item == item && !d.Timestamp.Before(from) && !d.Timestamp.After(to) {
			found := *d
			return &found, nil
		}
	}
	return nil, model.ErrDropNotFound
}

func (s *Storage) ListDrops(ctx context.Context, query model.DropQuery) ([]*model.DropRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.DropRecord
	for _, d := range s.drops {
		if query.Matches(d) {
			found := *d
			result = append(result, &found)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if query.Limit > 0 && len(result) > query.Limit {
		result = result[:query.Limit]
	}
	return result, nil
}

func (s *Storage) DeleteDrops(ctx context.Context, player, item string, ts time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.drops[:0]
	removed := 0
	for _, d := range s.drops {
		if d.Player == player && d.Item == item && d.Timestamp.Equal(ts) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	s.drops = kept
	return removed, nil
}

// Death operations

func (s *Storage) SaveDeath(ctx context.Context, death *model.DeathRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *death
	s.deaths = append(s.deaths, &d)
	return nil
}

func (s *Storage) ListDeaths(ctx context.Context) ([]*model.DeathRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.DeathRecord, 0, len(s.deaths))
	for _, d := range s.deaths {
		found := *d
		result = append(result, &found)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

// Rank snapshot operations

func (s *Storage) SaveRankSnapshot(ctx context.Context, snapshot *model.RankSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *snapshot
	s.ranks = append(s.ranks, &r)
	return nil
}

func (s *Storage) ListRankSnapshots(ctx context.Context, limit int) ([]*model.RankSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.RankSnapshot, 0, len(s.ranks))
	for _, r := range s.ranks {
		found := *r
		result = append(result, &found)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
