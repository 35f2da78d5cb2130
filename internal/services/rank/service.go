// Package rank tracks the group's hiscore rank over time.
package rank

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/osrsbingo/internal/dependencies/clock"
	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/storage"
)

// SnapshotInput is a hiscore reading to record
type SnapshotInput struct {
	Rank         int
	PrestigeRank *int
	TotalXP      int64
	Timestamp    time.Time // zero means now
}

// Service records rank snapshots
type Service struct {
	storage   storage.Storage
	clock     clock.Clock
	publisher model.Publisher
	logger    *slog.Logger
}

// New creates a new rank service
func New(storage storage.Storage, clock clock.Clock, publisher model.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = model.NopPublisher{}
	}
	return &Service{
		storage:   storage,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
	}
}

// RecordSnapshot stores a reading along with its change since the previous
// one. A positive RankChange means the group climbed.
func (s *Service) RecordSnapshot(ctx context.Context, input SnapshotInput) (*model.RankSnapshot, error) {
	if input.Rank < 1 {
		return nil, model.NewValidationError("rank", "must be positive, got %d", input.Rank)
	}
	if input.PrestigeRank != nil && *input.PrestigeRank < 1 {
		return nil, model.NewValidationError("prestigeRank", "must be positive, got %d", *input.PrestigeRank)
	}
	if input.TotalXP < 0 {
		return nil, model.NewValidationError("totalXp", "must not be negative")
	}

	ts := input.Timestamp
	if ts.IsZero() {
		ts = s.clock.Now()
	}

	snapshot := &model.RankSnapshot{
		ID:           uuid.NewString(),
		Rank:         input.Rank,
		PrestigeRank: input.PrestigeRank,
		TotalXP:      input.TotalXP,
		Timestamp:    ts.UTC(),
	}

	previous, err := s.Latest(ctx)
	switch {
	case err == nil:
		snapshot.RankChange = previous.Rank - snapshot.Rank
		snapshot.XPChange = snapshot.TotalXP - previous.TotalXP
	case !errors.Is(err, model.ErrRankNotFound):
		return nil, err
	}

	if err := s.storage.SaveRankSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}

	s.logger.Info("rank snapshot recorded",
		slog.Int("rank", snapshot.Rank),
		slog.Int("rank_change", snapshot.RankChange),
		slog.Int64("xp_change", snapshot.XPChange),
	)
	s.publisher.Publish(model.TopicRank, model.Event{
		Type:      model.EventRankRecorded,
		Timestamp: s.clock.Now(),
		Payload:   snapshot,
	})
	return snapshot, nil
}

// Latest returns the most recent snapshot
func (s *Service) Latest(ctx context.Context) (*model.RankSnapshot, error) {
	snapshots, err := s.storage.ListRankSnapshots(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, model.ErrRankNotFound
	}
	return snapshots[0], nil
}

// History returns up to limit snapshots, newest first. A limit <= 0 returns all.
func (s *Service) History(ctx context.Context, limit int) ([]*model.RankSnapshot, error) {
	return s.storage.ListRankSnapshots(ctx, limit)
}

// Interface for dependency injection
type ServiceInterface interface {
	RecordSnapshot(ctx context.Context, input SnapshotInput) (*model.RankSnapshot, error)
	Latest(ctx context.Context) (*model.RankSnapshot, error)
	History(ctx context.Context, limit int) ([]*model.RankSnapshot, error)
}

var _ ServiceInterface = (*Service)(nil)
