// Package history records and queries the drop and death history.
package history

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/osrsbingo/internal/dependencies/clock"
	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/services/valuefilter"
	"github.com/mcoot/osrsbingo/internal/storage"
)

// TileMatcher credits a drop against the board
type TileMatcher interface {
	ApplyDrop(ctx context.Context, player, item string) ([]model.CompletedTile, error)
}

// Options tunes duplicate detection and list limits
type Options struct {
	DedupeWindow time.Duration
	DefaultLimit int
	MaxLimit     int
}

// DefaultOptions returns a ±5s dedupe window and a default page of 100
func DefaultOptions() Options {
	return Options{
		DedupeWindow: 5 * time.Second,
		DefaultLimit: 100,
		MaxLimit:     1000,
	}
}

// DropInput is a drop reported by a plugin, webhook or admin
type DropInput struct {
	Player    string
	Item      string
	Value     float64
	Quantity  int
	DropType  string
	Source    string
	NPC       string
	Timestamp time.Time // zero means now
}

// DropResult is the outcome of recording a drop
type DropResult struct {
	Drop           *model.DropRecord
	Duplicate      bool
	TilesCompleted []model.CompletedTile
}

// ListQuery filters the drop history. A nil Value matches every value.
type ListQuery struct {
	model.DropQuery
	Value *valuefilter.Filter
}

// Service records drops and deaths
type Service struct {
	storage   storage.Storage
	tiles     TileMatcher
	clock     clock.Clock
	publisher model.Publisher
	logger    *slog.Logger
	opts      Options
}

// New creates a new history service
func New(
	storage storage.Storage,
	tiles TileMatcher,
	clock clock.Clock,
	publisher model.Publisher,
	logger *slog.Logger,
	opts Options,
) *Service {
	defaults := DefaultOptions()
	if opts.DedupeWindow < 0 {
		opts.DedupeWindow = 0
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaults.DefaultLimit
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = max(defaults.MaxLimit, opts.DefaultLimit)
	}
	if publisher == nil {
		publisher = model.NopPublisher{}
	}
	return &Service{
		storage:   storage,
		tiles:     tiles,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

// RecordDrop stores a drop and credits it against the board. A drop of the
// same item by the same player inside the dedupe window is reported as a
// duplicate and not stored again, but is still credited against the board.
func (s *Service) RecordDrop(ctx context.Context, input DropInput) (*DropResult, error) {
	return s.record(ctx, input, true)
}

// ImportDrop stores a drop in the history without touching the board
func (s *Service) ImportDrop(ctx context.Context, input DropInput) (*DropResult, error) {
	if input.Source == "" {
		input.Source = model.SourceImport
	}
	return s.record(ctx, input, false)
}

func (s *Service) record(ctx context.Context, input DropInput, applyToBoard bool) (*DropResult, error) {
	drop, err := s.newDrop(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.storage.FindDrop(ctx, drop.Player, drop.Item,
		drop.Timestamp.Add(-s.opts.DedupeWindow), drop.Timestamp.Add(s.opts.DedupeWindow))
	if err == nil {
		completed := []model.CompletedTile{}
		if applyToBoard {
			// An imported drop never reached the board
			completed, err = s.tiles.ApplyDrop(ctx, drop.Player, drop.Item)
			if err != nil {
				return nil, err
			}
		}
		s.logger.Info("duplicate drop not stored",
			slog.String("player", drop.Player),
			slog.String("item", drop.Item),
			slog.String("existing_id", existing.ID),
			slog.Int("tiles_completed", len(completed)),
		)
		return &DropResult{Drop: existing, Duplicate: true, TilesCompleted: completed}, nil
	}
	if !errors.Is(err, model.ErrDropNotFound) {
		return nil, err
	}

	completed := []model.CompletedTile{}
	if applyToBoard {
		completed, err = s.tiles.ApplyDrop(ctx, drop.Player, drop.Item)
		if err != nil {
			return nil, err
		}
	}
	drop.TileCompleted = len(completed) > 0
	drop.TilesInfo = completed

	if err := s.storage.SaveDrop(ctx, drop); err != nil {
		s.logger.Error("failed to save drop",
			slog.String("player", drop.Player),
			slog.String("item", drop.Item),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("drop recorded",
		slog.String("id", drop.ID),
		slog.String("player", drop.Player),
		slog.String("item", drop.Item),
		slog.Float64("value", drop.Value),
		slog.String("source", drop.Source),
		slog.Int("tiles_completed", len(completed)),
	)
	s.publish(model.TopicDrops, model.EventDropRecorded, drop)

	return &DropResult{Drop: drop, TilesCompleted: completed}, nil
}

func (s *Service) newDrop(input DropInput) (*model.DropRecord, error) {
	player := strings.TrimSpace(input.Player)
	if player == "" {
		return nil, model.NewValidationError("player", "must not be empty")
	}
	item := strings.TrimSpace(input.Item)
	if item == "" {
		return nil, model.NewValidationError("item", "must not be empty")
	}
	if input.Value < 0 {
		return nil, model.NewValidationError("value", "must not be negative")
	}

	ts := input.Timestamp
	if ts.IsZero() {
		ts = s.clock.Now()
	}
	dropType := strings.TrimSpace(input.DropType)
	if dropType == "" {
		dropType = model.DefaultDropType
	}
	source := input.Source
	if source == "" {
		source = model.SourceAPI
	}

	return &model.DropRecord{
		ID:        uuid.NewString(),
		Player:    player,
		Item:      item,
		Value:     input.Value,
		Quantity:  input.Quantity,
		DropType:  dropType,
		Source:    source,
		NPC:       strings.TrimSpace(input.NPC),
		Timestamp: ts.UTC(),
	}, nil
}

// ListDrops returns drops newest first. The limit defaults to DefaultLimit and
// is capped at MaxLimit; it applies after the value filter.
func (s *Service) ListDrops(ctx context.Context, query ListQuery) ([]*model.DropRecord, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	limit = min(limit, s.opts.MaxLimit)

	q := query.DropQuery
	q.Limit = limit
	if query.Value != nil {
		q.Limit = 0
	}

	drops, err := s.storage.ListDrops(ctx, q)
	if err != nil {
		return nil, err
	}

	result := make([]*model.DropRecord, 0, min(len(drops), limit))
	for _, d := range drops {
		if !query.Value.Match(d.Value) {
			continue
		}
		result = append(result, d)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// DeleteDrops removes the drops of item by player at exactly ts
func (s *Service) DeleteDrops(ctx context.Context, isAdmin bool, player, item string, ts time.Time) (int, error) {
	if !isAdmin {
		return 0, model.ErrPermissionDenied
	}
	if strings.TrimSpace(player) == "" {
		return 0, model.NewValidationError("player", "must not be empty")
	}
	if strings.TrimSpace(item) == "" {
		return 0, model.NewValidationError("item", "must not be empty")
	}
	if ts.IsZero() {
		return 0, model.NewValidationError("timestamp", "is required")
	}

	removed, err := s.storage.DeleteDrops(ctx, player, item, ts.UTC())
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, model.ErrDropNotFound
	}

	s.logger.Info("drops deleted",
		slog.String("player", player),
		slog.String("item", item),
		slog.Int("count", removed),
	)
	return removed, nil
}

func (s *Service) publish(topic model.Topic, event model.EventType, payload any) {
	s.publisher.Publish(topic, model.Event{
		Type:      event,
		Timestamp: s.clock.Now(),
		Payload:   payload,
	})
}

// Interface for dependency injection
type ServiceInterface interface {
	RecordDrop(ctx context.Context, input DropInput) (*DropResult, error)
	ImportDrop(ctx context.Context, input DropInput) (*DropResult, error)
	ListDrops(ctx context.Context, query ListQuery) ([]*model.DropRecord, error)
	DeleteDrops(ctx context.Context, isAdmin bool, player, item string, ts time.Time) (int, error)
	RecordDeath(ctx context.Context, input DeathInput) (*model.DeathRecord, error)
	DeathStats(ctx context.Context) (*model.DeathStats, error)
	DeathsByNPC(ctx context.Context, limit int) ([]model.NPCDeathStats, error)
	DeathsByPlayerNPC(ctx context.Context) (map[string]map[string]int, error)
	Analytics(ctx context.Context, query model.DropQuery) (*model.Analytics, error)
}

var _ ServiceInterface = (*Service)(nil)
