package board

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/mcoot/osrsbingo/internal/dependencies/clock"
	"github.com/mcoot/osrsbingo/internal/dependencies/random"
	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/storage"
)

// Options bounds the board sizes the service accepts
type Options struct {
	DefaultSize int
	MaxSize     int
}

// DefaultOptions returns a 5×5 default with a maximum of 10×10
func DefaultOptions() Options {
	return Options{DefaultSize: model.DefaultBoardSize, MaxSize: 10}
}

// Service owns the single bingo board. Every mutation runs
// load → copy → mutate → validate → save under one lock, so a reader never
// sees a half-applied change.
type Service struct {
	storage   storage.Storage
	random    random.Random
	clock     clock.Clock
	publisher model.Publisher
	logger    *slog.Logger
	opts      Options

	mu sync.Mutex
}

// New creates a new board service
func New(
	storage storage.Storage,
	random random.Random,
	clock clock.Clock,
	publisher model.Publisher,
	logger *slog.Logger,
	opts Options,
) *Service {
	if opts.DefaultSize < 1 {
		opts.DefaultSize = model.DefaultBoardSize
	}
	if opts.MaxSize < opts.DefaultSize {
		opts.MaxSize = opts.DefaultSize
	}
	if publisher == nil {
		publisher = model.NopPublisher{}
	}
	return &Service{
		storage:   storage,
		random:    random,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

// Get returns the current board, or a fresh default board if none is stored
func (s *Service) Get(ctx context.Context) (*model.Board, error) {
	return s.load(ctx)
}

// Resize replaces the board with size² fresh tiles and default bonuses
func (s *Service) Resize(ctx context.Context, isAdmin bool, size int) (*model.Board, error) {
	if !isAdmin {
		return nil, model.ErrPermissionDenied
	}
	if size < 1 || size > s.opts.MaxSize {
		return nil, model.NewValidationError("size", "must be between 1 and %d, got %d", s.opts.MaxSize, size)
	}

	board, err := s.update(ctx, model.EventBoardUpdated, snapshotDrop, func(*model.Board) (*model.Board, error) {
		return model.NewBoard(size), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("board resized", slog.Int("size", size))
	return board, nil
}

// Clear wipes every tile and completion, keeping the current size
func (s *Service) Clear(ctx context.Context, isAdmin bool) (*model.Board, error) {
	if !isAdmin {
		return nil, model.ErrPermissionDenied
	}

	board, err := s.update(ctx, model.EventBoardUpdated, snapshotDrop, func(current *model.Board) (*model.Board, error) {
		return model.NewBoard(current.Size), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("board cleared", slog.Int("size", board.Size))
	return board, nil
}

// EditTile reconfigures one tile. Completions already recorded on it are kept.
func (s *Service) EditTile(ctx context.Context, isAdmin bool, index int, edit model.TileEdit) (*model.Board, error) {
	if !isAdmin {
		return nil, model.ErrPermissionDenied
	}

	items := cleanItems(edit.Items)
	value := edit.Value
	if value <= 0 {
		value = model.DefaultTileValue
	}

	board, err := s.update(ctx, model.EventBoardUpdated, snapshotKeep, func(board *model.Board) (*model.Board, error) {
		tile := board.Tile(index)
		if tile == nil {
			return nil, tileIndexError(board, index)
		}

		tile.Items = items
		tile.Value = value
		tile.DisplayTitle = strings.TrimSpace(edit.DisplayTitle)

		if edit.RequireAll && len(items) > 1 {
			var progress map[string][]string
			if tile.Requirement.IsAllOf() {
				progress = tile.Requirement.Progress
			}
			tile.Requirement = model.AllOf(items, progress)
		} else {
			tile.Requirement = model.AnyOf()
		}
		return board, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tile edited",
		slog.Int("index", index),
		slog.Int("items", len(items)),
		slog.Int("value", value),
		slog.Bool("require_all", edit.RequireAll && len(items) > 1),
	)
	return board, nil
}

// SetLineBonuses replaces the row, column and diagonal bonuses.
// Negative values are clamped to zero.
func (s *Service) SetLineBonuses(ctx context.Context, isAdmin bool, bonuses model.LineBonuses) (*model.Board, error) {
	if !isAdmin {
		return nil, model.ErrPermissionDenied
	}

	return s.update(ctx, model.EventBoardUpdated, snapshotKeep, func(board *model.Board) (*model.Board, error) {
		if len(bonuses.Rows) != board.Size {
			return nil, model.NewValidationError("rows", "expected %d values, got %d", board.Size, len(bonuses.Rows))
		}
		if len(bonuses.Cols) != board.Size {
			return nil, model.NewValidationError("cols", "expected %d values, got %d", board.Size, len(bonuses.Cols))
		}
		if len(bonuses.Diags) != model.DiagonalCount {
			return nil, model.NewValidationError("diags", "expected %d values, got %d", model.DiagonalCount, len(bonuses.Diags))
		}

		board.LineBonuses = model.LineBonuses{
			Rows:  clampNonNegative(bonuses.Rows),
			Cols:  clampNonNegative(bonuses.Cols),
			Diags: clampNonNegative(bonuses.Diags),
		}
		return board, nil
	})
}

// Shuffle reorders the tiles. Each tile keeps its content and completions.
// The previous arrangement is kept as a single-level undo snapshot.
func (s *Service) Shuffle(ctx context.Context, isAdmin bool) (*model.Board, error) {
	if !isAdmin {
		return nil, model.ErrPermissionDenied
	}

	board, err := s.update(ctx, model.EventBoardShuffled, snapshotSave, func(board *model.Board) (*model.Board, error) {
		random.Shuffle(s.random, len(board.Tiles), func(i, j int) {
			board.Tiles[i], board.Tiles[j] = board.Tiles[j], board.Tiles[i]
		})
		return board, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("board shuffled", slog.Int("tiles", len(board.Tiles)))
	return board, nil
}

// UndoShuffle restores the arrangement from before the last shuffle
func (s *Service) UndoShuffle(ctx context.Context, isAdmin bool) (*model.Board, error) {
	if !isAdmin {
		return nil, model.ErrPermissionDenied
	}

	board, err := s.update(ctx, model.EventBoardUpdated, snapshotDrop, func(*model.Board) (*model.Board, error) {
		snapshot, err := s.storage.GetBoardSnapshot(ctx)
		if errors.Is(err, model.ErrSnapshotNotFound) {
			return nil, model.ErrNoUndoSnapshot
		}
		if err != nil {
			return nil, err
		}
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("board shuffle undone")
	return board, nil
}

// Replace stores a whole board document, such as one pushed by a remote store
func (s *Service) Replace(ctx context.Context, isAdmin bool, replacement *model.Board) (*model.Board, error) {
	if !isAdmin {
		return nil, model.ErrPermissionDenied
	}
	if replacement == nil {
		return nil, model.NewValidationError("board", "document is required")
	}

	board, err := s.update(ctx, model.EventBoardUpdated, snapshotDrop, func(*model.Board) (*model.Board, error) {
		return replacement.Clone(), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("board replaced", slog.Int("size", board.Size))
	return board, nil
}

// ApplyDrop credits player with every tile the item satisfies and returns the
// tiles that became complete as a result.
func (s *Service) ApplyDrop(ctx context.Context, player, item string) ([]model.CompletedTile, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return nil, model.NewValidationError("player", "must not be empty")
	}
	if strings.TrimSpace(item) == "" {
		return nil, model.NewValidationError("item", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	board := current.Clone()

	completed := []model.CompletedTile{}
	changed := false
	for i := range board.Tiles {
		tile := &board.Tiles[i]
		if tile.IsCompletedBy(player) {
			continue
		}

		if tile.Requirement.IsAllOf() {
			required, ok := matchRequired(tile.Requirement.Items, item)
			if !ok {
				continue
			}
			changed = true
			if !tile.RecordProgress(player, required) {
				continue
			}
		} else if !matchesAny(tile.Items, item) {
			continue
		}

		if tile.MarkCompleted(player) {
			changed = true
			completed = append(completed, model.CompletedTile{
				Tile:  i + 1,
				Items: append([]string(nil), tile.Items...),
				Value: tile.Value,
			})
		}
	}

	if !changed {
		return completed, nil
	}
	if err := s.save(ctx, board); err != nil {
		return nil, err
	}

	if len(completed) > 0 {
		s.logger.Info("tiles completed",
			slog.String("player", player),
			slog.String("item", item),
			slog.Int("count", len(completed)),
		)
		s.publish(model.EventTileCompleted, map[string]any{
			"player": player,
			"item":   item,
			"tiles":  completed,
		})
	}
	s.publish(model.EventBoardUpdated, board)
	return completed, nil
}

// OverrideCompletion manually adds or removes a player's completion of a tile
func (s *Service) OverrideCompletion(ctx context.Context, isAdmin bool, index int, player string, action model.OverrideAction) (*model.Board, error) {
	if !isAdmin {
		return nil, model.ErrPermissionDenied
	}
	player = strings.TrimSpace(player)
	if player == "" {
		return nil, model.NewValidationError("player", "must not be empty")
	}
	if !action.IsValid() {
		return nil, model.NewValidationError("action", "unknown action %q", action)
	}

	board, err := s.update(ctx, model.EventBoardUpdated, snapshotKeep, func(board *model.Board) (*model.Board, error) {
		tile := board.Tile(index)
		if tile == nil {
			return nil, tileIndexError(board, index)
		}
		if action == model.OverrideAdd {
			tile.MarkCompleted(player)
		} else {
			tile.RemoveCompletion(player)
		}
		return board, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("completion overridden",
		slog.Int("index", index),
		slog.String("player", player),
		slog.String("action", string(action)),
	)
	return board, nil
}

// snapshotPolicy says what happens to the undo snapshot once an update is saved
type snapshotPolicy int

const (
	snapshotKeep snapshotPolicy = iota
	// snapshotSave keeps the board from before the update for undo
	snapshotSave
	// snapshotDrop discards the snapshot after a structural change
	snapshotDrop
)

// update applies fn to a copy of the current board and saves the result if it
// is valid. The undo snapshot is handled under the same lock, and only once
// the board itself has been saved.
func (s *Service) update(ctx context.Context, event model.EventType, policy snapshotPolicy, fn func(*model.Board) (*model.Board, error)) (*model.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}

	switch policy {
	case snapshotSave:
		if err := s.storage.SaveBoardSnapshot(ctx, current); err != nil {
			s.logger.Error("failed to save board snapshot", slog.String("error", err.Error()))
			// Without a snapshot the change could not be undone, so put the board back
			if rbErr := s.storage.SaveBoard(ctx, current); rbErr != nil {
				s.logger.Error("failed to restore board", slog.String("error", rbErr.Error()))
			}
			return nil, err
		}
	case snapshotDrop:
		s.dropSnapshot(ctx)
	}

	s.publish(event, next)
	return next, nil
}

func (s *Service) load(ctx context.Context) (*model.Board, error) {
	board, err := s.storage.GetBoard(ctx)
	if errors.Is(err, model.ErrBoardNotFound) {
		return model.NewBoard(s.opts.DefaultSize), nil
	}
	if err != nil {
		return nil, err
	}
	if err := board.Validate(); err != nil {
		s.logger.Warn("stored board is corrupt", slog.String("error", err.Error()))
		return nil, err
	}
	return board, nil
}

func (s *Service) save(ctx context.Context, board *model.Board) error {
	if err := board.Validate(); err != nil {
		return err
	}
	if err := s.storage.SaveBoard(ctx, board); err != nil {
		s.logger.Error("failed to save board", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// dropSnapshot discards the undo snapshot after a structural change
func (s *Service) dropSnapshot(ctx context.Context) {
	if err := s.storage.DeleteBoardSnapshot(ctx); err != nil {
		s.logger.Warn("failed to delete board snapshot", slog.String("error", err.Error()))
	}
}

func (s *Service) publish(event model.EventType, payload any) {
	s.publisher.Publish(model.TopicBoard, model.Event{
		Type:      event,
		Timestamp: s.clock.Now(),
		Payload:   payload,
	})
}

func tileIndexError(board *model.Board, index int) error {
	return model.NewValidationError("tile", "index %d out of range for %d tiles", index, len(board.Tiles))
}

// Interface for dependency injection
type ServiceInterface interface {
	Get(ctx context.Context) (*model.Board, error)
	Resize(ctx context.Context, isAdmin bool, size int) (*model.Board, error)
	Clear(ctx context.Context, isAdmin bool) (*model.Board, error)
	EditTile(ctx context.Context, isAdmin bool, index int, edit model.TileEdit) (*model.Board, error)
	SetLineBonuses(ctx context.Context, isAdmin bool, bonuses model.LineBonuses) (*model.Board, error)
	Shuffle(ctx context.Context, isAdmin bool) (*model.Board, error)
	UndoShuffle(ctx context.Context, isAdmin bool) (*model.Board, error)
	Replace(ctx context.Context, isAdmin bool, board *model.Board) (*model.Board, error)
	ApplyDrop(ctx context.Context, player, item string) ([]model.CompletedTile, error)
	OverrideCompletion(ctx context.Context, isAdmin bool, index int, player string, action model.OverrideAction) (*model.Board, error)
}

var _ ServiceInterface = (*Service)(nil)

// Admin input helpers. Malformed numbers fall back to defaults instead of failing.

// SplitItems splits free text into one item per line, dropping blank lines
func SplitItems(text string) []string {
	return cleanItems(strings.Split(text, "\n"))
}

// ParseTileValue parses a tile value, returning the default for anything that
// is not a positive integer
func ParseTileValue(text string) int {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v <= 0 {
		return model.DefaultTileValue
	}
	return v
}

// ParseBonus parses a line bonus, returning 0 for anything that is not a
// non-negative integer
func ParseBonus(text string) int {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseBonusList parses a comma separated list of bonuses
func ParseBonusList(text string) []int {
	if strings.TrimSpace(text) == "" {
		return []int{}
	}
	parts := strings.Split(text, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = ParseBonus(p)
	}
	return out
}

func cleanItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func clampNonNegative(values []int) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = max(v, 0)
	}
	return out
}
