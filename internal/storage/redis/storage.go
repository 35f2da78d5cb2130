package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks that Redis is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Board operations

func (s *Storage) GetBoard(ctx context.Context) (*model.Board, error) {
	return s.getBoard(ctx, boardKey(), model.ErrBoardNotFound)
}

func (s *Storage) SaveBoard(ctx context.Context, board *model.Board) error {
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, boardKey(), data, 0).Err()
}

func (s *Storage) GetBoardSnapshot(ctx context.Context) (*model.Board, error) {
	return s.getBoard(ctx, boardSnapshotKey(), model.ErrSnapshotNotFound)
}

func (s *Storage) SaveBoardSnapshot(ctx context.Context, board *model.Board) error {
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, boardSnapshotKey(), data, s.cfg.SnapshotTTL).Err()
}

func (s *Storage) DeleteBoardSnapshot(ctx context.Context) error {
	return s.client.Del(ctx, boardSnapshotKey()).Err()
}

func (s *Storage) getBoard(ctx context.Context, key string, notFound error) (*model.Board, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, err
	}

	var board model.Board
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// Drop operations

func (s *Storage) SaveDrop(ctx context.Context, drop *model.DropRecord) error {
	data, err := json.Marshal(drop)
	if err != nil {
		return err
	}

	score := float64(drop.Timestamp.UnixMilli())

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, dropKey(drop.ID), data, s.cfg.HistoryTTL)
	pipe.ZAdd(ctx, dropsIndexKey(), redis.Z{Score: score, Member: drop.ID})
	pipe.ZAdd(ctx, playerDropsIndexKey(drop.Player), redis.Z{Score: score, Member: drop.ID})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) FindDrop(ctx context.Context, player, item string, from, to time.Time) (*model.DropRecord, error) {
	ids, err := s.client.ZRangeByScore(ctx, playerDropsIndexKey(player), &redis.ZRangeBy{
		Min: msBound(from, "-inf"),
		Max: msBound(to, "+inf"),
	}).Result()
	if err != nil {
		return nil, err
	}

	drops, err := s.loadDrops(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range drops {
		if d.Player == player && d.Item == item {
			return d, nil
		}
	}
	return nil, model.ErrDropNotFound
}

func (s *Storage) ListDrops(ctx context.Context, query model.DropQuery) ([]*model.DropRecord, error) {
	index := dropsIndexKey()
	if query.Player != "" {
		index = playerDropsIndexKey(query.Player)
	}

	rangeBy := &redis.ZRangeBy{
		Min: msBound(query.Start, "-inf"),
		Max: msBound(query.End, "+inf"),
	}
	// Item filtering happens after load, so only push the limit down without it
	if query.Item == "" && query.Limit > 0 {
		rangeBy.Count = int64(query.Limit)
	}

	ids, err := s.client.ZRevRangeByScore(ctx, index, rangeBy).Result()
	if err != nil {
		return nil, err
	}

	drops, err := s.loadDrops(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*model.DropRecord, 0, len(drops))
	for _, d := range drops {
		if !query.Matches(d) {
			continue
		}
		result = append(result, d)
		if query.Limit > 0 && len(result) == query.Limit {
			break
		}
	}
	return result, nil
}

func (s *Storage) DeleteDrops(ctx context.Context, player, item string, ts time.Time) (int, error) {
	ms := strconv.FormatInt(ts.UnixMilli(), 10)
	ids, err := s.client.ZRangeByScore(ctx, playerDropsIndexKey(player), &redis.ZRangeBy{Min: ms, Max: ms}).Result()
	if err != nil {
		return 0, err
	}

	drops, err := s.loadDrops(ctx, ids)
	if err != nil {
		return 0, err
	}

	pipe := s.client.TxPipeline()
	removed := 0
	for _, d := range drops {
		if d.Player != player || d.Item != item || !d.Timestamp.Equal(ts) {
			continue
		}
		pipe.Del(ctx, dropKey(d.ID))
		pipe.ZRem(ctx, dropsIndexKey(), d.ID)
		pipe.ZRem(ctx, playerDropsIndexKey(d.Player), d.ID)
		removed++
	}
	if removed == 0 {
		return 0, nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return removed, nil
}

// loadDrops fetches drop records by ID, preserving order and skipping expired entries
func (s *Storage) loadDrops(ctx context.Context, ids []string) ([]*model.DropRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = dropKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	drops := make([]*model.DropRecord, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var d model.DropRecord
		if err := json.Unmarshal([]byte(str), &d); err != nil {
			return nil, err
		}
		drops = append(drops, &d)
	}
	return drops, nil
}

// Death operations

func (s *Storage) SaveDeath(ctx context.Context, death *model.DeathRecord) error {
	data, err := json.Marshal(death)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, deathKey(death.ID), data, s.cfg.HistoryTTL)
	pipe.ZAdd(ctx, deathsIndexKey(), redis.Z{Score: float64(death.Timestamp.UnixMilli()), Member: death.ID})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListDeaths(ctx context.Context) ([]*model.DeathRecord, error) {
	ids, err := s.client.ZRevRange(ctx, deathsIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.DeathRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = deathKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	deaths := make([]*model.DeathRecord, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var d model.DeathRecord
		if err := json.Unmarshal([]byte(str), &d); err != nil {
			return nil, err
		}
		deaths = append(deaths, &d)
	}
	return deaths, nil
}

// Rank snapshot operations

func (s *Storage) SaveRankSnapshot(ctx context.Context, snapshot *model.RankSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, rankKey(snapshot.ID), data, 0)
	pipe.ZAdd(ctx, rankIndexKey(), redis.Z{Score: float64(snapshot.Timestamp.UnixMilli()), Member: snapshot.ID})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListRankSnapshots(ctx context.Context, limit int) ([]*model.RankSnapshot, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, rankIndexKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.RankSnapshot{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = rankKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	snapshots := make([]*model.RankSnapshot, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var r model.RankSnapshot
		if err := json.Unmarshal([]byte(str), &r); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &r)
	}
	return snapshots, nil
}

// msBound formats a time as a ZSET score bound, or returns open when t is zero
func msBound(t time.Time, open string) string {
	if t.IsZero() {
		return open
	}
	return strconv.FormatInt(t.UnixMilli(), 10)
}
