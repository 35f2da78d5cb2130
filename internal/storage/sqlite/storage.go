package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/storage"
)

const (
	boardCurrent  = "current"
	boardSnapshot = "snapshot"
)

// Storage persists bingo state in a SQLite database
type Storage struct {
	db *sql.DB
}

// New opens (and migrates) the database described by cfg
func New(cfg Config) (*Storage, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks that the database is usable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Board operations

func (s *Storage) GetBoard(ctx context.Context) (*model.Board, error) {
	return s.getBoard(ctx, boardCurrent, model.ErrBoardNotFound)
}

func (s *Storage) SaveBoard(ctx context.Context, board *model.Board) error {
	return s.saveBoard(ctx, boardCurrent, board)
}

func (s *Storage) GetBoardSnapshot(ctx context.Context) (*model.Board, error) {
	return s.getBoard(ctx, boardSnapshot, model.ErrSnapshotNotFound)
}

func (s *Storage) SaveBoardSnapshot(ctx context.Context, board *model.Board) error {
	return s.saveBoard(ctx, boardSnapshot, board)
}

func (s *Storage) DeleteBoardSnapshot(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM board_state WHERE name = ?`, boardSnapshot)
	return err
}

func (s *Storage) getBoard(ctx context.Context, name string, notFound error) (*model.Board, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM board_state WHERE name = ?`, name).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}

	var board model.Board
	if err := json.Unmarshal([]byte(doc), &board); err != nil {
		return nil, fmt.Errorf("decode board %q: %w", name, err)
	}
	return &board, nil
}

func (s *Storage) saveBoard(ctx context.Context, name string, board *model.Board) error {
	data, err := json.Marshal(board)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO board_state (name, document, updated_at_ms) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at_ms = excluded.updated_at_ms`,
		name, string(data), time.Now().UnixMilli())
	return err
}

// Drop operations

const dropColumns = `id, player, item, value, quantity, drop_type, source, npc, timestamp_ms, tile_completed, tiles_info`

func (s *Storage) SaveDrop(ctx context.Context, drop *model.DropRecord) error {
	tilesInfo, err := json.Marshal(drop.TilesInfo)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO drops (`+dropColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		drop.ID, drop.Player, drop.Item, drop.Value, drop.Quantity, drop.DropType, drop.Source, drop.NPC,
		drop.Timestamp.UnixMilli(), drop.TileCompleted, string(tilesInfo))
	return err
}

func (s *Storage) FindDrop(ctx context.Context, player, item string, from, to time.Time) (*model.DropRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+dropColumns+` FROM drops
		WHERE player = ? AND item = ? AND timestamp_ms BETWEEN ? AND ?
		ORDER BY timestamp_ms LIMIT 1`,
		player, item, from.UnixMilli(), to.UnixMilli())

	drop, err := scanDrop(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrDropNotFound
		}
		return nil, err
	}
	return drop, nil
}

func (s *Storage) ListDrops(ctx context.Context, query model.DropQuery) ([]*model.DropRecord, error) {
	var (
		where []string
		args  []any
	)
	if query.Player != "" {
		where = append(where, "player = ? COLLATE NOCASE")
		args = append(args, strings.TrimSpace(query.Player))
	}
	if query.Item != "" {
		where = append(where, "item = ? COLLATE NOCASE")
		args = append(args, strings.TrimSpace(query.Item))
	}
	if !query.Start.IsZero() {
		where = append(where, "timestamp_ms >= ?")
		args = append(args, query.Start.UnixMilli())
	}
	if !query.End.IsZero() {
		where = append(where, "timestamp_ms <= ?")
		args = append(args, query.End.UnixMilli())
	}

	q := `SELECT ` + dropColumns + ` FROM drops`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY timestamp_ms DESC`
	if query.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	drops := []*model.DropRecord{}
	for rows.Next() {
		drop, err := scanDrop(rows)
		if err != nil {
			return nil, err
		}
		drops = append(drops, drop)
	}
	return drops, rows.Err()
}

func (s *Storage) DeleteDrops(ctx context.Context, player, item string, ts time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drops WHERE player = ? AND item = ? AND timestamp_ms = ?`,
		player, item, ts.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDrop(row scanner) (*model.DropRecord, error) {
	var (
		d         model.DropRecord
		tsMs      int64
		tilesInfo string
	)
	if err := row.Scan(&d.ID, &d.Player, &d.Item, &d.Value, &d.Quantity, &d.DropType, &d.Source, &d.NPC,
		&tsMs, &d.TileCompleted, &tilesInfo); err != nil {
		return nil, err
	}
	d.Timestamp = time.UnixMilli(tsMs).UTC()
	if tilesInfo != "" && tilesInfo != "null" {
		if err := json.Unmarshal([]byte(tilesInfo), &d.TilesInfo); err != nil {
			return nil, fmt.Errorf("decode tiles info for drop %s: %w", d.ID, err)
		}
	}
	return &d, nil
}

// Death operations

func (s *Storage) SaveDeath(ctx context.Context, death *model.DeathRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO deaths (id, player, npc, timestamp_ms) VALUES (?, ?, ?, ?)`,
		death.ID, death.Player, death.NPC, death.Timestamp.UnixMilli())
	return err
}

func (s *Storage) ListDeaths(ctx context.Context) ([]*model.DeathRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, player, npc, timestamp_ms FROM deaths ORDER BY timestamp_ms DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	deaths := []*model.DeathRecord{}
	for rows.Next() {
		var (
			d    model.DeathRecord
			tsMs int64
		)
		if err := rows.Scan(&d.ID, &d.Player, &d.NPC, &tsMs); err != nil {
			return nil, err
		}
		d.Timestamp = time.UnixMilli(tsMs).UTC()
		deaths = append(deaths, &d)
	}
	return deaths, rows.Err()
}

// Rank snapshot operations

func (s *Storage) SaveRankSnapshot(ctx context.Context, snapshot *model.RankSnapshot) error {
	var prestige sql.NullInt64
	if snapshot.PrestigeRank != nil {
		prestige = sql.NullInt64{Int64: int64(*snapshot.PrestigeRank), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO rank_snapshots
		(id, group_rank, prestige_rank, total_xp, rank_change, xp_change, timestamp_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID, snapshot.Rank, prestige, snapshot.TotalXP, snapshot.RankChange, snapshot.XPChange,
		snapshot.Timestamp.UnixMilli())
	return err
}

func (s *Storage) ListRankSnapshots(ctx context.Context, limit int) ([]*model.RankSnapshot, error) {
	q := `SELECT id, group_rank, prestige_rank, total_xp, rank_change, xp_change, timestamp_ms
		FROM rank_snapshots ORDER BY timestamp_ms DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	snapshots := []*model.RankSnapshot{}
	for rows.Next() {
		var (
			r        model.RankSnapshot
			prestige sql.NullInt64
			tsMs     int64
		)
		if err := rows.Scan(&r.ID, &r.Rank, &prestige, &r.TotalXP, &r.RankChange, &r.XPChange, &tsMs); err != nil {
			return nil, err
		}
		if prestige.Valid {
			p := int(prestige.Int64)
			r.PrestigeRank = &p
		}
		r.Timestamp = time.UnixMilli(tsMs).UTC()
		snapshots = append(snapshots, &r)
	}
	return snapshots, rows.Err()
}
