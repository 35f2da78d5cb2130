package history

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/osrsbingo/internal/model"
)

// DefaultNPCLimit is how many NPCs DeathsByNPC returns when no limit is given
const DefaultNPCLimit = 50

// DeathInput is a death reported by a plugin
type DeathInput struct {
	Player    string
	NPC       string
	Timestamp time.Time // zero means now
}

// RecordDeath stores a player death
func (s *Service) RecordDeath(ctx context.Context, input DeathInput) (*model.DeathRecord, error) {
	player := strings.TrimSpace(input.Player)
	if player == "" {
		return nil, model.NewValidationError("player", "must not be empty")
	}
	ts := input.Timestamp
	if ts.IsZero() {
		ts = s.clock.Now()
	}

	death := &model.DeathRecord{
		ID:        uuid.NewString(),
		Player:    player,
		NPC:       strings.TrimSpace(input.NPC),
		Timestamp: ts.UTC(),
	}
	if err := s.storage.SaveDeath(ctx, death); err != nil {
		return nil, err
	}

	s.logger.Info("death recorded",
		slog.String("player", death.Player),
		slog.String("npc", death.NPC),
	)
	s.publish(model.TopicDeaths, model.EventDeathRecorded, death)
	return death, nil
}

// DeathStats counts deaths per player, most deaths first
func (s *Service) DeathStats(ctx context.Context) (*model.DeathStats, error) {
	deaths, err := s.storage.ListDeaths(ctx)
	if err != nil {
		return nil, err
	}

	byPlayer := make(map[string]*model.PlayerDeathStats)
	// deaths are newest first, so the first one seen per player is their latest
	for _, d := range deaths {
		stats, ok := byPlayer[d.Player]
		if !ok {
			stats = &model.PlayerDeathStats{
				Player:    d.Player,
				LastDeath: d.Timestamp,
				LastNPC:   d.NPC,
			}
			byPlayer[d.Player] = stats
		}
		stats.Deaths++
	}

	result := &model.DeathStats{
		TotalDeaths: len(deaths),
		PlayerStats: make([]model.PlayerDeathStats, 0, len(byPlayer)),
	}
	for _, stats := range byPlayer {
		result.PlayerStats = append(result.PlayerStats, *stats)
	}
	sort.Slice(result.PlayerStats, func(i, j int) bool {
		a, b := result.PlayerStats[i], result.PlayerStats[j]
		if a.Deaths != b.Deaths {
			return a.Deaths > b.Deaths
		}
		return a.Player < b.Player
	})
	return result, nil
}

// DeathsByNPC groups deaths by the NPC that caused them, deadliest first.
// Deaths without an NPC are left out.
func (s *Service) DeathsByNPC(ctx context.Context, limit int) ([]model.NPCDeathStats, error) {
	if limit <= 0 {
		limit = DefaultNPCLimit
	}

	deaths, err := s.storage.ListDeaths(ctx)
	if err != nil {
		return nil, err
	}

	byNPC := make(map[string]*model.NPCDeathStats)
	for _, d := range deaths {
		if d.NPC == "" {
			continue
		}
		stats, ok := byNPC[d.NPC]
		if !ok {
			stats = &model.NPCDeathStats{
				NPC:           d.NPC,
				Players:       []string{},
				LastVictim:    d.Player,
				LastDeathTime: d.Timestamp,
			}
			byNPC[d.NPC] = stats
		}
		stats.Deaths++
		if !slices.Contains(stats.Players, d.Player) {
			stats.Players = append(stats.Players, d.Player)
		}
	}

	result := make([]model.NPCDeathStats, 0, len(byNPC))
	for _, stats := range byNPC {
		stats.UniquePlayers = len(stats.Players)
		result = append(result, *stats)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Deaths != result[j].Deaths {
			return result[i].Deaths > result[j].Deaths
		}
		return result[i].NPC < result[j].NPC
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeathsByPlayerNPC counts deaths per player per NPC. Deaths without an NPC
// are left out.
func (s *Service) DeathsByPlayerNPC(ctx context.Context) (map[string]map[string]int, error) {
	deaths, err := s.storage.ListDeaths(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]map[string]int)
	for _, d := range deaths {
		if d.NPC == "" {
			continue
		}
		if result[d.Player] == nil {
			result[d.Player] = make(map[string]int)
		}
		result[d.Player][d.NPC]++
	}
	return result, nil
}
