package model

import (
	"strings"
	"time"
)

// DeathRecord is one player death
type DeathRecord struct {
	ID        string    `json:"id"`
	Player    string    `json:"player"`
	NPC       string    `json:"npc"`
	Timestamp time.Time `json:"timestamp"`
}

// PlayerDeathStats summarizes deaths for one player
type PlayerDeathStats struct {
	Player    string    `json:"player"`
	Deaths    int       `json:"deaths"`
	LastDeath time.Time `json:"last_death"`
	LastNPC   string    `json:"last_npc"`
}

// DeathStats is the overall death summary
type DeathStats struct {
	TotalDeaths int                `json:"total_deaths"`
	PlayerStats []PlayerDeathStats `json:"player_stats"`
}

// NPCDeathStats summarizes deaths caused by one NPC
type NPCDeathStats struct {
	NPC           string    `json:"npc"`
	Deaths        int       `json:"deaths"`
	UniquePlayers int       `json:"unique_players"`
	Players       []string  `json:"players"`
	LastVictim    string    `json:"last_victim"`
	LastDeathTime time.Time `json:"last_death_time"`
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
