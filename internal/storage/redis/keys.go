package redis

import (
	"fmt"
	"strings"
)

// Key prefix for all bingo data
const keyPrefix = "osrsbingo"

// boardKey returns the Redis key for the board document
func boardKey() string {
	return fmt.Sprintf("%s:board", keyPrefix)
}

// boardSnapshotKey returns the Redis key for the shuffle undo snapshot
func boardSnapshotKey() string {
	return fmt.Sprintf("%s:board:snapshot", keyPrefix)
}

// dropKey returns the Redis key for a drop record
func dropKey(id string) string {
	return fmt.Sprintf("%s:drop:%s", keyPrefix, id)
}

// dropsIndexKey returns the Redis key for the ZSET of all drops by timestamp
func dropsIndexKey() string {
	return fmt.Sprintf("%s:idx:drops", keyPrefix)
}

// playerDropsIndexKey returns the Redis key for the ZSET of a player's drops.
// Player names are case-insensitive.
func playerDropsIndexKey(player string) string {
	return fmt.Sprintf("%s:idx:drops_by_player:%s", keyPrefix, strings.ToLower(player))
}

// deathKey returns the Redis key for a death record
func deathKey(id string) string {
	return fmt.Sprintf("%s:death:%s", keyPrefix, id)
}

// deathsIndexKey returns the Redis key for the ZSET of deaths by timestamp
func deathsIndexKey() string {
	return fmt.Sprintf("%s:idx:deaths", keyPrefix)
}

// rankKey returns the Redis key for a rank snapshot
func rankKey(id string) string {
	return fmt.Sprintf("%s:rank:%s", keyPrefix, id)
}

// rankIndexKey returns the Redis key for the ZSET of rank snapshots by timestamp
func rankIndexKey() string {
	return fmt.Sprintf("%s:idx:rank", keyPrefix)
}
