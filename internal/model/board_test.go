package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoardDefaults(t *testing.T) {
	b := NewBoard(3)

	require.Len(t, b.Tiles, 9)
	for _, tile := range b.Tiles {
		assert.Empty(t, tile.Items)
		assert.Equal(t, DefaultTileValue, tile.Value)
		assert.Empty(t, tile.CompletedBy)
		assert.Equal(t, RequireAny, tile.Requirement.Kind)
	}
	assert.Equal(t, []int{50, 50, 50}, b.LineBonuses.Rows)
	assert.Equal(t, []int{50, 50, 50}, b.LineBonuses.Cols)
	assert.Equal(t, []int{100, 100}, b.LineBonuses.Diags)
	assert.NoError(t, b.Validate())
}

func TestNewBoardPanicsOnInvalidSize(t *testing.T) {
	assert.Panics(t, func() { NewBoard(0) })
}

func TestValidateDetectsTileCountMismatch(t *testing.T) {
	b := NewBoard(2)
	b.Tiles = b.Tiles[:3]

	assert.ErrorIs(t, b.Validate(), ErrCorruptBoard)
}

func TestValidateRejectsNonPositiveTileValue(t *testing.T) {
	b := NewBoard(2)
	b.Tiles[1].Value = 0
	assert.ErrorIs(t, b.Validate(), ErrCorruptBoard)

	b.Tiles[1].Value = -5
	assert.ErrorIs(t, b.Validate(), ErrCorruptBoard)
}

func TestUnmarshalNonPositiveTileValueFallsBackToDefault(t *testing.T) {
	var b Board
	doc := `{"boardSize":1,"tiles":[{"items":["Bones"],"value":0}]}`
	require.NoError(t, json.Unmarshal([]byte(doc), &b))
	assert.Equal(t, DefaultTileValue, b.Tiles[0].Value)

	var negative Board
	doc = `{"boardSize":1,"tiles":[{"items":["Bones"],"value":-20}]}`
	require.NoError(t, json.Unmarshal([]byte(doc), &negative))
	assert.Equal(t, DefaultTileValue, negative.Tiles[0].Value)
	assert.NoError(t, negative.Validate())
}

func TestValidateDetectsBonusMismatch(t *testing.T) {
	b := NewBoard(2)
	b.LineBonuses.Diags = []int{100}

	assert.ErrorIs(t, b.Validate(), ErrCorruptBoard)
}

func TestUnmarshalAppliesDefaults(t *testing.T) {
	doc := `{"tiles":[` + repeatTile(25) + `]}`

	var b Board
	require.NoError(t, json.Unmarshal([]byte(doc), &b))

	assert.Equal(t, 5, b.Size)
	assert.Equal(t, DefaultLineBonuses(5), b.LineBonuses)
	assert.Equal(t, "", b.Tiles[0].DisplayTitle)
	assert.NoError(t, b.Validate())
}

func TestUnmarshalRequireAllTile(t *testing.T) {
	doc := `{"items":["Head","Body"],"value":30,"completedBy":["alice","alice"],
		"requiredItems":["Head","Body"],"itemProgress":{"bob":["Head"]}}`

	var tile Tile
	require.NoError(t, json.Unmarshal([]byte(doc), &tile))

	assert.True(t, tile.Requirement.IsAllOf())
	assert.Equal(t, []string{"Head", "Body"}, tile.Requirement.Items)
	assert.Equal(t, []string{"Head"}, tile.Requirement.Progress["bob"])
	assert.Equal(t, []string{"alice"}, tile.CompletedBy)
}

func TestUnmarshalSingleRequiredItemIsAnyOf(t *testing.T) {
	doc := `{"items":["Head"],"value":30,"completedBy":[],"requiredItems":["Head"]}`

	var tile Tile
	require.NoError(t, json.Unmarshal([]byte(doc), &tile))

	assert.False(t, tile.Requirement.IsAllOf())
}

func TestMarshalOmitsRequirementFieldsForSingleTiles(t *testing.T) {
	tile := NewTile()
	tile.Items = []string{"Twisted bow"}

	data, err := json.Marshal(tile)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "requiredItems")
	assert.NotContains(t, raw, "itemProgress")
	assert.Contains(t, raw, "displayTitle")
}

func TestBoardDocumentRoundTrip(t *testing.T) {
	b := NewBoard(2)
	b.Tiles[0].Items = []string{"Abyssal whip"}
	b.Tiles[0].MarkCompleted("alice")
	b.Tiles[1].Items = []string{"Helm", "Legs"}
	b.Tiles[1].Requirement = AllOf([]string{"Helm", "Legs"}, nil)
	b.Tiles[1].RecordProgress("bob", "Helm")
	b.LineBonuses.Rows = []int{10, 20}

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded Board
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, b.Size, decoded.Size)
	assert.Equal(t, b.LineBonuses, decoded.LineBonuses)
	assert.Equal(t, b.Tiles, decoded.Tiles)
}

func TestCloneIsDeep(t *testing.T) {
	b := NewBoard(2)
	b.Tiles[0].MarkCompleted("alice")

	clone := b.Clone()
	clone.Tiles[0].MarkCompleted("bob")
	clone.LineBonuses.Rows[0] = 999

	assert.Equal(t, []string{"alice"}, b.Tiles[0].CompletedBy)
	assert.Equal(t, 50, b.LineBonuses.Rows[0])
}

func TestPlayersInDiscoveryOrder(t *testing.T) {
	b := NewBoard(2)
	b.Tiles[0].MarkCompleted("carol")
	b.Tiles[1].MarkCompleted("alice")
	b.Tiles[1].MarkCompleted("carol")
	b.Tiles[3].MarkCompleted("bob")

	assert.Equal(t, []string{"carol", "alice", "bob"}, b.Players())
}

func TestRecordProgressCompletesWhenAllCollected(t *testing.T) {
	tile := NewTile()
	tile.Items = []string{"Head", "Body", "Legs"}
	tile.Requirement = AllOf(tile.Items, nil)

	assert.False(t, tile.RecordProgress("alice", "Head"))
	assert.False(t, tile.RecordProgress("alice", "head"))
	assert.False(t, tile.RecordProgress("alice", "Body"))
	assert.True(t, tile.RecordProgress("alice", "Legs"))
	assert.Len(t, tile.Requirement.Progress["alice"], 3)
}

func TestRemoveCompletionClearsProgress(t *testing.T) {
	tile := NewTile()
	tile.Requirement = AllOf([]string{"A", "B"}, nil)
	tile.RecordProgress("alice", "A")
	tile.MarkCompleted("alice")

	assert.True(t, tile.RemoveCompletion("alice"))
	assert.False(t, tile.IsCompletedBy("alice"))
	assert.NotContains(t, tile.Requirement.Progress, "alice")
	assert.False(t, tile.RemoveCompletion("alice"))
}

func TestEmptyPlayerNeverCompletes(t *testing.T) {
	tile := NewTile()
	tile.CompletedBy = []string{""}

	assert.False(t, tile.IsCompletedBy(""))
}

func repeatTile(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += `{"items":[],"value":10,"completedBy":[]}`
	}
	return out
}
