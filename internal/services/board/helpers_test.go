package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitItems(t *testing.T) {
	assert.Equal(t, []string{"Abyssal whip", "Abyssal dagger"}, SplitItems("Abyssal whip\r\n\n  Abyssal dagger  \n"))
	assert.Empty(t, SplitItems(" \n "))
}

func TestParseTileValue(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"25", 25},
		{" 7 ", 7},
		{"0", 10},
		{"-3", 10},
		{"lots", 10},
		{"", 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseTileValue(tt.input), tt.input)
	}
}

func TestParseBonus(t *testing.T) {
	assert.Equal(t, 75, ParseBonus("75"))
	assert.Equal(t, 0, ParseBonus("0"))
	assert.Equal(t, 0, ParseBonus("-5"))
	assert.Equal(t, 0, ParseBonus("fifty"))
	assert.Equal(t, []int{50, 0, 20}, ParseBonusList("50, x ,20"))
	assert.Empty(t, ParseBonusList(""))
}

func TestItemMatches(t *testing.T) {
	assert.True(t, ItemMatches("Dragon pickaxe", "dragon pickaxe"))
	assert.True(t, ItemMatches("Dragon pickaxe (or)", "Dragon pickaxe"))
	assert.True(t, ItemMatches("Vorkath's head", "vorkath's head (50)"))
	assert.False(t, ItemMatches("Dragon pickaxe", "Rune pickaxe"))
	assert.False(t, ItemMatches("", "Rune pickaxe"))
	assert.False(t, ItemMatches("Rune pickaxe", "  "))
}

func TestMatchRequiredPrefersExact(t *testing.T) {
	req, ok := matchRequired([]string{"Dragon", "Dragon bones"}, "dragon bones")
	assert.True(t, ok)
	assert.Equal(t, "Dragon bones", req)

	_, ok = matchRequired([]string{"Head", "Body"}, "Legs")
	assert.False(t, ok)
}
