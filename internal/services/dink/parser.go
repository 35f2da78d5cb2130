// Package dink parses loot notifications posted by the Dink RuneLite plugin
// as Discord webhook payloads.
package dink

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Embed is the subset of a Discord embed that Dink fills in
type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Author      *Author `json:"author,omitempty"`
	Fields      []Field `json:"fields"`
}

// Author is the embed author block; Dink puts the player name here
type Author struct {
	Name string `json:"name"`
}

// Field is one embed field
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Payload is a Discord webhook body
type Payload struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds"`
}

// LootItem is one "N x Item (value)" line. Value is the stack value, 0 when unknown.
type LootItem struct {
	Quantity int
	Name     string
	Value    float64
}

// Loot is a parsed loot notification
type Loot struct {
	Player     string
	Source     string
	KillCount  int
	TotalValue float64
	Rarity     string
	Items      []LootItem
}

var (
	linkedItemPattern  = regexp.MustCompile(`(\d+)\s*x\s*\[(.+?)\]\(([^)]*)\)\s*\(([^)]+)\)`)
	bracketItemPattern = regexp.MustCompile(`(\d+)\s*x\s*\[(.+?)\]\s*\(([^)]*)\)`)
	plainItemPattern   = regexp.MustCompile(`(\d+)\s*x\s*(.+?)\s*\((.+?)\)`)
	lootedPattern      = regexp.MustCompile(`(?im)^[ \t]*(.+?)\s+has looted`)
	markdownLink       = regexp.MustCompile(`\[(.+?)\]\(.+?\)`)
)

// ParseValue converts value text such as "1.2B", "2.95M", "150K" or "1,234 GP" to a
// number. URLs and unparseable text yield 0.
func ParseValue(text string) float64 {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(s), "http") {
		return 0
	}

	s = strings.ReplaceAll(s, "`", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "LDIF", "")
	s = strings.ReplaceAll(s, "GP", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.Contains(s, "B"):
		multiplier = 1_000_000_000
		s = strings.ReplaceAll(s, "B", "")
	case strings.Contains(s, "M"):
		multiplier = 1_000_000
		s = strings.ReplaceAll(s, "M", "")
	case strings.Contains(s, "K"):
		multiplier = 1_000
		s = strings.ReplaceAll(s, "K", "")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v * multiplier
}

// ParseItemLine parses "1 x [Item Name](wiki url) (2.95M)" or the older
// "1 x Item Name (2.95M)". A linked name with no trailing value leaves the
// value unknown.
func ParseItemLine(line string) (LootItem, bool) {
	var m []string
	if linked := linkedItemPattern.FindStringSubmatch(line); linked != nil {
		// Drop the link URL so the stack value sits in the value group
		m = []string{linked[0], linked[1], linked[2], linked[4]}
	} else if m = bracketItemPattern.FindStringSubmatch(line); m == nil {
		m = plainItemPattern.FindStringSubmatch(line)
	}
	if m == nil {
		return LootItem{}, false
	}

	qty, err := strconv.Atoi(m[1])
	if err != nil {
		return LootItem{}, false
	}
	name := strings.TrimSpace(m[2])
	if name == "" {
		return LootItem{}, false
	}

	return LootItem{
		Quantity: qty,
		Name:     name,
		Value:    ParseValue(m[3]),
	}, true
}

// ParseEmbed extracts a loot notification from an embed. Embeds that are
// not loot notifications, or that name no player, are rejected.
func ParseEmbed(embed Embed) (*Loot, bool) {
	description := stripHeadings(embed.Description)
	if !strings.Contains(strings.ToLower(description), "has looted") {
		return nil, false
	}

	loot := &Loot{Items: []LootItem{}}
	if m := lootedPattern.FindStringSubmatch(description); m != nil {
		loot.Player = stripLinks(strings.TrimSpace(m[1]))
	}
	if loot.Player == "" && embed.Author != nil {
		loot.Player = strings.TrimSpace(embed.Author.Name)
	}
	if loot.Player == "" {
		return nil, false
	}

	for _, f := range embed.Fields {
		name := strings.TrimSpace(f.Name)
		value := strings.TrimSpace(f.Value)

		if looksLikeItem(value) {
			if item, ok := ParseItemLine(value); ok {
				loot.Items = append(loot.Items, item)
			}
		}

		switch {
		case strings.HasPrefix(value, "From:"):
			loot.Source = stripLinks(strings.TrimSpace(strings.TrimPrefix(value, "From:")))
		case strings.Contains(name, "Kill Count"):
			if kc, err := strconv.Atoi(strings.ReplaceAll(strings.Trim(value, "`\n "), ",", "")); err == nil {
				loot.KillCount = kc
			}
		case strings.Contains(name, "Total Value"):
			loot.TotalValue = ParseValue(value)
		case strings.Contains(name, "Item Rarity"):
			loot.Rarity = strings.Trim(value, "`\n ")
		case strings.Contains(name, "From") || strings.Contains(name, "Source"):
			loot.Source = stripLinks(value)
		}
	}

	// Items only come from the description when no field carried them
	itemsFromFields := len(loot.Items) > 0
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "From:") && loot.Source == "" {
			loot.Source = stripLinks(strings.TrimSpace(strings.TrimPrefix(line, "From:")))
			continue
		}
		if itemsFromFields || !looksLikeItem(line) {
			continue
		}
		if item, ok := ParseItemLine(line); ok {
			loot.Items = append(loot.Items, item)
		}
	}

	return loot, true
}

// ParsePayload decodes a Discord webhook body and returns every loot
// notification in it
func ParsePayload(data []byte) ([]Loot, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	loots := []Loot{}
	for _, embed := range payload.Embeds {
		if loot, ok := ParseEmbed(embed); ok {
			loots = append(loots, *loot)
		}
	}
	return loots, nil
}

// ValuedItems returns the items with their values filled in. When no item
// line carried a value the total value is split evenly across the items.
func (l *Loot) ValuedItems() []LootItem {
	items := append([]LootItem(nil), l.Items...)
	if len(items) == 0 || l.TotalValue <= 0 {
		return items
	}
	for _, it := range items {
		if it.Value > 0 {
			return items
		}
	}
	share := l.TotalValue / float64(len(items))
	for i := range items {
		items[i].Value = share
	}
	return items
}

func looksLikeItem(s string) bool {
	if strings.HasPrefix(s, "From:") {
		return false
	}
	return strings.Contains(s, "x") && (strings.Contains(s, "(") || strings.Contains(s, "["))
}

func stripHeadings(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(strings.TrimSpace(line), "### ")
	}
	return strings.Join(lines, "\n")
}

func stripLinks(s string) string {
	s = markdownLink.ReplaceAllString(s, "$1")
	return strings.Trim(s, "*_` ")
}
