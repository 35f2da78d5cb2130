package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcoot/osrsbingo/internal/api/response"
	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/services/valuefilter"
)

const timeFormat = "2006-01-02 15:04:05"

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *model.Board:
		o.printBoard(v)
	case response.Leaderboard:
		o.printLeaderboard(v)
	case model.PlayerScore:
		o.printPlayerScore(v)
	case response.History:
		o.printHistory(v)
	case response.DropResult:
		o.printDropResult(v)
	case *model.DeathStats:
		o.printDeathStats(v)
	case []model.NPCDeathStats:
		o.printNPCDeaths(v)
	case *model.RankSnapshot:
		o.printRank(v)
	case response.RankHistory:
		for _, s := range v.Snapshots {
			o.printRank(s)
		}
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		if v.Storage != "" {
			fmt.Fprintf(o.w, "Storage: %s\n", v.Storage)
		}
	case response.WebhookInfo:
		fmt.Fprintf(o.w, "Dink URL:  %s\n", v.DinkURL)
		fmt.Fprintf(o.w, "Drops URL: %s\n", v.DropsURL)
		fmt.Fprintf(o.w, "Key needed: %t\n", v.KeyNeeded)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printBoard(b *model.Board) {
	fmt.Fprintf(o.w, "Board: %dx%d\n", b.Size, b.Size)

	for i := range b.Tiles {
		t := &b.Tiles[i]
		row, col := i/b.Size, i%b.Size

		title := t.Title()
		if title == "" {
			title = "(empty)"
		}
		kind := ""
		if t.Requirement.IsAllOf() {
			kind = " [all]"
		}
		fmt.Fprintf(o.w, "%3d (%d,%d) %-30s %3d pts%s", i, row, col, title, t.Value, kind)
		if len(t.CompletedBy) > 0 {
			fmt.Fprintf(o.w, "  done: %s", strings.Join(t.CompletedBy, ", "))
		}
		fmt.Fprintln(o.w)
	}

	fmt.Fprintf(o.w, "Row bonuses: %v\n", b.LineBonuses.Rows)
	fmt.Fprintf(o.w, "Col bonuses: %v\n", b.LineBonuses.Cols)
	fmt.Fprintf(o.w, "Diagonal bonuses: %v\n", b.LineBonuses.Diags)
}

func (o *Output) printLeaderboard(l response.Leaderboard) {
	if len(l.Players) == 0 {
		fmt.Fprintln(o.w, "No completions yet")
		return
	}

	for i, s := range l.Players {
		marker := ""
		if s.Player == l.Leader {
			marker = " *"
		}
		fmt.Fprintf(o.w, "%2d. %-20s %5d pts (%d tiles, %d base, %d bonus, %d lines)%s\n",
			i+1, s.Player, s.TotalPoints, s.TilesCompleted, s.BasePoints, s.LineBonusPoints, s.Lines.Count(), marker)
	}
	if l.Leader == "" {
		fmt.Fprintln(o.w, "No single leader")
	}
}

func (o *Output) printPlayerScore(s model.PlayerScore) {
	fmt.Fprintf(o.w, "Player: %s\n", s.Player)
	fmt.Fprintf(o.w, "Tiles: %d\n", s.TilesCompleted)
	fmt.Fprintf(o.w, "Points: %d (%d base + %d bonus)\n", s.TotalPoints, s.BasePoints, s.LineBonusPoints)
	fmt.Fprintf(o.w, "Rows: %v\n", s.Lines.Rows)
	fmt.Fprintf(o.w, "Cols: %v\n", s.Lines.Cols)
	fmt.Fprintf(o.w, "Diagonals: %v\n", s.Lines.Diagonals)
}

func (o *Output) printHistory(h response.History) {
	if len(h.Drops) == 0 {
		fmt.Fprintln(o.w, "No drops")
		return
	}

	for _, d := range h.Drops {
		done := ""
		if d.TileCompleted {
			done = " [tile]"
		}
		fmt.Fprintf(o.w, "%s  %-16s %-30s %8s%s\n",
			d.Timestamp.Format(timeFormat), d.Player, d.Item, valuefilter.Format(d.Value), done)
	}
	fmt.Fprintf(o.w, "%d drops\n", h.Count)
}

func (o *Output) printDropResult(r response.DropResult) {
	if r.Duplicate {
		fmt.Fprintf(o.w, "Duplicate drop ignored (%s)\n", r.Drop.ID)
		return
	}
	fmt.Fprintf(o.w, "Recorded %s for %s\n", r.Drop.Item, r.Drop.Player)
	for _, t := range r.TilesCompleted {
		fmt.Fprintf(o.w, "  Completed tile %d: %s (%d pts)\n", t.Tile, strings.Join(t.Items, ", "), t.Value)
	}
}

func (o *Output) printDeathStats(s *model.DeathStats) {
	fmt.Fprintf(o.w, "Total deaths: %d\n", s.TotalDeaths)
	for _, p := range s.PlayerStats {
		fmt.Fprintf(o.w, "  %-20s %4d  last: %s", p.Player, p.Deaths, p.LastDeath.Format(timeFormat))
		if p.LastNPC != "" {
			fmt.Fprintf(o.w, " to %s", p.LastNPC)
		}
		fmt.Fprintln(o.w)
	}
}

func (o *Output) printNPCDeaths(stats []model.NPCDeathStats) {
	for _, s := range stats {
		fmt.Fprintf(o.w, "%-25s %4d deaths, %d players (last: %s)\n", s.NPC, s.Deaths, s.UniquePlayers, s.LastVictim)
	}
}

func (o *Output) printRank(s *model.RankSnapshot) {
	fmt.Fprintf(o.w, "%s  rank %d", s.Timestamp.Format(timeFormat), s.Rank)
	if s.RankChange != 0 {
		fmt.Fprintf(o.w, " (%+d)", s.RankChange)
	}
	if s.PrestigeRank != nil {
		fmt.Fprintf(o.w, "  prestige %d", *s.PrestigeRank)
	}
	fmt.Fprintf(o.w, "  %d xp", s.TotalXP)
	if s.XPChange != 0 {
		fmt.Fprintf(o.w, " (%+d)", s.XPChange)
	}
	fmt.Fprintln(o.w)
}
