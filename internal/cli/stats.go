package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/osrsbingo/internal/api/response"
	"github.com/mcoot/osrsbingo/internal/model"
)

func newDeathsCmd() *cobra.Command {
	var (
		byNPC       bool
		byPlayerNPC bool
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "deaths",
		Short: "Show death statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			switch {
			case byNPC && byPlayerNPC:
				return errors.New("--by-npc and --by-player-npc are mutually exclusive")
			case byNPC:
				path := "/api/v1/deaths/by-npc"
				if limit > 0 {
					path += "?limit=" + strconv.Itoa(limit)
				}
				var result []model.NPCDeathStats
				if err := client.Get(path, &result); err != nil {
					return err
				}
				out.Print(result)
			case byPlayerNPC:
				var result map[string]map[string]int
				if err := client.Get("/api/v1/deaths/by-player-npc", &result); err != nil {
					return err
				}
				out.Print(result)
			default:
				var result model.DeathStats
				if err := client.Get("/api/v1/deaths", &result); err != nil {
					return err
				}
				out.Print(&result)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&byNPC, "by-npc", false, "Group deaths by NPC")
	cmd.Flags().BoolVar(&byPlayerNPC, "by-player-npc", false, "Count deaths per player and NPC")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum NPCs with --by-npc")

	return cmd
}

func newRankCmd() *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Show the group's hiscore rank",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			if history > 0 {
				var result response.RankHistory
				if err := client.Get("/api/v1/rank/history?limit="+strconv.Itoa(history), &result); err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			var result model.RankSnapshot
			if err := client.Get("/api/v1/rank", &result); err != nil {
				return err
			}
			out.Print(&result)
			return nil
		},
	}

	cmd.Flags().IntVar(&history, "history", 0, "Show the last N snapshots instead of the latest")

	return cmd
}
