package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/osrsbingo/internal/api/request"
	"github.com/mcoot/osrsbingo/internal/api/response"
	"github.com/mcoot/osrsbingo/internal/model"
	"github.com/mcoot/osrsbingo/internal/services/board"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Board commands",
	}

	cmd.AddCommand(newBoardShowCmd())
	cmd.AddCommand(newBoardResizeCmd())
	cmd.AddCommand(boardActionCmd("clear", "Clear every tile and completion", "/api/v1/board/clear"))
	cmd.AddCommand(boardActionCmd("shuffle", "Shuffle the tiles", "/api/v1/board/shuffle"))
	cmd.AddCommand(boardActionCmd("undo-shuffle", "Undo the last shuffle", "/api/v1/board/shuffle/undo"))
	cmd.AddCommand(newBoardTileCmd())
	cmd.AddCommand(newBoardBonusesCmd())
	cmd.AddCommand(newBoardCompleteCmd())
	cmd.AddCommand(newBoardUncompleteCmd())

	return cmd
}

func newBoardShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.Board
			if err := client.Get("/api/v1/board", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(&result)
			return nil
		},
	}
}

func newBoardResizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize <size>",
		Short: "Replace the board with an empty board of the given size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid size: %s", args[0])
			}

			var result model.Board
			if err := client.Post("/api/v1/board/resize", request.ResizeRequest{Size: size}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(&result)
			return nil
		},
	}
}

// boardActionCmd builds a command that posts to a board endpoint with no body
func boardActionCmd(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.Board
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(&result)
			return nil
		},
	}
}

func newBoardTileCmd() *cobra.Command {
	var (
		items      []string
		value      int
		title      string
		requireAll bool
	)

	cmd := &cobra.Command{
		Use:   "tile <index>",
		Short: "Edit a tile",
		Long: `Set the items, value and title of a tile. Tiles are numbered from 0,
left to right and top to bottom.

With --require-all and more than one item, every item must be collected
before the tile completes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid tile index: %s", args[0])
			}

			req := request.EditTileRequest{
				Items:      items,
				Value:      value,
				Title:      title,
				RequireAll: requireAll,
			}

			var result model.Board
			if err := client.Put("/api/v1/board/tiles/"+strconv.Itoa(index), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(&result)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&items, "items", nil, "Item that completes the tile (repeatable)")
	cmd.Flags().IntVar(&value, "value", model.DefaultTileValue, "Points for the tile")
	cmd.Flags().StringVar(&title, "title", "", "Display title")
	cmd.Flags().BoolVar(&requireAll, "require-all", false, "Require every item")

	return cmd
}

func newBoardBonusesCmd() *cobra.Command {
	var rows, cols, diags string

	cmd := &cobra.Command{
		Use:   "bonuses",
		Short: "Set line bonuses",
		Long: `Set bonus points for completed lines as comma separated lists, for
example --rows 50,50,50,50,50. Malformed numbers count as 0.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.LineBonusesRequest{
				Rows:  board.ParseBonusList(rows),
				Cols:  board.ParseBonusList(cols),
				Diags: board.ParseBonusList(diags),
			}

			var result model.Board
			if err := client.Put("/api/v1/board/bonuses", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(&result)
			return nil
		},
	}

	cmd.Flags().StringVar(&rows, "rows", "", "Row bonuses, top to bottom")
	cmd.Flags().StringVar(&cols, "cols", "", "Column bonuses, left to right")
	cmd.Flags().StringVar(&diags, "diags", "", "Main then anti diagonal bonus")

	return cmd
}

func newBoardCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <index> <player>",
		Short: "Mark a tile completed by a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("invalid tile index: %s", args[0])
			}

			var result model.Board
			path := "/api/v1/board/tiles/" + args[0] + "/completions"
			if err := client.Post(path, request.CompletionRequest{Player: args[1]}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(&result)
			return nil
		},
	}
}

func newBoardUncompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uncomplete <index> <player>",
		Short: "Remove a player's completion of a tile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("invalid tile index: %s", args[0])
			}

			var result model.Board
			path := "/api/v1/board/tiles/" + args[0] + "/completions/" + url.PathEscape(args[1])
			if err := client.Delete(path, nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(&result)
			return nil
		},
	}
}

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show player standings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Leaderboard
			if err := client.Get("/api/v1/leaderboard", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newLinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lines <player>",
		Short: "Show the lines a player has completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.PlayerScore
			if err := client.Get("/api/v1/players/"+url.PathEscape(args[0])+"/lines", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
