package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/osrsbingo/internal/api/request"
	"github.com/mcoot/osrsbingo/internal/api/response"
	"github.com/mcoot/osrsbingo/internal/services/valuefilter"
)

func newDropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Record drops",
	}

	cmd.AddCommand(newDropSendCmd("record", "Record a drop and apply it to the board", "/api/v1/drops"))
	cmd.AddCommand(newDropSendCmd("import", "Add a drop to the history without touching the board", "/api/v1/drops/import"))
	cmd.AddCommand(newDropSendCmd("manual", "Record a drop as admin", "/api/v1/drops/manual"))

	return cmd
}

func newDropSendCmd(use, short, path string) *cobra.Command {
	var req request.DropRequest

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.DropResult
			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Player, "player", "", "Player name")
	cmd.Flags().StringVar(&req.Item, "item", "", "Item name")
	cmd.Flags().Float64Var(&req.Value, "value", 0, "Item value in GP")
	cmd.Flags().IntVar(&req.Quantity, "quantity", 0, "Quantity")
	cmd.Flags().StringVar(&req.DropType, "type", "", "Drop type (default loot)")
	cmd.Flags().StringVar(&req.NPC, "npc", "", "Source NPC")
	_ = cmd.MarkFlagRequired("player")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}

// historyOptions are the history command filters
type historyOptions struct {
	player string
	item   string
	from   string
	to     string
	limit  int
	value  string
}

// query encodes the filters as URL parameters
func (o historyOptions) query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("player", o.player)
	set("item", o.item)
	set("start_date", o.from)
	set("end_date", o.to)
	set("value", o.value)
	if o.limit > 0 {
		q.Set("limit", strconv.Itoa(o.limit))
	}
	return q
}

func newHistoryCmd() *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded drops",
		Long: `List recorded drops, newest first.

--value takes a filter expression: ">1m", "<=500k", "=2.5m" (within 10%),
"100k-1m" for an inclusive range, or a bare number for an exact match.
A malformed expression matches every drop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/history"
			if q := opts.query().Encode(); q != "" {
				path += "?" + q
			}

			var result response.History
			if err := client.Get(path, &result); err != nil {
				return err
			}

			result = filterHistory(result, valuefilter.Parse(opts.value))

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.player, "player", "", "Only drops by this player")
	cmd.Flags().StringVar(&opts.item, "item", "", "Only drops of this item")
	cmd.Flags().StringVar(&opts.from, "from", "", "Start date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&opts.to, "to", "", "End date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum drops to show")
	cmd.Flags().StringVar(&opts.value, "value", "", "Value filter expression")

	return cmd
}

// filterHistory re-applies the value filter so older servers that ignore
// the parameter still produce filtered output
func filterHistory(h response.History, f *valuefilter.Filter) response.History {
	if f == nil {
		return h
	}

	kept := h.Drops[:0]
	for _, d := range h.Drops {
		if f.Match(d.Value) {
			kept = append(kept, d)
		}
	}
	return response.History{Drops: kept, Count: len(kept)}
}
