package history

import (
	"context"
	"sort"
	"time"

	"github.com/mcoot/osrsbingo/internal/model"
)

const (
	analyticsDays   = 30
	analyticsMonths = 12
	analyticsTopN   = 10
	dayLayout       = "2006-01-02"
	monthLayout     = "2006-01"
)

// Analytics summarizes the drops matching query. Days and months are UTC.
func (s *Service) Analytics(ctx context.Context, query model.DropQuery) (*model.Analytics, error) {
	query.Limit = 0
	drops, err := s.storage.ListDrops(ctx, query)
	if err != nil {
		return nil, err
	}
	return summarize(drops, s.clock.Now()), nil
}

func summarize(drops []*model.DropRecord, now time.Time) *model.Analytics {
	a := &model.Analytics{
		DropsPerDay:     []model.DayCount{},
		PlayerActivity:  []model.PlayerCount{},
		MonthComparison: []model.MonthCount{},
		TopItems:        []model.ItemCount{},
	}

	days := make(map[string]int)
	months := make(map[string]*model.MonthCount)
	players := make(map[string]*model.PlayerCount)
	items := make(map[string]*model.ItemCount)

	for _, d := range drops {
		ts := d.Timestamp.UTC()
		a.TotalDrops++
		a.TotalValue += d.Value
		if d.TileCompleted {
			a.TilesCompleted++
		}

		days[ts.Format(dayLayout)]++
		a.DayOfWeek[ts.Weekday()]++
		a.HourHeatmap[ts.Weekday()][ts.Hour()]++

		month := ts.Format(monthLayout)
		if months[month] == nil {
			months[month] = &model.MonthCount{Month: month}
		}
		months[month].Drops++
		months[month].Value += d.Value

		if players[d.Player] == nil {
			players[d.Player] = &model.PlayerCount{Player: d.Player}
		}
		players[d.Player].Drops++
		players[d.Player].Value += d.Value

		if items[d.Item] == nil {
			items[d.Item] = &model.ItemCount{Item: d.Item}
		}
		items[d.Item].Count++
		items[d.Item].Value += d.Value
	}
	a.UniquePlayers = len(players)

	// Busiest day, earliest first on ties
	for day, count := range days {
		if a.MostActiveDay == nil || count > a.MostActiveDay.Drops ||
			(count == a.MostActiveDay.Drops && day < a.MostActiveDay.Day) {
			a.MostActiveDay = &model.DayCount{Day: day, Drops: count}
		}
	}

	// Zero-filled window of the last 30 days ending today
	today := now.UTC().Truncate(24 * time.Hour)
	for i := analyticsDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(dayLayout)
		a.DropsPerDay = append(a.DropsPerDay, model.DayCount{Day: day, Drops: days[day]})
	}

	for _, m := range months {
		a.MonthComparison = append(a.MonthComparison, *m)
		if a.BestMonth == nil || m.Drops > a.BestMonth.Drops ||
			(m.Drops == a.BestMonth.Drops && m.Month < a.BestMonth.Month) {
			best := *m
			a.BestMonth = &best
		}
	}
	sort.Slice(a.MonthComparison, func(i, j int) bool {
		return a.MonthComparison[i].Month < a.MonthComparison[j].Month
	})
	if n := len(a.MonthComparison); n > analyticsMonths {
		a.MonthComparison = a.MonthComparison[n-analyticsMonths:]
	}

	for _, p := range players {
		a.PlayerActivity = append(a.PlayerActivity, *p)
	}
	sort.Slice(a.PlayerActivity, func(i, j int) bool {
		x, y := a.PlayerActivity[i], a.PlayerActivity[j]
		if x.Drops != y.Drops {
			return x.Drops > y.Drops
		}
		return x.Player < y.Player
	})
	if len(a.PlayerActivity) > analyticsTopN {
		a.PlayerActivity = a.PlayerActivity[:analyticsTopN]
	}

	for _, it := range items {
		a.TopItems = append(a.TopItems, *it)
	}
	sort.Slice(a.TopItems, func(i, j int) bool {
		x, y := a.TopItems[i], a.TopItems[j]
		if x.Count != y.Count {
			return x.Count > y.Count
		}
		return x.Item < y.Item
	})
	if len(a.TopItems) > analyticsTopN {
		a.TopItems = a.TopItems[:analyticsTopN]
	}

	return a
}
