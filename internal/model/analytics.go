package model

// Analytics aggregates the drop history for charts and key stats
type Analytics struct {
	TotalDrops      int           `json:"totalDrops"`
	UniquePlayers   int           `json:"uniquePlayers"`
	TilesCompleted  int           `json:"tilesCompleted"`
	TotalValue      float64       `json:"totalValue"`
	MostActiveDay   *DayCount     `json:"mostActiveDay,omitempty"`
	BestMonth       *MonthCount   `json:"bestMonth,omitempty"`
	DropsPerDay     []DayCount    `json:"dropsPerDay"`
	DayOfWeek       [7]int        `json:"dayOfWeek"`   // Sunday first
	HourHeatmap     [7][24]int    `json:"hourHeatmap"` // [weekday][hour]
	PlayerActivity  []PlayerCount `json:"playerActivity"`
	MonthComparison []MonthCount  `json:"monthComparison"`
	TopItems        []ItemCount   `json:"topItems"`
}

// DayCount is the number of drops on a calendar day (YYYY-MM-DD)
type DayCount struct {
	Day   string `json:"day"`
	Drops int    `json:"drops"`
}

// MonthCount is the number of drops in a calendar month (YYYY-MM)
type MonthCount struct {
	Month string  `json:"month"`
	Drops int     `json:"drops"`
	Value float64 `json:"value"`
}

// PlayerCount is the number of drops for one player
type PlayerCount struct {
	Player string  `json:"player"`
	Drops  int     `json:"drops"`
	Value  float64 `json:"value"`
}

// ItemCount is how often an item dropped
type ItemCount struct {
	Item  string  `json:"item"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}
