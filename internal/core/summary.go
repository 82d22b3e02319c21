package core

import (
	"math"
	"sort"
)

// DefaultGoal is the monthly profit goal the achievement rate is measured
// against when no goal is configured.
const DefaultGoal Yen = 800_000

// Achievement tier icons, highest first. Thresholds are inclusive lower
// bounds on the achievement rate.
const (
	TierTop      = "👑"
	TierHigh     = "🔥"
	TierMid      = "💪"
	TierLow      = "🏃"
	TierBaseline = "🌱"
)

// UnspecifiedClient is the client rollup bucket for records with an empty
// client field.
const UnspecifiedClient = "(unspecified)"

type (
	// MonthlyBucket accumulates sales and expenses for one YYYY-MM key.
	MonthlyBucket struct {
		Month    string `json:"month"`
		Sales    Yen    `json:"sales"`
		Expenses Yen    `json:"expenses"`
		Profit   Yen    `json:"profit"`
	}

	// ClientBucket accumulates per-client record counts and totals.
	ClientBucket struct {
		Client   string `json:"client"`
		Count    int    `json:"count"`
		Sales    Yen    `json:"sales"`
		Expenses Yen    `json:"expenses"`
		Profit   Yen    `json:"profit"`
	}

	// Summary is the aggregate view over a filtered record set.
	Summary struct {
		TotalSales      Yen             `json:"totalSales"`
		TotalExpenses   Yen             `json:"totalExpenses"`
		Profit          Yen             `json:"profit"`
		AchievementRate int             `json:"achievementRate"`
		Tier            string          `json:"tier"`
		Monthly         []MonthlyBucket `json:"monthly"`
		Clients         []ClientBucket  `json:"clients"`
		Projects        []Project       `json:"projects"`
	}
)

// AchievementRate is profit as a rounded percentage of goal, clamped to 0
// when profit is zero or negative.
func AchievementRate(profit, goal Yen) int {
	if profit <= 0 || goal <= 0 {
		return 0
	}
	return int(math.Round(float64(profit) / float64(goal) * 100))
}

// TierForRate maps an achievement rate to its icon, evaluated highest-first.
func TierForRate(rate int) string {
	switch {
	case rate >= 100:
		return TierTop
	case rate >= 80:
		return TierHigh
	case rate >= 50:
		return TierMid
	case rate >= 20:
		return TierLow
	default:
		return TierBaseline
	}
}

// Summarize computes totals, the achievement rate against goal, monthly and
// client rollups, and the date-descending table view for a filtered set. The
// input slice is not mutated.
func Summarize(filtered []Project, goal Yen) Summary {
	s := Summary{}

	monthly := map[string]*MonthlyBucket{}
	clients := map[string]*ClientBucket{}

	for _, p := range filtered {
		s.TotalSales += p.Sales
		s.TotalExpenses += p.Expenses

		if key := YearMonth(p.Date); key != "" {
			b, ok := monthly[key]
			if !ok {
				b = &MonthlyBucket{Month: key}
				monthly[key] = b
			}
			b.Sales += p.Sales
			b.Expenses += p.Expenses
		}

		name := p.Client
		if name == "" {
			name = UnspecifiedClient
		}
		c, ok := clients[name]
		if !ok {
			c = &ClientBucket{Client: name}
			clients[name] = c
		}
		c.Count++
		c.Sales += p.Sales
		c.Expenses += p.Expenses
	}

	s.Profit = s.TotalSales - s.TotalExpenses
	s.AchievementRate = AchievementRate(s.Profit, goal)
	s.Tier = TierForRate(s.AchievementRate)

	s.Monthly = make([]MonthlyBucket, 0, len(monthly))
	for _, b := range monthly {
		b.Profit = b.Sales - b.Expenses
		s.Monthly = append(s.Monthly, *b)
	}
	sort.Slice(s.Monthly, func(i, j int) bool {
		return s.Monthly[i].Month < s.Monthly[j].Month
	})

	s.Clients = make([]ClientBucket, 0, len(clients))
	for _, c := range clients {
		c.Profit = c.Sales - c.Expenses
		s.Clients = append(s.Clients, *c)
	}
	sort.SliceStable(s.Clients, func(i, j int) bool {
		return s.Clients[i].Sales > s.Clients[j].Sales
	})

	s.Projects = SortByDateDesc(filtered)
	return s
}

// SortByDateDesc returns a copy of projects sorted by date descending. The
// sort is stable so records sharing a date keep their relative order.
// Unparseable dates sort last.
func SortByDateDesc(projects []Project) []Project {
	out := make([]Project, len(projects))
	copy(out, projects)
	sort.SliceStable(out, func(i, j int) bool {
		di, erri := ParseDate(out[i].Date)
		dj, errj := ParseDate(out[j].Date)
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return di.After(dj)
	})
	return out
}
