package core

import (
	"testing"
)

func TestSummarizeTotals(t *testing.T) {
	s := Summarize(sampleProjects(), DefaultGoal)
	if s.TotalSales-s.TotalExpenses != s.Profit {
		t.Fatalf("profit invariant broken: %d - %d != %d", s.TotalSales, s.TotalExpenses, s.Profit)
	}

	empty := Summarize(nil, DefaultGoal)
	if empty.Profit != 0 || empty.TotalSales != 0 || empty.TotalExpenses != 0 {
		t.Fatalf("empty set should have zero totals, got %+v", empty)
	}
	if empty.AchievementRate != 0 || empty.Tier != TierBaseline {
		t.Fatalf("empty set should be baseline tier, got rate=%d tier=%q", empty.AchievementRate, empty.Tier)
	}
}

func TestAchievementRate(t *testing.T) {
	cases := []struct {
		profit Yen
		want   int
	}{
		{-100, 0},
		{0, 0},
		{400000, 50},
		{800000, 100},
		{1000000, 125},
		{4000, 1}, // 0.5% rounds up
	}
	for i, tc := range cases {
		if got := AchievementRate(tc.profit, 800000); got != tc.want {
			t.Fatalf("case %d: profit %d got %d want %d", i, tc.profit, got, tc.want)
		}
	}
}

func TestTierForRate(t *testing.T) {
	cases := []struct {
		rate int
		want string
	}{
		{150, TierTop}, {100, TierTop},
		{99, TierHigh}, {80, TierHigh},
		{79, TierMid}, {50, TierMid},
		{49, TierLow}, {20, TierLow},
		{19, TierBaseline}, {0, TierBaseline},
	}
	for _, tc := range cases {
		if got := TierForRate(tc.rate); got != tc.want {
			t.Fatalf("rate %d: got %q want %q", tc.rate, got, tc.want)
		}
	}
}

func TestSummarizeRollupsConserveTotals(t *testing.T) {
	projects := []Project{
		{ID: 1, Client: "Acme", Date: "2024-01-15", Sales: 1000, Expenses: 100},
		{ID: 2, Client: "Beta", Date: "2024-01-20", Sales: 2000, Expenses: 200},
		{ID: 3, Client: "", Date: "2024-02-01", Sales: 3000, Expenses: 300},
		{ID: 4, Client: "Acme", Date: "2024-02-10", Sales: 4000, Expenses: 400},
	}
	s := Summarize(projects, DefaultGoal)

	var monthSales, monthExpenses Yen
	for _, b := range s.Monthly {
		monthSales += b.Sales
		monthExpenses += b.Expenses
	}
	if monthSales != s.TotalSales || monthExpenses != s.TotalExpenses {
		t.Fatalf("monthly rollup lost records: %d/%d vs %d/%d", monthSales, monthExpenses, s.TotalSales, s.TotalExpenses)
	}

	var clientSales, clientExpenses Yen
	var clientCount int
	for _, c := range s.Clients {
		clientSales += c.Sales
		clientExpenses += c.Expenses
		clientCount += c.Count
	}
	if clientSales != s.TotalSales || clientExpenses != s.TotalExpenses || clientCount != len(projects) {
		t.Fatalf("client rollup lost records: sales=%d expenses=%d count=%d", clientSales, clientExpenses, clientCount)
	}
}

func TestSummarizeMonthlyOrderAscending(t *testing.T) {
	projects := []Project{
		{ID: 1, Client: "a", Date: "2024-03-01", Sales: 1},
		{ID: 2, Client: "a", Date: "2023-12-01", Sales: 1},
		{ID: 3, Client: "a", Date: "2024-01-01", Sales: 1},
	}
	s := Summarize(projects, DefaultGoal)
	for i := 1; i < len(s.Monthly); i++ {
		if s.Monthly[i-1].Month >= s.Monthly[i].Month {
			t.Fatalf("monthly buckets not ascending: %v", s.Monthly)
		}
	}
}

func TestSummarizeClientOrderBySalesDesc(t *testing.T) {
	projects := []Project{
		{ID: 1, Client: "small", Date: "2024-01-01", Sales: 10},
		{ID: 2, Client: "big", Date: "2024-01-02", Sales: 1000},
		{ID: 3, Client: "", Date: "2024-01-03", Sales: 100},
	}
	s := Summarize(projects, DefaultGoal)
	if s.Clients[0].Client != "big" || s.Clients[2].Client != "small" {
		t.Fatalf("client buckets not sorted by sales desc: %v", s.Clients)
	}
	if s.Clients[1].Client != UnspecifiedClient {
		t.Fatalf("empty client should bucket as %q, got %q", UnspecifiedClient, s.Clients[1].Client)
	}
}

func TestSortByDateDescStable(t *testing.T) {
	projects := []Project{
		{ID: 1, Date: "2024-01-10"},
		{ID: 2, Date: "2024-01-20"},
		{ID: 3, Date: "2024-01-10"},
	}
	got := SortByDateDesc(projects)
	if got[0].ID != 2 {
		t.Fatalf("newest record should be first, got id=%d", got[0].ID)
	}
	if got[1].ID != 1 || got[2].ID != 3 {
		t.Fatalf("ties must keep original relative order: %v", got)
	}
	if projects[0].ID != 1 {
		t.Fatal("input slice order was mutated")
	}
}
