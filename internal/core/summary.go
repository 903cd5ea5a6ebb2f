package core

import "sort"

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Name  string
	Total Money
	Count int
}

// DashboardSummary is the spending summary of a caller over a window.
type DashboardSummary struct {
	Total      Money
	Count      int
	ByCategory []CategoryTotal
}

// Summarize totals items and groups them by category name, largest total
// first. Groups are keyed by display name, not id: two categories sharing a
// name are merged. Ties keep first-appearance order.
func Summarize(items []ExpenseWithCategory) DashboardSummary {
	sum := DashboardSummary{Count: len(items), ByCategory: []CategoryTotal{}}
	index := make(map[string]int)
	for _, e := range items {
		sum.Total = sum.Total.Add(e.Amount)
		i, ok := index[e.Category.Name]
		if !ok {
			i = len(sum.ByCategory)
			index[e.Category.Name] = i
			sum.ByCategory = append(sum.ByCategory, CategoryTotal{Name: e.Category.Name})
		}
		sum.ByCategory[i].Total = sum.ByCategory[i].Total.Add(e.Amount)
		sum.ByCategory[i].Count++
	}
	sort.SliceStable(sum.ByCategory, func(i, j int) bool {
		return sum.ByCategory[i].Total.Cents > sum.ByCategory[j].Total.Cents
	})
	return sum
}
