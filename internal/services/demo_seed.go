package services

import (
	"time"

	"expenses/internal/core"
)

// demoEntry is one row of the demo catalog. CategoryIndex points into the
// category list sorted by name.
type demoEntry struct {
	AmountCents   int64
	CategoryIndex int
	DaysAgo       int
	Note          string
}

// demoCatalog is grouped by category. With the default categories the
// indexes map to: 0 Bills & Utilities, 1 Education, 2 Entertainment,
// 3 Food & Dining, 4 Healthcare, 5 Other, 6 Shopping, 7 Transportation,
// 8 Travel.
var demoCatalog = []demoEntry{
	{12000, 0, 2, "Electricity bill"},
	{4500, 0, 9, "Internet"},
	{3000, 0, 16, "Phone plan"},
	{8500, 0, 25, "Water and gas"},

	{4999, 1, 4, "Online course"},
	{2350, 1, 18, "Textbooks"},

	{1599, 2, 1, "Streaming subscription"},
	{3200, 2, 6, "Concert tickets"},
	{2400, 2, 13, "Cinema night"},
	{1850, 2, 22, "Board game"},

	{4575, 3, 0, "Grocery run"},
	{1250, 3, 1, "Lunch with team"},
	{380, 3, 3, "Coffee"},
	{6820, 3, 5, "Weekly groceries"},
	{2990, 3, 8, "Pizza delivery"},
	{5400, 3, 12, "Dinner out"},
	{7110, 3, 19, "Groceries"},

	{2500, 4, 7, "Pharmacy"},
	{6000, 4, 15, "Dentist co-pay"},
	{4000, 4, 27, "Gym membership"},

	{1500, 5, 10, "Gift wrap and cards"},
	{900, 5, 21, "Postage"},

	{8999, 6, 3, "Running shoes"},
	{3499, 6, 11, "Kitchen supplies"},
	{12900, 6, 24, "Winter jacket"},

	{250, 7, 0, "Bus ticket"},
	{5200, 7, 6, "Fuel"},
	{1800, 7, 14, "Taxi"},
	{4800, 7, 20, "Fuel"},

	{24900, 8, 17, "Weekend train tickets"},
	{31500, 8, 26, "Hotel, two nights"},
}

// demoExpenses expands the catalog against the available categories.
// Entries whose category index is out of range are skipped.
func demoExpenses(cats []core.Category, now time.Time) []core.NewExpense {
	out := make([]core.NewExpense, 0, len(demoCatalog))
	for _, d := range demoCatalog {
		if d.CategoryIndex >= len(cats) {
			continue
		}
		out = append(out, core.NewExpense{
			Amount:     core.Money{Cents: d.AmountCents},
			CategoryID: cats[d.CategoryIndex].ID,
			Date:       now.AddDate(0, 0, -d.DaysAgo),
			Note:       d.Note,
		})
	}
	return out
}
