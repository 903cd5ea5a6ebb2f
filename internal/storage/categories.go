package storage

import "expenses/internal/core"

// DefaultCategories mirrors the rows inserted by the seed migration, in
// insertion order.
var DefaultCategories = []core.Category{
	{ID: "4f1c2a90-0b7e-4d2a-9a61-1c0e3b5d7a01", Name: "Food & Dining"},
	{ID: "4f1c2a90-0b7e-4d2a-9a61-1c0e3b5d7a02", Name: "Transportation"},
	{ID: "4f1c2a90-0b7e-4d2a-9a61-1c0e3b5d7a03", Name: "Shopping"},
	{ID: "4f1c2a90-0b7e-4d2a-9a61-1c0e3b5d7a04", Name: "Entertainment"},
	{ID: "4f1c2a90-0b7e-4d2a-9a61-1c0e3b5d7a05", Name: "Bills & Utilities"},
	{ID: "4f1c2a90-0b7e-4d2a-9a61-1c0e3b5d7a06", Name: "Healthcare"},
	{ID: "4f1c2a90-0b7e-4d2a-9a61-1c0e3b5d7a07", Name: "Travel"},
	{ID: "4f1c2a90-0b7e-4d2a-9a61-1c0e3b5d7a08", Name: "Education"},
	{ID: "4f1c2a90-0b7e-4d2a-9a61-1c0e3b5d7a09", Name: "Other"},
}
