package orders

import "github.com/shopspring/decimal"

type Stats struct {
	TotalOrders int             `json:"total_orders"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	TotalBooks  int             `json:"total_books"`
}

// ComputeStats sums order totals exactly. TotalBooks counts order lines, not
// quantities.
func ComputeStats(orders []Order) Stats {
	s := Stats{TotalSpent: decimal.Zero}
	for _, o := range orders {
		s.TotalOrders++
		s.TotalSpent = s.TotalSpent.Add(o.Total)
		s.TotalBooks += len(o.Items)
	}
	return s
}
