package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/furni4/internal/entity"
)

// ProductTotal is the amount received for one product.
type ProductTotal struct {
	Product   string          `json:"product"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Orders    int             `json:"orders"`
}

// Summary totals a set of orders.
type Summary struct {
	Orders         int             `json:"orders"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
}

// ByProduct sums TotalPaid per exact product name, sorted by product name.
func ByProduct(orders []entity.Order) []ProductTotal {
	index := make(map[string]int)
	totals := make([]ProductTotal, 0)
	for _, o := range orders {
		i, ok := index[o.ProductName]
		if !ok {
			i = len(totals)
			index[o.ProductName] = i
			totals = append(totals, ProductTotal{Product: o.ProductName, TotalPaid: decimal.Zero})
		}
		totals[i].TotalPaid = totals[i].TotalPaid.Add(o.TotalPaid)
		totals[i].Orders++
	}
	sort.Slice(totals, func(a, b int) bool { return totals[a].Product < totals[b].Product })
	return totals
}

// AsMap flattens product totals into product -> total paid.
func AsMap(totals []ProductTotal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(totals))
	for _, t := range totals {
		out[t.Product] = t.TotalPaid
	}
	return out
}

// Totals summarises count, amount received and amount outstanding.
func Totals(orders []entity.Order) Summary {
	s := Summary{TotalPaid: decimal.Zero, PendingBalance: decimal.Zero}
	for _, o := range orders {
		s.Orders++
		s.TotalPaid = s.TotalPaid.Add(o.TotalPaid)
		s.PendingBalance = s.PendingBalance.Add(o.PendingBalance)
	}
	return s
}

// Products lists the distinct product names in the set, sorted.
func Products(orders []entity.Order) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, o := range orders {
		if _, ok := seen[o.ProductName]; ok {
			continue
		}
		seen[o.ProductName] = struct{}{}
		out = append(out, o.ProductName)
	}
	sort.Strings(out)
	return out
}
