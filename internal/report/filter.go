package report

import (
	"strings"

	"github.com/Additional-Code/furni4/internal/entity"
)

// AllProducts disables the product filter.
const AllProducts = "All"

// Criteria selects orders by inclusive calendar-date range and product.
// A zero Start or End leaves that side of the range open.
type Criteria struct {
	Start   entity.Date `json:"start"`
	End     entity.Date `json:"end"`
	Product string      `json:"product"`
}

// ParseCriteria builds Criteria from YYYY-MM-DD strings; empty strings leave
// the bound open and an empty product means all products.
func ParseCriteria(start, end, product string) (Criteria, error) {
	verr := &entity.ValidationError{}
	c := Criteria{Product: strings.TrimSpace(product)}

	if s := strings.TrimSpace(start); s != "" {
		d, err := entity.ParseDate(s)
		if err != nil {
			verr.Add("start", "must be a YYYY-MM-DD date")
		}
		c.Start = d
	}
	if s := strings.TrimSpace(end); s != "" {
		d, err := entity.ParseDate(s)
		if err != nil {
			verr.Add("end", "must be a YYYY-MM-DD date")
		}
		c.End = d
	}
	if !c.Start.IsZero() && !c.End.IsZero() && c.Start.After(c.End) {
		verr.Add("start", "must not be after end")
	}
	if c.Product == "" {
		c.Product = AllProducts
	}

	if err := verr.OrNil(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// WithDefaults closes open bounds with the earliest and latest order dates
// of the given set.
func (c Criteria) WithDefaults(orders []entity.Order) Criteria {
	lo, hi := dateSpan(orders)
	if c.Start.IsZero() {
		c.Start = lo
	}
	if c.End.IsZero() {
		c.End = hi
	}
	if c.Product == "" {
		c.Product = AllProducts
	}
	return c
}

// Matches reports whether o falls inside the criteria.
func (c Criteria) Matches(o entity.Order) bool {
	if !c.Start.IsZero() && o.OrderDate.Before(c.Start) {
		return false
	}
	if !c.End.IsZero() && o.OrderDate.After(c.End) {
		return false
	}
	if c.Product != "" && c.Product != AllProducts && o.ProductName != c.Product {
		return false
	}
	return true
}

// Filter returns the orders matching c in their original order. The result
// is never nil.
func Filter(orders []entity.Order, c Criteria) []entity.Order {
	out := make([]entity.Order, 0, len(orders))
	for _, o := range orders {
		if c.Matches(o) {
			out = append(out, o)
		}
	}
	return out
}

func dateSpan(orders []entity.Order) (lo, hi entity.Date) {
	for _, o := range orders {
		d := o.OrderDate
		if d.IsZero() {
			continue
		}
		if lo.IsZero() || d.Before(lo) {
			lo = d
		}
		if hi.IsZero() || d.After(hi) {
			hi = d
		}
	}
	return lo, hi
}
