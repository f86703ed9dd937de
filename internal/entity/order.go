package entity

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Order is one furniture sale. PendingBalance is recorded by hand and is
// never derived from Quantity, Price or TotalPaid.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID             int64           `bun:"id,pk,autoincrement" json:"id"`
	OrderDate      Date            `bun:"order_date,notnull" json:"order_date"`
	CustomerName   string          `bun:"customer_name,notnull" json:"customer_name"`
	ProductName    string          `bun:"product_name,notnull" json:"product_name"`
	Quantity       int             `bun:"quantity,notnull" json:"quantity"`
	Price          decimal.Decimal `bun:"price,notnull" json:"price"`
	TotalPaid      decimal.Decimal `bun:"total_paid,notnull" json:"total_paid"`
	PendingBalance decimal.Decimal `bun:"pending_balance_fixed,notnull" json:"pending_balance"`
	TotalPaidDate  PaidDate        `bun:"total_paid_date,notnull" json:"total_paid_date"`
}

// Validate checks the field constraints an order must satisfy before it is
// persisted.
func (o *Order) Validate() error {
	verr := &ValidationError{}
	if o.OrderDate.IsZero() {
		verr.Add("order_date", "is required")
	}
	if isBlank(o.CustomerName) {
		verr.Add("customer_name", "is required")
	}
	if isBlank(o.ProductName) {
		verr.Add("product_name", "is required")
	}
	if o.Quantity < 1 {
		verr.Add("quantity", "must be at least 1")
	}
	if o.Price.IsNegative() {
		verr.Add("price", "must not be negative")
	}
	if o.TotalPaid.IsNegative() {
		verr.Add("total_paid", "must not be negative")
	}
	if o.PendingBalance.IsNegative() {
		verr.Add("pending_balance", "must not be negative")
	}
	return verr.OrNil()
}

// ValidateBalance checks a replacement pending balance.
func ValidateBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		verr := &ValidationError{}
		verr.Add("pending_balance", "must not be negative")
		return verr
	}
	return nil
}
