package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validOrder() Order {
	return Order{
		OrderDate:      NewDate(2025, time.March, 7),
		CustomerName:   "John Doe",
		ProductName:    "Chair",
		Quantity:       5,
		Price:          decimal.NewFromInt(100),
		TotalPaid:      decimal.NewFromInt(400),
		PendingBalance: decimal.NewFromInt(100),
		TotalPaidDate:  PaidOn(NewDate(2025, time.March, 7)),
	}
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Order)
		field  string
	}{
		{"valid", func(*Order) {}, ""},
		{"zero price allowed", func(o *Order) { o.Price = decimal.Zero }, ""},
		{"missing date", func(o *Order) { o.OrderDate = Date{} }, "order_date"},
		{"blank customer", func(o *Order) { o.CustomerName = "   " }, "customer_name"},
		{"blank product", func(o *Order) { o.ProductName = "" }, "product_name"},
		{"zero quantity", func(o *Order) { o.Quantity = 0 }, "quantity"},
		{"negative price", func(o *Order) { o.Price = decimal.NewFromFloat(-0.01) }, "price"},
		{"negative paid", func(o *Order) { o.TotalPaid = decimal.NewFromInt(-1) }, "total_paid"},
		{"negative balance", func(o *Order) { o.PendingBalance = decimal.NewFromInt(-1) }, "pending_balance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(&o)
			err := o.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Fatalf("expected problem on %s, got %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestValidationErrorMessageIsStable(t *testing.T) {
	o := validOrder()
	o.Quantity = 0
	o.CustomerName = ""
	err := o.Validate()
	want := "validation failed: customer_name is required; quantity must be at least 1"
	if err == nil || err.Error() != want {
		t.Fatalf("got %v, want %q", err, want)
	}
}

func TestValidateBalance(t *testing.T) {
	if err := ValidateBalance(decimal.Zero); err != nil {
		t.Fatalf("zero balance rejected: %v", err)
	}
	if err := ValidateBalance(decimal.NewFromInt(-5)); err == nil {
		t.Fatalf("negative balance accepted")
	}
}
