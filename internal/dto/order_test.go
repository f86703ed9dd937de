package dto

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/furni4/internal/entity"
)

func TestCreateOrderRequestParsesDates(t *testing.T) {
	var req CreateOrderRequest
	body := `{"order_date":"2024-06-01","customer_name":" John Doe ","product_name":"Chair","quantity":2,"price":"50.00","total_paid":100,"pending_balance":0,"total_paid_date":"2024-06-02"}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode: %v", err)
	}
	o, err := req.Order()
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if o.CustomerName != "John Doe" || !o.OrderDate.Equal(entity.NewDate(2024, time.June, 1)) {
		t.Fatalf("unexpected order %+v", o)
	}
	if !o.TotalPaid.Equal(decimal.NewFromInt(100)) || o.TotalPaidDate.Int() != 20240602 {
		t.Fatalf("unexpected amounts %+v", o)
	}
}

func TestCreateOrderRequestRejectsBadDates(t *testing.T) {
	bad := "June 2nd"
	req := CreateOrderRequest{OrderDate: "yesterday", TotalPaidDate: &bad}
	_, err := req.Order()
	var verr *entity.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("expected both dates reported, got %v", verr.Fields)
	}
}

func TestOrderResponseUnsetPaidDateIsNull(t *testing.T) {
	resp := NewOrderResponse(entity.Order{ID: 1, OrderDate: entity.NewDate(2024, time.June, 1), TotalPaidDate: entity.UnsetPaidDate})
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v, ok := decoded["total_paid_date"]; !ok || v != nil {
		t.Fatalf("total_paid_date = %v, want null", v)
	}
	if decoded["order_date"] != "2024-06-01" {
		t.Fatalf("order_date = %v", decoded["order_date"])
	}
}
