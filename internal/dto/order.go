package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/furni4/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers. An
// unpaid order has a null total_paid_date.
type OrderResponse struct {
	ID             int64           `json:"id"`
	OrderDate      string          `json:"order_date"`
	CustomerName   string          `json:"customer_name"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	TotalPaidDate  *string         `json:"total_paid_date"`
}

// CreateOrderRequest is the payload for recording a sale. Amounts accept
// JSON numbers or strings.
type CreateOrderRequest struct {
	OrderDate      string          `json:"order_date"`
	CustomerName   string          `json:"customer_name"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	TotalPaidDate  *string         `json:"total_paid_date"`
}

// UpdateBalanceRequest replaces an order's pending balance.
type UpdateBalanceRequest struct {
	PendingBalance *decimal.Decimal `json:"pending_balance"`
}

// NewOrderResponse maps an entity onto its transport shape.
func NewOrderResponse(o entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:             o.ID,
		OrderDate:      o.OrderDate.String(),
		CustomerName:   o.CustomerName,
		ProductName:    o.ProductName,
		Quantity:       o.Quantity,
		Price:          o.Price,
		TotalPaid:      o.TotalPaid,
		PendingBalance: o.PendingBalance,
	}
	if d, ok := o.TotalPaidDate.Date(); ok {
		s := d.String()
		resp.TotalPaidDate = &s
	}
	return resp
}

// NewOrderResponses maps a slice, never returning nil.
func NewOrderResponses(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}

// Order converts the request into an entity. Date syntax errors are
// reported per field; the remaining rules are checked by the repository.
func (r CreateOrderRequest) Order() (*entity.Order, error) {
	verr := &entity.ValidationError{}
	o := &entity.Order{
		CustomerName:   strings.TrimSpace(r.CustomerName),
		ProductName:    strings.TrimSpace(r.ProductName),
		Quantity:       r.Quantity,
		Price:          r.Price,
		TotalPaid:      r.TotalPaid,
		PendingBalance: r.PendingBalance,
		TotalPaidDate:  entity.UnsetPaidDate,
	}

	if strings.TrimSpace(r.OrderDate) == "" {
		o.OrderDate = entity.Today()
	} else if d, err := entity.ParseDate(r.OrderDate); err != nil {
		verr.Add("order_date", "must be a YYYY-MM-DD date")
	} else {
		o.OrderDate = d
	}

	if r.TotalPaidDate != nil && strings.TrimSpace(*r.TotalPaidDate) != "" {
		d, err := entity.ParseDate(*r.TotalPaidDate)
		if err != nil {
			verr.Add("total_paid_date", "must be a YYYY-MM-DD date or null")
		} else {
			o.TotalPaidDate = entity.PaidOn(d)
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return o, nil
}
