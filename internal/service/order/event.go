package order

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger event types.
const (
	EventOrderCreated   = "order.created"
	EventBalanceUpdated = "order.balance_updated"
	EventOrdersCleared  = "orders.cleared"
)

// LedgerEvent is published after each committed ledger mutation.
type LedgerEvent struct {
	Type           string          `json:"type"`
	OrderID        int64           `json:"order_id,omitempty"`
	ProductName    string          `json:"product_name,omitempty"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// Encode renders the event as JSON.
func (e LedgerEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeLedgerEvent parses a bus payload.
func DecodeLedgerEvent(payload []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return LedgerEvent{}, fmt.Errorf("decode ledger event: %w", err)
	}
	if e.Type == "" {
		return LedgerEvent{}, fmt.Errorf("decode ledger event: missing type")
	}
	return e, nil
}
