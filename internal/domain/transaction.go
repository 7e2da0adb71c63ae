package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const percentageMultiplier = 100

// Kind represents the direction of a transaction.
type Kind string

const (
	// KindBuy adds quantity to a position.
	KindBuy Kind = "buy"
	// KindSell removes quantity from a position.
	KindSell Kind = "sell"
)

// ParseKind parses a string into a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindBuy:
		return KindBuy, nil
	case KindSell:
		return KindSell, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// ValidationError reports a rejected transaction request before any submission
// is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransactionRequest is the write schema accepted by the transaction store.
// ExecutedAt left zero means the store assigns the current time.
type TransactionRequest struct {
	SkinID            string          `json:"skin_id"`
	Kind              Kind            `json:"type"`
	Quantity          int64           `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	ExecutedAt        time.Time       `json:"executed_at,omitempty"`
	Currency          string          `json:"currency,omitempty"`
}

// Validate checks the request against the write schema. It returns a
// *ValidationError describing the first offending field.
func (r TransactionRequest) Validate() error {
	if r.SkinID == "" {
		return &ValidationError{Field: "skin_id", Reason: "skin must be selected"}
	}
	if r.Kind != KindBuy && r.Kind != KindSell {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("must be %q or %q", KindBuy, KindSell)}
	}
	if r.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	if r.UnitPrice.IsNegative() {
		return &ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	if r.CommissionPercent.IsNegative() || r.CommissionPercent.GreaterThanOrEqual(decimal.NewFromInt(percentageMultiplier)) {
		return &ValidationError{Field: "commission_percent", Reason: "must be in [0, 100)"}
	}
	return nil
}

// NetTotal computes the economic total of the request: quantity times unit
// price, with the commission deducted on sells. Buys pay no commission.
func (r TransactionRequest) NetTotal() decimal.Decimal {
	gross := r.UnitPrice.Mul(decimal.NewFromInt(r.Quantity))
	if r.Kind != KindSell {
		return gross
	}
	keep := decimal.NewFromInt(percentageMultiplier).Sub(r.CommissionPercent)
	return gross.Mul(keep).Div(decimal.NewFromInt(percentageMultiplier))
}

// Transaction is an immutable ledger entry for one skin position.
type Transaction struct {
	ID                string          `json:"id"`
	SkinID            string          `json:"skin_id"`
	Kind              Kind            `json:"type"`
	Quantity          int64           `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	ExecutedAt        time.Time       `json:"executed_at"`
	NetTotal          decimal.Decimal `json:"net_total"`
	Currency          string          `json:"currency,omitempty"`
}

// NewTransaction builds a validated transaction from a request. The caller
// supplies the identifier so that creation stays deterministic for the store.
func NewTransaction(id string, r TransactionRequest) (Transaction, error) {
	if err := r.Validate(); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:                id,
		SkinID:            r.SkinID,
		Kind:              r.Kind,
		Quantity:          r.Quantity,
		UnitPrice:         r.UnitPrice,
		CommissionPercent: r.CommissionPercent,
		ExecutedAt:        r.ExecutedAt,
		NetTotal:          r.NetTotal(),
		Currency:          r.Currency,
	}, nil
}
