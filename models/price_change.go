package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PriceChangeStatus is the state of a provider-initiated renegotiation
type PriceChangeStatus string

const (
	PriceChangeNone     PriceChangeStatus = ""
	PriceChangePending  PriceChangeStatus = "pending"
	PriceChangeAccepted PriceChangeStatus = "accepted"
	PriceChangeRejected PriceChangeStatus = "rejected"
)

// PriceChange is an outstanding proposal. Its presence on an order is the pending state;
// resolving it always removes it, so proposed price and pending status cannot disagree.
type PriceChange struct {
	ProposedPrice decimal.Decimal `json:"proposed_price"`
	ProposedAt    time.Time       `json:"proposed_at"`
}

// MarshalJSON adds the derived status so API clients see the proposal state explicitly
func (p PriceChange) MarshalJSON() ([]byte, error) {
	type plain PriceChange
	return json.Marshal(struct {
		plain
		Status PriceChangeStatus `json:"status"`
	}{plain: plain(p), Status: PriceChangePending})
}

// PriceResolution describes how a proposal was resolved
type PriceResolution struct {
	Status        PriceChangeStatus `json:"status"`
	ProposedPrice decimal.Decimal   `json:"proposed_price"`
	PreviousPrice decimal.Decimal   `json:"previous_price"`
	Price         decimal.Decimal   `json:"price"`
}

// PriceChangeStatus returns PriceChangePending while a proposal is outstanding
func (o *Order) PriceChangeStatus() PriceChangeStatus {
	if o.PriceChange == nil {
		return PriceChangeNone
	}
	return PriceChangePending
}

// ProposePriceChange records a new proposal, replacing any pending one
func (o *Order) ProposePriceChange(newPrice decimal.Decimal, now time.Time) error {
	if o.Status != StatusPending && o.Status != StatusAccepted {
		return newValidationError("PRICE_CHANGE_NOT_ALLOWED", "Price can only be changed before production starts (order is %s)", o.Status)
	}
	if err := ValidatePrice(newPrice); err != nil {
		return err
	}
	if newPrice.Equal(o.Price) {
		return newValidationError("PRICE_UNCHANGED", "Proposed price must differ from the current price")
	}
	o.PriceChange = &PriceChange{ProposedPrice: newPrice, ProposedAt: now}
	o.Touch(now)
	return nil
}

// RespondToPriceChange accepts or rejects the pending proposal and clears it
func (o *Order) RespondToPriceChange(accept bool, now time.Time) (PriceResolution, error) {
	if o.PriceChange == nil {
		return PriceResolution{}, newValidationError("NO_PENDING_PRICE_CHANGE", "There is no pending price change to respond to")
	}
	resolution := PriceResolution{
		Status:        PriceChangeRejected,
		ProposedPrice: o.PriceChange.ProposedPrice,
		PreviousPrice: o.Price,
		Price:         o.Price,
	}
	if accept {
		o.Price = o.PriceChange.ProposedPrice
		resolution.Status = PriceChangeAccepted
		resolution.Price = o.Price
	}
	o.PriceChange = nil
	o.Touch(now)
	return resolution, nil
}

// MaxPrice is the first amount the decimal(12,2) price columns cannot hold
var MaxPrice = decimal.New(1, 10)

// ValidatePrice checks that price is positive, has at most two decimal places and fits the
// price columns. Used for initial prices and proposals alike.
func ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return newValidationError("INVALID_PRICE", "Price must be greater than zero")
	}
	if !price.Equal(price.Round(2)) {
		return newValidationError("INVALID_PRICE", "Price cannot have more than two decimal places")
	}
	if price.GreaterThanOrEqual(MaxPrice) {
		return newValidationError("INVALID_PRICE", "Price must be less than %s", MaxPrice.String())
	}
	return nil
}
