package models

import (
	"math"
	"strings"
	"time"
)

// OrderStatus is the order's position in its fulfilment lifecycle
type OrderStatus string

const (
	StatusPending      OrderStatus = "pending"
	StatusAccepted     OrderStatus = "accepted"
	StatusInProduction OrderStatus = "in_production"
	StatusShipped      OrderStatus = "shipped"
	StatusDelivered    OrderStatus = "delivered"
	StatusCancelled    OrderStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusAccepted,
	StatusInProduction,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// orderTransitions is the complete set of legal moves. Statuses without an entry are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:      {StatusAccepted, StatusCancelled},
	StatusAccepted:     {StatusInProduction},
	StatusInProduction: {StatusShipped},
	StatusShipped:      {StatusDelivered},
}

// IsValid reports whether s is a known status
func (s OrderStatus) IsValid() bool {
	for _, status := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether target is reachable from s in one step
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionExtra carries the fields some transitions require
type TransitionExtra struct {
	ProductionHours *float64 `json:"production_hours"`
	TrackingNumber  string   `json:"tracking_number"`
	TrackingCompany string   `json:"tracking_company"`
	CancelReason    string   `json:"cancel_reason"`
}

// ApplyTransition moves the order to target, stamping the lifecycle timestamp and the
// fields the transition requires. On error the order is left untouched.
func (o *Order) ApplyTransition(target OrderStatus, extra TransitionExtra, now time.Time) error {
	if !target.IsValid() {
		return newValidationError("INVALID_STATUS", "Unknown order status %q", target)
	}
	if !o.Status.CanTransitionTo(target) {
		return &TransitionError{From: o.Status, To: target}
	}

	var trackingNumber, trackingCompany string
	switch target {
	case StatusInProduction:
		if extra.ProductionHours == nil {
			return newValidationError("MISSING_PRODUCTION_HOURS", "Production hours are required to start production")
		}
		if err := validateProductionHours(*extra.ProductionHours); err != nil {
			return err
		}
	case StatusShipped:
		trackingNumber, trackingCompany = o.resolveTracking(extra)
		if trackingNumber == "" || trackingCompany == "" {
			return newValidationError("MISSING_TRACKING", "Tracking number and company are required to ship an order")
		}
	}

	stamp := now
	switch target {
	case StatusAccepted:
		o.AcceptedAt = &stamp
	case StatusInProduction:
		hours := *extra.ProductionHours
		o.ProductionHours = &hours
		o.ProductionStartedAt = &stamp
	case StatusShipped:
		o.TrackingNumber = &trackingNumber
		o.TrackingCompany = &trackingCompany
		o.ShippedAt = &stamp
	case StatusDelivered:
		o.DeliveredAt = &stamp
	case StatusCancelled:
		o.CancelledAt = &stamp
		if reason := strings.TrimSpace(extra.CancelReason); reason != "" {
			o.CancelReason = &reason
		}
		// a cancelled order can no longer be repriced
		o.PriceChange = nil
	}
	o.Status = target
	o.Touch(now)
	return nil
}

// SetTracking records shipment tracking. Allowed once production has started.
func (o *Order) SetTracking(number, company string, now time.Time) error {
	if o.Status != StatusInProduction && o.Status != StatusShipped {
		return newValidationError("TRACKING_NOT_ALLOWED", "Tracking can only be added once production has started (order is %s)", o.Status)
	}
	number = strings.TrimSpace(number)
	company = strings.TrimSpace(company)
	if number == "" || company == "" {
		return newValidationError("MISSING_TRACKING", "Tracking number and company must not be empty")
	}
	o.TrackingNumber = &number
	o.TrackingCompany = &company
	o.Touch(now)
	return nil
}

// resolveTracking prefers values supplied with the transition over ones recorded earlier
func (o *Order) resolveTracking(extra TransitionExtra) (string, string) {
	number := strings.TrimSpace(extra.TrackingNumber)
	company := strings.TrimSpace(extra.TrackingCompany)
	if number == "" && o.TrackingNumber != nil {
		number = *o.TrackingNumber
	}
	if company == "" && o.TrackingCompany != nil {
		company = *o.TrackingCompany
	}
	return number, company
}

// MaxProductionHours caps a declared job at one year so the estimate stays within time.Duration
const MaxProductionHours = 24 * 365

func validateProductionHours(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return newValidationError("INVALID_PRODUCTION_HOURS", "Production hours must be a positive number")
	}
	if hours > MaxProductionHours {
		return newValidationError("INVALID_PRODUCTION_HOURS", "Production hours cannot exceed %d", MaxProductionHours)
	}
	return nil
}
