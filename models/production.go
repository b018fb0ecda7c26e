package models

import (
	"math"
	"time"
)

// DefaultDeliveryBuffer is the shipping allowance added after production ends
const DefaultDeliveryBuffer = 48 * time.Hour

// ProductionEstimate is derived from the declared production duration and the wall clock.
// It is recomputed on every read because "now" moves.
type ProductionEstimate struct {
	StartedAt             time.Time `json:"started_at"`
	Hours                 float64   `json:"hours"`
	EndTime               time.Time `json:"end_time"`
	RemainingHours        int       `json:"remaining_hours"`
	ElapsedHours          float64   `json:"elapsed_hours"`
	EstimatedDeliveryDate time.Time `json:"estimated_delivery_date"`
	Complete              bool      `json:"complete"`
}

// EstimateProduction computes the production window for a job started at startedAt
func EstimateProduction(startedAt time.Time, hours float64, now time.Time, buffer time.Duration) ProductionEstimate {
	end := startedAt.Add(time.Duration(hours * float64(time.Hour)))

	remaining := 0
	if left := end.Sub(now); left > 0 {
		remaining = int(math.Ceil(left.Hours()))
	}

	elapsed := now.Sub(startedAt).Hours()
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > hours {
		elapsed = hours
	}

	return ProductionEstimate{
		StartedAt:             startedAt,
		Hours:                 hours,
		EndTime:               end,
		RemainingHours:        remaining,
		ElapsedHours:          elapsed,
		EstimatedDeliveryDate: end.Add(buffer),
		Complete:              !now.Before(end),
	}
}

// ProductionEstimate returns nil until the order has entered production
func (o *Order) ProductionEstimate(now time.Time, buffer time.Duration) *ProductionEstimate {
	if o.ProductionStartedAt == nil || o.ProductionHours == nil {
		return nil
	}
	estimate := EstimateProduction(*o.ProductionStartedAt, *o.ProductionHours, now, buffer)
	return &estimate
}
