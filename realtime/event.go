package realtime

import (
	"context"

	"github.com/yazicin/yazicin-api/models"
)

// Kind names the feed an event belongs to
type Kind string

const (
	KindOrder  Kind = "order"
	KindThread Kind = "thread"
)

// Event is a full snapshot of an order or of an order's message thread after a committed write.
//
// Version orders snapshots of the same feed: the order's version column for KindOrder,
// the number of messages for KindThread.
type Event struct {
	Kind       Kind             `json:"kind"`
	OrderID    string           `json:"order_id"`
	CustomerID string           `json:"customer_id"`
	ProviderID string           `json:"provider_id"`
	Version    int64            `json:"version"`
	Order      *models.Order    `json:"order,omitempty"`
	Messages   []models.Message `json:"messages,omitempty"`
}

// OrderEvent snapshots an order
func OrderEvent(order *models.Order) Event {
	return Event{
		Kind:       KindOrder,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		ProviderID: order.ProviderID,
		Version:    order.Version,
		Order:      order,
	}
}

// ThreadEvent snapshots the whole thread of order
func ThreadEvent(order *models.Order, messages []models.Message) Event {
	return Event{
		Kind:       KindThread,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		ProviderID: order.ProviderID,
		Version:    int64(len(messages)),
		Messages:   messages,
	}
}

func (e Event) feedKey() string {
	return string(e.Kind) + ":" + e.OrderID
}

// stale reports whether e is older than the last snapshot delivered for its feed.
// Thread snapshots with an equal count are re-delivered since read flags may have changed.
func (e Event) stale(last int64) bool {
	if e.Kind == KindThread {
		return e.Version < last
	}
	return e.Version <= last
}

// Filter selects the events a subscription receives. Empty fields match anything.
type Filter struct {
	Kind       Kind
	OrderID    string
	CustomerID string
	ProviderID string
}

func (f Filter) Matches(e Event) bool {
	if f.Kind != "" && f.Kind != e.Kind {
		return false
	}
	if f.OrderID != "" && f.OrderID != e.OrderID {
		return false
	}
	if f.CustomerID != "" && f.CustomerID != e.CustomerID {
		return false
	}
	if f.ProviderID != "" && f.ProviderID != e.ProviderID {
		return false
	}
	return true
}

// Publisher fans a committed change out to subscribers. Implemented by Hub for a single
// process and by RedisBroker when several API processes share one feed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
