// Package feed keeps a live, newest-first view of recent orders for one
// dashboard instance: it applies store snapshots, detects new arrivals,
// sends status edits through the relay and renders the result.
package feed

import (
	"context"
	"time"

	"cafedash/internal/domain"
	"cafedash/internal/metrics"
)

// Source delivers the full set of orders with timestamp >= sinceMillis on
// every change. Watch blocks until ctx is cancelled or the subscription
// fails; push is called from Watch's goroutine, one snapshot at a time.
type Source interface {
	Watch(ctx context.Context, sinceMillis int64, push func(domain.Snapshot)) error
}

type Alerter interface {
	Trigger()
}

// WindowStart is the lower timestamp bound for a feed opened at now.
func WindowStart(now time.Time, window time.Duration) int64 {
	return now.Add(-window).UnixMilli()
}

// DetectNewArrivals returns the ids in current that are absent from
// previous.
func DetectNewArrivals(previous map[string]struct{}, current []domain.Order) map[string]struct{} {
	fresh := make(map[string]struct{})
	for _, o := range current {
		if _, seen := previous[o.ID]; !seen {
			fresh[o.ID] = struct{}{}
		}
	}
	return fresh
}

// Subscriber holds the local snapshot. It is not safe for concurrent use;
// a Session drives it from a single goroutine.
type Subscriber struct {
	alert Alerter

	orders               []domain.Order
	known                map[string]struct{}
	hasReceivedFirstPush bool
}

func NewSubscriber(alert Alerter) *Subscriber {
	return &Subscriber{
		alert: alert,
		known: map[string]struct{}{},
	}
}

// Apply replaces the local snapshot and returns the ids that were not in
// the previous one. The alert fires once per push with new arrivals,
// except on the first push.
func (s *Subscriber) Apply(snapshot domain.Snapshot) map[string]struct{} {
	current := snapshot.Sorted()
	fresh := DetectNewArrivals(s.known, current)
	initial := !s.hasReceivedFirstPush

	known := make(map[string]struct{}, len(current))
	for _, o := range current {
		known[o.ID] = struct{}{}
	}
	s.orders = current
	s.known = known
	s.hasReceivedFirstPush = true
	metrics.FeedPushesTotal.Inc()

	if !initial && len(fresh) > 0 && s.alert != nil {
		s.alert.Trigger()
	}
	return fresh
}

func (s *Subscriber) Orders() []domain.Order {
	return s.orders
}

func (s *Subscriber) Loaded() bool {
	return s.hasReceivedFirstPush
}

// Patch sets the status of one order in place. It reports false when the
// order is no longer in the local snapshot.
func (s *Subscriber) Patch(orderID string, status domain.Status) bool {
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = status
			return true
		}
	}
	return false
}
