package tracking

import (
	"context"
	"errors"
	"strings"
	"time"

	domtrack "github.com/Zhima-Mochi/storefront/internal/domain/tracking"
	"github.com/Zhima-Mochi/storefront/internal/pkg/retry"
)

const DefaultCarrier = "SF Express"

// StubCarrier answers every lookup with an in-transit shipment and a fixed three step timeline.
type StubCarrier struct {
	now func() time.Time
}

func NewStubCarrier() *StubCarrier {
	return &StubCarrier{now: time.Now}
}

func (c *StubCarrier) Lookup(ctx context.Context, trackingNumber, carrier string) (domtrack.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domtrack.Snapshot{}, err
	}
	if strings.TrimSpace(trackingNumber) == "" {
		return domtrack.Snapshot{}, domtrack.ErrUnknownShipment
	}
	if carrier == "" {
		carrier = DefaultCarrier
	}

	now := c.now().UTC()
	eta := now.Add(48 * time.Hour)
	return domtrack.Snapshot{
		TrackingNumber: trackingNumber,
		Carrier:        carrier,
		Status:         domtrack.StatusInTransit,
		Location:       "Beijing sorting center",
		Timeline: []domtrack.Event{
			{Status: domtrack.StatusInTransit, Location: "Beijing sorting center", Description: "Arrived at Beijing sorting center", Time: now},
			{Status: domtrack.StatusInTransit, Location: "Shanghai sorting center", Description: "Departed Shanghai sorting center", Time: now.Add(-time.Hour)},
			{Status: domtrack.StatusInTransit, Location: "Shanghai sorting center", Description: "Arrived at Shanghai sorting center", Time: now.Add(-2 * time.Hour)},
		},
		EstimatedDelivery: &eta,
	}, nil
}

// Retrying retries failed lookups; an unknown shipment is final.
type Retrying struct {
	next   domtrack.Adapter
	policy retry.Policy
}

func NewRetrying(next domtrack.Adapter, policy retry.Policy) *Retrying {
	return &Retrying{next: next, policy: policy}
}

func (r *Retrying) Lookup(ctx context.Context, trackingNumber, carrier string) (domtrack.Snapshot, error) {
	return retry.Do(ctx, r.policy, func(ctx context.Context) (domtrack.Snapshot, error) {
		snap, err := r.next.Lookup(ctx, trackingNumber, carrier)
		if errors.Is(err, domtrack.ErrUnknownShipment) {
			return snap, retry.Permanent(err)
		}
		return snap, err
	})
}
