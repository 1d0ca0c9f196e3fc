package tracking

import (
	"context"
	"errors"
	"time"
)

var ErrUnknownShipment = errors.New("tracking: shipment not found")

type Status string

const (
	StatusPending        Status = "pending"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
)

type Event struct {
	Status      Status
	Location    string
	Description string
	Time        time.Time
}

type Snapshot struct {
	TrackingNumber    string
	Carrier           string
	Status            Status
	Location          string
	Timeline          []Event
	EstimatedDelivery *time.Time
}

// Adapter looks up shipment progress with a carrier.
type Adapter interface {
	Lookup(ctx context.Context, trackingNumber, carrier string) (Snapshot, error)
}
