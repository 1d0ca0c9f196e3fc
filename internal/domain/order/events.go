package order

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderPaid          = "order.paid"
	EventOrderStatusChanged = "order.status_changed"
)

// EventNames lists every order event, for subscribers that relay all of them.
func EventNames() []string {
	return []string{EventOrderCreated, EventOrderPaid, EventOrderStatusChanged}
}

// OrderCreatedEvent is emitted once an order and its stock reservation are persisted.
type OrderCreatedEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Items       []Line    `json:"items"`
	Total       int64     `json:"total"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Line is the event view of a line item.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

func (OrderCreatedEvent) EventName() string  { return EventOrderCreated }
func (e OrderCreatedEvent) EventKey() string { return e.OrderID }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	lines := make([]Line, len(o.Items))
	for i, it := range o.Items {
		lines[i] = Line{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return OrderCreatedEvent{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		UserID:      o.UserID,
		Items:       lines,
		Total:       o.Total,
		OccurredAt:  time.Now().UTC(),
	}
}

// OrderPaidEvent is emitted when a charge succeeds and the order moves to processing.
type OrderPaidEvent struct {
	OrderID    string    `json:"order_id"`
	PaymentID  string    `json:"payment_id"`
	Method     string    `json:"method"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (OrderPaidEvent) EventName() string  { return EventOrderPaid }
func (e OrderPaidEvent) EventKey() string { return e.OrderID }

func NewOrderPaidEvent(o *Order) OrderPaidEvent {
	return OrderPaidEvent{
		OrderID:    o.ID,
		PaymentID:  o.PaymentID,
		Method:     string(o.PaymentMethod),
		Amount:     o.Total,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderStatusChangedEvent is emitted for operator-driven transitions.
type OrderStatusChangedEvent struct {
	OrderID        string    `json:"order_id"`
	From           Status    `json:"from"`
	To             Status    `json:"to"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (OrderStatusChangedEvent) EventName() string  { return EventOrderStatusChanged }
func (e OrderStatusChangedEvent) EventKey() string { return e.OrderID }

func NewOrderStatusChangedEvent(o *Order, from Status) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:        o.ID,
		From:           from,
		To:             o.Status,
		TrackingNumber: o.TrackingNumber,
		OccurredAt:     time.Now().UTC(),
	}
}
