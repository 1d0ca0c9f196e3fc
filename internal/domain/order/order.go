package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: concurrent modification")
	ErrDuplicateNumber        = errors.New("order: order number already exists")
	ErrNoItems                = errors.New("order: at least one item is required")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount          = errors.New("order: amount must be zero or greater")
	ErrAlreadyPaid            = errors.New("order: already paid")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
	ErrTotalsMismatch         = errors.New("order: totals do not add up")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists the closed set of order states.
func Statuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
}

func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses() {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// LineItem captures the product name and unit price at admission time.
type LineItem struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int
}

func (li LineItem) Total() int64 { return li.UnitPrice * int64(li.Quantity) }

type ShippingAddress struct {
	Name       string
	Phone      string
	Address    string
	City       string
	PostalCode string
}

type Order struct {
	ID            string
	Number        string
	UserID        string
	Items         []LineItem
	Shipping      ShippingAddress
	Subtotal      int64
	ShippingFee   int64
	Total         int64
	PaymentMethod payment.Method
	PaymentStatus PaymentStatus
	PaymentID     string
	Status        Status

	TrackingNumber string
	Carrier        string

	// Version increases on every persisted change; stores compare it on update.
	Version   int
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, number, userID string, items []LineItem, shipping ShippingAddress, method payment.Method, shippingFee int64) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if shippingFee < 0 {
		return nil, ErrInvalidAmount
	}

	captured := make([]LineItem, len(items))
	var subtotal int64
	for i, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("item %d: %w", i, ErrInvalidQuantity)
		}
		if it.UnitPrice < 0 {
			return nil, fmt.Errorf("item %d: %w", i, ErrInvalidAmount)
		}
		captured[i] = it
		subtotal += it.Total()
	}

	now := time.Now().UTC()
	return &Order{
		ID:            id,
		Number:        number,
		UserID:        userID,
		Items:         captured,
		Shipping:      shipping,
		Subtotal:      subtotal,
		ShippingFee:   shippingFee,
		Total:         subtotal + shippingFee,
		PaymentMethod: method,
		PaymentStatus: PaymentUnpaid,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CheckTotals verifies subtotal and total against the captured line items.
func (o *Order) CheckTotals() error {
	var subtotal int64
	for _, it := range o.Items {
		subtotal += it.Total()
	}
	if subtotal != o.Subtotal || o.Total != o.Subtotal+o.ShippingFee {
		return ErrTotalsMismatch
	}
	return nil
}

func (o *Order) OwnedBy(userID string) bool { return o.UserID != "" && o.UserID == userID }

func (o *Order) IsPaid() bool { return o.PaymentStatus == PaymentPaid }

// CanPay reports whether a charge may be attempted.
func (o *Order) CanPay() error {
	if o.IsPaid() {
		return ErrAlreadyPaid
	}
	if o.Status != StatusPending {
		return ErrInvalidStateTransition
	}
	return nil
}

// MarkPaid records a successful charge and moves the order to processing.
func (o *Order) MarkPaid(paymentID string) error {
	if o.IsPaid() {
		return ErrAlreadyPaid
	}
	if err := o.apply(func(s OrderState) (OrderState, error) { return s.OnPaymentSucceeded(o) }); err != nil {
		return err
	}
	now := o.UpdatedAt
	o.PaymentStatus = PaymentPaid
	o.PaymentID = paymentID
	o.PaidAt = &now
	return nil
}

// Ship moves the order to shipped. Empty tracking values keep what is already recorded.
func (o *Order) Ship(trackingNumber, carrier string) error {
	if err := o.apply(func(s OrderState) (OrderState, error) { return s.OnShipped(o) }); err != nil {
		return err
	}
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	if carrier != "" {
		o.Carrier = carrier
	}
	return nil
}

func (o *Order) Deliver() error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnDelivered(o) })
}

func (o *Order) Cancel() error {
	return o.apply(func(s OrderState) (OrderState, error) { return s.OnCancelled(o) })
}

// TransitionTo drives an operator-requested transition.
func (o *Order) TransitionTo(target Status, trackingNumber, carrier string) error {
	switch target {
	case StatusShipped:
		return o.Ship(trackingNumber, carrier)
	case StatusDelivered:
		return o.Deliver()
	case StatusCancelled:
		return o.Cancel()
	default:
		// pending is never re-entered and processing is reserved for payment.
		return ErrInvalidStateTransition
	}
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		clone.PaidAt = &t
	}
	return &clone
}

func (o *Order) apply(fn func(OrderState) (OrderState, error)) error {
	next, err := fn(stateFor(o.Status))
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
