package order

// OrderState implements the state pattern for order lifecycle transitions.
type OrderState interface {
	Status() Status
	OnPaymentSucceeded(o *Order) (OrderState, error)
	OnShipped(o *Order) (OrderState, error)
	OnDelivered(o *Order) (OrderState, error)
	OnCancelled(o *Order) (OrderState, error)
}

func stateFor(s Status) OrderState {
	switch s {
	case StatusProcessing:
		return processingState{}
	case StatusShipped:
		return shippedState{}
	case StatusDelivered:
		return deliveredState{}
	case StatusCancelled:
		return cancelledState{}
	default:
		return pendingState{}
	}
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return processingState{}, nil
}

func (pendingState) OnShipped(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (pendingState) OnDelivered(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (pendingState) OnCancelled(*Order) (OrderState, error) {
	return cancelledState{}, nil
}

type processingState struct{}

func (processingState) Status() Status { return StatusProcessing }

func (processingState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (processingState) OnShipped(*Order) (OrderState, error) {
	return shippedState{}, nil
}

func (processingState) OnDelivered(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (processingState) OnCancelled(*Order) (OrderState, error) {
	return cancelledState{}, nil
}

type shippedState struct{}

func (shippedState) Status() Status { return StatusShipped }

func (shippedState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

// Re-shipping keeps the state and lets operators correct tracking data.
func (shippedState) OnShipped(*Order) (OrderState, error) {
	return shippedState{}, nil
}

func (shippedState) OnDelivered(*Order) (OrderState, error) {
	return deliveredState{}, nil
}

func (shippedState) OnCancelled(*Order) (OrderState, error) {
	return cancelledState{}, nil
}

type deliveredState struct{}

func (deliveredState) Status() Status { return StatusDelivered }

func (deliveredState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (deliveredState) OnShipped(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (deliveredState) OnDelivered(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (deliveredState) OnCancelled(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

type cancelledState struct{}

func (cancelledState) Status() Status { return StatusCancelled }

func (cancelledState) OnPaymentSucceeded(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (cancelledState) OnShipped(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (cancelledState) OnDelivered(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}

func (cancelledState) OnCancelled(*Order) (OrderState, error) {
	return nil, ErrInvalidStateTransition
}
