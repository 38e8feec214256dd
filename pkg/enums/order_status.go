package enums

// OrderStatus tracks the payment lifecycle of an order.
//
// Transitions are monotonic: created -> pending -> success, with
// created -> canceled as the only alternate edge. Success and canceled
// are terminal.
type OrderStatus string

const (
	OrderStatusCreated  OrderStatus = "created"
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusSuccess  OrderStatus = "success"
	OrderStatusCanceled OrderStatus = "canceled"
)

// CanTransition reports whether moving from s to target is allowed.
func (s OrderStatus) CanTransition(target OrderStatus) bool {
	switch s {
	case OrderStatusCreated:
		return target == OrderStatusPending || target == OrderStatusCanceled
	case OrderStatusPending:
		return target == OrderStatusSuccess
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusSuccess || s == OrderStatusCanceled
}
