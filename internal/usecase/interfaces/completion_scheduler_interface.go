package interfaces

// ICompletionScheduler runs one deferred completion per order id.
type ICompletionScheduler interface {
	Schedule(orderID string, fire func(orderID string))
	Cancel(orderID string) bool
}
