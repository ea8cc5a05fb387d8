package notification

import "context"

// Synchronous adapts a Dispatcher so that Notify delivers before returning.
type Synchronous struct {
	Dispatcher *Dispatcher
}

func (s Synchronous) Notify(_ context.Context, n Notification) {
	s.Dispatcher.Deliver(n)
}
