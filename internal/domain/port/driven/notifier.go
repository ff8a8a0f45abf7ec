package driven

import "context"

// Notifier defines the driven port for delivering a text message to a single
// subscriber. Delivery is best-effort and one-way: a failed send is reported
// to the caller but never retried by the adapter.
type Notifier interface {
	Send(ctx context.Context, subscriberID, text string) error
}
