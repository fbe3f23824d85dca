// Package notifier publishes customer notification events to RabbitMQ.
// Rendering and delivery of the actual emails happens downstream; from the
// engine's perspective sends are fire-and-forget and failures are log-only.
package notifier

import "context"

type Kind string

const (
	KindBookingCreated        Kind = "booking.created"
	KindBookingCancelled      Kind = "booking.cancelled"
	KindBookingRestored       Kind = "booking.restored"
	KindPaymentConfirmed      Kind = "payment.confirmed"
	KindPaymentActionRequired Kind = "payment.action_required"
	KindPaymentFailed         Kind = "payment.failed"
	KindPaymentReminder       Kind = "payment.reminder"
	KindTripReminder          Kind = "trip.reminder"
	KindWaitlistJoined        Kind = "waitlist.joined"
	KindWaitlistOffer         Kind = "waitlist.offer"
	KindWaitlistExpired       Kind = "waitlist.expired"
)

// Sender delivers a notification event for a recipient.
type Sender interface {
	Send(ctx context.Context, kind Kind, recipient string, data map[string]any) error
	Close()
}
