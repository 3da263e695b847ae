package usecase

import "context"

// EventPublisher publishes domain events to the message broker. Event
// delivery is best effort: usecases log publish failures and continue,
// the write that triggered the event is already durable.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Mailer sends transactional notifications.
type Mailer interface {
	SendReportResolved(ctx context.Context, toEmail, reporterName, adTitle, adminNotes string) error
}
