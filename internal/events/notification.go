package events

import "log/slog"

// NotificationLogger stands in for the messaging collaborator: every event
// becomes one structured log line the delivery pipeline can tail.
type NotificationLogger struct {
	logger *slog.Logger
}

// NewNotificationLogger creates the logging subscriber.
func NewNotificationLogger(logger *slog.Logger) *NotificationLogger {
	return &NotificationLogger{logger: logger}
}

// Handle records the event.
func (n *NotificationLogger) Handle(evt Event) {
	switch e := evt.(type) {
	case ApplicationSubmitted:
		n.logger.Info("notify application submitted",
			slog.Int64("application_id", e.ApplicationID),
			slog.Int64("student_id", e.StudentID),
			slog.Int64("program_id", e.ProgramID),
		)
	case ApplicationStatusChanged:
		n.logger.Info("notify application status changed",
			slog.Int64("application_id", e.ApplicationID),
			slog.Int64("student_id", e.StudentID),
			slog.String("from", string(e.From)),
			slog.String("to", string(e.To)),
		)
	case PaymentCompleted:
		n.logger.Info("notify payment completed",
			slog.Int64("payment_id", e.PaymentID),
			slog.Int64("application_id", e.ApplicationID),
			slog.Int64("amount", e.Amount),
			slog.String("currency", e.Currency),
		)
	default:
		n.logger.Info("notify event", slog.String("event", evt.Name()))
	}
}
