package sweep

//go:generate mockgen -source=notifier.go -destination=mocks/mocks.go -package=mocks Notifier

import (
	"context"
	"log/slog"
)

// Notifier is the outbound port for reminder delivery. Implementations own
// their retry policy; the sweep counts a single accept or reject per item
// and moves on.
type Notifier interface {
	Send(ctx context.Context, item ReminderItem) error
}

// LogNotifier writes reminders to the log. It stands in when no delivery
// collaborator is configured, keeping the sweep observable in dev and test
// deployments.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, item ReminderItem) error {
	n.logger.InfoContext(ctx, "reminder",
		"company_name", item.CompanyName,
		"type", item.Type,
		"due_at", item.DueAt,
		"overdue_days", item.OverdueDays,
	)
	return nil
}
