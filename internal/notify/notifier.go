package notify

import (
	"context"
	"log/slog"
)

// Event names emitted by the services.
const (
	EventDocumentCreated  = "document.created"
	EventDocumentObsolete = "document.obsolete"
	EventRevisionApproved = "revision.approved"
	EventRevisionRejected = "revision.rejected"
	EventCopyDistributed  = "distribution.created"
	EventCopyReturned     = "distribution.returned"
)

// Notifier is the mail/notification collaborator: best-effort and
// non-blocking. Failures never propagate to the triggering operation.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]interface{})
}

// LogNotifier records events to the structured log. It stands in for the
// real mail dispatcher, which is owned by another system.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by the structured log
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier. Dispatch happens on a separate goroutine so a
// slow sink cannot stall the request.
func (n *LogNotifier) Notify(ctx context.Context, event string, payload map[string]interface{}) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.logger.Error("notifier panic", "event", event, "panic", r)
			}
		}()

		args := make([]interface{}, 0, 2+2*len(payload))
		args = append(args, "event", event)
		for k, v := range payload {
			args = append(args, k, v)
		}
		n.logger.Info("notification", args...)
	}()
}
