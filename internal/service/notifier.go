package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/queue"
)

// Notifier receives lifecycle facts.  Delivery is the sink's concern; a
// failed Notify never fails the operation that produced the fact.
type Notifier interface {
	Notify(ctx context.Context, n queue.Notification) error
}

// LogNotifier writes notifications to the structured log.  It is used when
// no broker is configured.
type LogNotifier struct {
	log *zerolog.Logger
}

// NewLogNotifier returns a LogNotifier writing to log.
func NewLogNotifier(log *zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n queue.Notification) error {
	ev := l.log.Info().
		Str("notification_id", n.ID).
		Str("kind", string(n.Kind)).
		Uint64("event_id", n.EventID).
		Str("status", n.Status)
	if n.RecipientUserID != 0 {
		ev = ev.Uint64("recipient_user_id", n.RecipientUserID)
	}
	if n.Reason != "" {
		ev = ev.Str("reason", n.Reason)
	}
	ev.Msg("notification")
	return nil
}

const notifyTimeout = 5 * time.Second

// emit hands n to the notifier detached from the request's cancellation and
// logs any failure.
func emit(ctx context.Context, notifier Notifier, log *zerolog.Logger, n queue.Notification) {
	if notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := notifier.Notify(ctx, n); err != nil {
		log.Warn().Err(err).Str("kind", string(n.Kind)).Uint64("event_id", n.EventID).Msg("notification dropped")
	}
}
