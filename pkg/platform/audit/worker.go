package audit

import (
	"context"
	"log/slog"
)

// ChannelPublisher hands events to the worker through a bounded channel. A
// full channel drops the event rather than stalling a request; audit here is
// best-effort observability, not a compliance ledger.
type ChannelPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 1024
	}
	return &ChannelPublisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

func (p *ChannelPublisher) Publish(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event", "action", event.Action)
		return nil
	}
}

// Inbox exposes the consuming side for the worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.inbox
}

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations into
// domain code.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled. Store failures are logged and
// skipped so one bad event cannot wedge the pipeline.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to append audit event",
					"action", event.Action, "error", err)
			}
		}
	}
}
