package transparency

import (
	"context"
	"log/slog"
)

// Publisher mirrors accepted log entries to an external sink.
type Publisher interface {
	Publish(ctx context.Context, entry Entry) error
}

// Fanout decouples log writes from external publishing: AppendOrUpdate
// enqueues without blocking, Run drains in the background. Publishing is
// best-effort; a full buffer or a failing sink never affects the transition
// that produced the entry.
type Fanout struct {
	inbox     chan Entry
	publisher Publisher
	logger    *slog.Logger
}

func NewFanout(publisher Publisher, buffer int, logger *slog.Logger) *Fanout {
	if buffer <= 0 {
		buffer = 256
	}
	return &Fanout{
		inbox:     make(chan Entry, buffer),
		publisher: publisher,
		logger:    logger,
	}
}

// Enqueue hands an entry to the worker, dropping it when the buffer is full.
func (f *Fanout) Enqueue(entry Entry) {
	select {
	case f.inbox <- entry:
	default:
		if f.logger != nil {
			f.logger.Warn("transparency fanout buffer full, dropping entry",
				"request_id", entry.RequestID)
		}
	}
}

// Run drains the inbox until ctx is cancelled, then drains what is already
// buffered before returning.
func (f *Fanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			f.drain()
			return ctx.Err()
		case entry := <-f.inbox:
			f.publish(ctx, entry)
		}
	}
}

func (f *Fanout) drain() {
	for {
		select {
		case entry := <-f.inbox:
			f.publish(context.Background(), entry)
		default:
			return
		}
	}
}

func (f *Fanout) publish(ctx context.Context, entry Entry) {
	if err := f.publisher.Publish(ctx, entry); err != nil && f.logger != nil {
		f.logger.Warn("failed to publish transparency entry",
			"request_id", entry.RequestID, "error", err.Error())
	}
}
