// Package poll implements the client-side notification channel: a citizen
// session polls its pending requests and surfaces each one exactly once.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trustgrid/internal/consent"
	id "trustgrid/pkg/domain"
)

// DefaultInterval matches what the reference clients use.
const DefaultInterval = 3 * time.Second

// Source lists a citizen's pending requests, newest first.
type Source interface {
	PendingForUser(ctx context.Context, userID id.UserID) ([]*consent.ConsentRequest, error)
}

// Poller periodically fetches a citizen's pending requests and delivers the
// ones not yet surfaced in this session on Updates. An id is surfaced at
// most once unless the caller Forgets it; a forgotten id comes back only if
// the request is still pending.
type Poller struct {
	source   Source
	userID   id.UserID
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	seen map[id.RequestID]struct{}

	updates chan *consent.ConsentRequest
}

type Option func(p *Poller)

// WithInterval sets the poll interval. Zero polls continuously; negative
// values fall back to the default.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d >= 0 {
			p.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// New creates a Poller for one citizen session.
func New(source Source, userID id.UserID, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		userID:   userID,
		interval: DefaultInterval,
		logger:   slog.Default(),
		seen:     make(map[id.RequestID]struct{}),
		updates:  make(chan *consent.ConsentRequest, 16),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Updates delivers newly surfaced pending requests. Closed when Run returns.
func (p *Poller) Updates() <-chan *consent.ConsentRequest {
	return p.updates
}

// Run polls until ctx is cancelled. Fetch errors are logged and the next
// tick retries; a poll failure never ends the session.
func (p *Poller) Run(ctx context.Context) error {
	defer close(p.updates)
	for {
		if err := p.pollOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.WarnContext(ctx, "pending poll failed", "error", err.Error())
		}

		if p.interval == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

// Forget clears an id from the session's surfaced set, typically after a
// decision round-trip failed. If the request is still pending the next poll
// surfaces it again; if it was decided meanwhile it stays gone.
func (p *Poller) Forget(requestID id.RequestID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.seen, requestID)
}

func (p *Poller) pollOnce(ctx context.Context) error {
	pending, err := p.source.PendingForUser(ctx, p.userID)
	if err != nil {
		return err
	}

	for _, request := range pending {
		if !p.markSeen(request.ID) {
			continue
		}
		select {
		case p.updates <- request:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// markSeen records the id, reporting whether it was new.
func (p *Poller) markSeen(requestID id.RequestID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[requestID]; ok {
		return false
	}
	p.seen[requestID] = struct{}{}
	return true
}
