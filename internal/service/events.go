package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/conference-portal/internal/queue"
)

// EventPublisher delivers domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// CacheInvalidator drops cached schedule responses after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// NopPublisher discards events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.Event) error { return nil }

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context) error { return nil }

// publishTimeout bounds one publish, broker dial included.
const publishTimeout = 5 * time.Second

// notifier publishes events and invalidates caches on a best-effort basis:
// the write that triggered them has already committed.
type notifier struct {
	events EventPublisher
	cache  CacheInvalidator
	log    *logrus.Logger
}

func newNotifier(events EventPublisher, cache CacheInvalidator, log *logrus.Logger) notifier {
	if events == nil {
		events = NopPublisher{}
	}
	if cache == nil {
		cache = nopInvalidator{}
	}
	return notifier{events: events, cache: cache, log: log}
}

func (n notifier) publish(ctx context.Context, ev queue.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := n.events.Publish(ctx, ev); err != nil {
		n.log.WithError(err).WithField("event", ev.Type).Warn("publish event failed")
	}
}

func (n notifier) invalidate(ctx context.Context) {
	if err := n.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		n.log.WithError(err).Warn("invalidate schedule cache failed")
	}
}
