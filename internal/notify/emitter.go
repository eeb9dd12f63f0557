// Package notify records human-readable events for recipients after state
// transitions commit. Emission is best-effort: it runs after the commit,
// failures are logged and dropped, and the ledger never depends on it.
package notify

import (
	"context"
	"log/slog"
)

// Emitter is what the state machines call after committing a transition.
type Emitter interface {
	Emit(ctx context.Context, toEmail, message, actionRoute string)
}

// EnqueueFunc inserts a notification job into the queue. Provided by main
// as a closure over river.Client.Insert.
type EnqueueFunc func(ctx context.Context, args JobArgs) error

// QueueEmitter hands notifications to the background queue so a slow or
// failing insert never delays the request that triggered it.
type QueueEmitter struct {
	enqueue EnqueueFunc
	log     *slog.Logger
}

func NewQueueEmitter(enqueue EnqueueFunc, log *slog.Logger) *QueueEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &QueueEmitter{enqueue: enqueue, log: log}
}

var _ Emitter = (*QueueEmitter)(nil)

func (e *QueueEmitter) Emit(ctx context.Context, toEmail, message, actionRoute string) {
	err := e.enqueue(ctx, JobArgs{ToEmail: toEmail, Message: message, ActionRoute: actionRoute})
	if err != nil {
		e.log.Error("notification enqueue failed", "to", toEmail, "error", err)
	}
}
