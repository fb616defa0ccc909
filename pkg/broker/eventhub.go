package broker

import (
	"context"
	"runtime"
	"sync"

	"github.com/deviceflow/resbroker/internal/telemetry"
)

// Handler receives completion events published by the scheduler.
type Handler func(CompletionEvent)

// subscription is an opaque handle identifying one registered Handler.
type subscription uint64

// EventHub fans completion events out to subscribers with per-handler
// fault isolation. Dispatch is fire-and-forget: Publish schedules each
// handler invocation onto a bounded worker pool and returns immediately.
// A handler that panics is caught, logged, and never prevents other
// handlers — or the scheduler's drain loop — from continuing.
type EventHub struct {
	logger Logger

	mu     sync.RWMutex
	nextID subscription
	subs   map[subscription]Handler
	closed bool

	work    chan func()
	wg      sync.WaitGroup
	pending sync.WaitGroup
}

// NewEventHub builds an EventHub with a worker pool sized to GOMAXPROCS.
func NewEventHub(logger Logger) *EventHub {
	if logger == nil {
		logger = NoopLogger{}
	}

	h := &EventHub{
		logger: logger,
		subs:   make(map[subscription]Handler),
		work:   make(chan func(), 256),
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go h.runWorker()
	}

	return h
}

// runWorker drains h.work until it is closed, isolating each job's panics
// so one faulting handler never takes down the worker.
func (h *EventHub) runWorker() {
	defer h.wg.Done()
	for job := range h.work {
		h.runJob(job)
	}
}

// runJob invokes job, recovering and logging any panic so the caller's
// worker survives.
func (h *EventHub) runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("event handler panicked", "recovered", r)
		}
	}()
	job()
}

// Subscribe registers fn to receive every future completion event and
// returns a token Unsubscribe can later use to remove it.
func (h *EventHub) Subscribe(fn Handler) subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.subs[id] = fn
	return id
}

// Unsubscribe removes a previously registered handler. Safe to call more
// than once.
func (h *EventHub) Unsubscribe(id subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// Publish schedules evt for delivery to every currently subscribed
// handler. There is no ordering guarantee among handlers for the same
// event; events themselves are published in the order the scheduler
// completes them.
func (h *EventHub) Publish(evt CompletionEvent) {
	_, span := telemetry.StartSpan(context.Background(), telemetry.SpanDispatchEvent)
	defer span.End()

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	handlers := make([]Handler, 0, len(h.subs))
	for _, fn := range h.subs {
		handlers = append(handlers, fn)
	}
	// Counted before releasing the lock so a concurrent Close, which takes
	// the write lock to set closed, can never observe pending == 0 while a
	// sender goroutine is still about to start.
	h.pending.Add(len(handlers))
	h.mu.RUnlock()

	// Handed off via a short-lived goroutine rather than sent directly so
	// Publish never blocks the scheduler's drain loop even if the bounded
	// worker pool is momentarily saturated.
	for _, fn := range handlers {
		fn := fn
		go func() {
			defer h.pending.Done()
			h.work <- func() { fn(evt) }
		}()
	}
}

// Close stops accepting new work, waits for every sender goroutine spawned
// by Publish to finish delivering its job to the worker pool, then closes
// the work channel and waits for the workers to drain it. Closing closed
// under the same lock Publish reads it under, before the pending-sender
// wait, is what makes it safe to close h.work here: no Publish call that
// started before closed flipped can still be mid-send afterward.
func (h *EventHub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.pending.Wait()
	close(h.work)
	h.wg.Wait()
}
