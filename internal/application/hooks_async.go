package application

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-service/internal/domain/entity"
)

// AsyncHooks hands events to Next on a single background goroutine, so slow
// observers (search index, mail queue) stay off the request path. Events are
// delivered in the order they were raised, each on a context detached from
// the request and bounded by Timeout. When the queue is full the event runs
// inline instead of being dropped.
type AsyncHooks struct {
	Next    Hooks
	Timeout time.Duration
	Logger  *logrus.Logger

	jobs      chan hookJob
	done      chan struct{}
	closeOnce sync.Once
}

type hookJob struct {
	ctx context.Context
	fn  func(context.Context)
}

func NewAsyncHooks(next Hooks, queue int, timeout time.Duration, logger *logrus.Logger) *AsyncHooks {
	if queue <= 0 {
		queue = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	h := &AsyncHooks{
		Next:    next,
		Timeout: timeout,
		Logger:  logger,
		jobs:    make(chan hookJob, queue),
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *AsyncHooks) loop() {
	defer close(h.done)
	for job := range h.jobs {
		h.run(job)
	}
}

func (h *AsyncHooks) run(job hookJob) {
	ctx, cancel := context.WithTimeout(job.ctx, h.Timeout)
	defer cancel()
	job.fn(ctx)
}

func (h *AsyncHooks) enqueue(ctx context.Context, fn func(context.Context)) {
	job := hookJob{ctx: context.WithoutCancel(ctx), fn: fn}
	select {
	case h.jobs <- job:
	default:
		if h.Logger != nil {
			h.Logger.Warn("hook queue full; running inline")
		}
		h.run(job)
	}
}

// Close stops accepting events and waits for queued ones to finish.
// Raising an event after Close panics.
func (h *AsyncHooks) Close() {
	h.closeOnce.Do(func() { close(h.jobs) })
	<-h.done
}

func snapshot(u *entity.User) *entity.User {
	cp := *u
	return &cp
}

func (h *AsyncHooks) AfterRegister(ctx context.Context, u *entity.User) {
	u = snapshot(u)
	h.enqueue(ctx, func(c context.Context) { h.Next.AfterRegister(c, u) })
}

func (h *AsyncHooks) AfterUpdate(ctx context.Context, u *entity.User, fields []string) {
	u = snapshot(u)
	fields = append([]string(nil), fields...)
	h.enqueue(ctx, func(c context.Context) { h.Next.AfterUpdate(c, u, fields) })
}

func (h *AsyncHooks) AfterLogin(ctx context.Context, u *entity.User, meta LoginMeta) {
	u = snapshot(u)
	h.enqueue(ctx, func(c context.Context) { h.Next.AfterLogin(c, u, meta) })
}

func (h *AsyncHooks) AfterDelete(ctx context.Context, u *entity.User) {
	u = snapshot(u)
	h.enqueue(ctx, func(c context.Context) { h.Next.AfterDelete(c, u) })
}
