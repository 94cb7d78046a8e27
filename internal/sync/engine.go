package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"

	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/metrics"
	"github.com/matheus3301/huddle/internal/notify"
	"github.com/matheus3301/huddle/internal/remote"
	"github.com/matheus3301/huddle/internal/session"
	"github.com/matheus3301/huddle/internal/status"
	"go.uber.org/zap"
)

// ErrStopped is returned by Start after Stop.
var ErrStopped = errors.New("sync engine stopped")

// Options tune the engine's notification behaviour.
type Options struct {
	Strategy      Strategy
	NotifyInitial bool
	Metrics       *metrics.Metrics
}

// Engine keeps a session's message list in step with the remote collection
// and raises a notification when a new message arrives.
//
// Snapshots are handed from the store's callback to a single dispatch
// goroutine, which is the only writer of the session's messages.
type Engine struct {
	store      remote.Store
	state      *session.State
	dispatcher notify.Dispatcher
	bus        *bus.Bus
	logger     *zap.Logger
	metrics    *metrics.Metrics
	reconciler *Reconciler
	machine    *status.Machine

	mu      gosync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	sub     remote.Subscription
	done    chan struct{}
}

// NewEngine creates a new sync engine.
func NewEngine(store remote.Store, state *session.State, d notify.Dispatcher, b *bus.Bus, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:      store,
		state:      state,
		dispatcher: d,
		bus:        b,
		logger:     logger,
		metrics:    opts.Metrics,
		reconciler: NewReconciler(opts.Strategy, opts.NotifyInitial),
		machine:    status.NewMachine(b),
	}
}

// State returns the subscription state.
func (e *Engine) State() status.State {
	return e.machine.Current()
}

// Start subscribes to the messages collection. A subscription failure is
// returned and leaves the engine Degraded; Stop is still safe to call.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrStopped
	}
	if e.started {
		e.mu.Unlock()
		return errors.New("sync engine already started")
	}
	e.started = true
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	done := make(chan struct{})
	e.done = done
	e.mu.Unlock()

	_ = e.machine.Transition(status.Subscribing)

	snapshots := make(chan *remote.Snapshot, 16)
	go e.loop(ctx, snapshots, done)

	sub, err := e.store.Subscribe(ctx, func(s *remote.Snapshot) {
		select {
		case snapshots <- s:
		case <-ctx.Done():
		}
	})
	if err != nil {
		e.logger.Error("subscribe to messages failed; live updates disabled", zap.Error(err))
		cancel()
		_ = e.machine.Transition(status.Degraded)
		return fmt.Errorf("subscribe: %w", err)
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	e.sub = sub
	e.mu.Unlock()

	e.logger.Info("subscribed to messages", zap.String("collection", remote.Collection))
	return nil
}

// Stop detaches the subscription and waits for the dispatch goroutine to
// finish. It is idempotent and safe whether or not Start ran or succeeded.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	sub, cancel, done := e.sub, e.cancel, e.done
	e.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	_ = e.machine.Transition(status.Stopped)
}

func (e *Engine) loop(ctx context.Context, snapshots <-chan *remote.Snapshot, done chan struct{}) {
	defer close(done)
	for {
		select {
		case snap := <-snapshots:
			e.apply(ctx, snap)
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) apply(ctx context.Context, snap *remote.Snapshot) {
	res := e.reconciler.Reconcile(snap)
	e.state.ReplaceMessages(res.Messages)
	e.metrics.Snapshot(len(res.Messages))
	_ = e.machine.Transition(status.Live)
	e.bus.Publish(bus.NewEvent(bus.SyncSnapshot, len(res.Messages)))

	e.logger.Debug("snapshot applied",
		zap.Int("messages", len(res.Messages)),
		zap.Int("fresh", len(res.Fresh)),
		zap.String("watermark", e.reconciler.Watermark()))

	if res.Notify != nil {
		e.notify(ctx, *res.Notify)
	}
}

func (e *Engine) notify(ctx context.Context, m remote.Message) {
	err := e.dispatcher.Schedule(ctx, notify.MessageContent(m.Username, m.Text))
	switch {
	case err == nil:
		e.metrics.Notification("live", "shown")
	case notify.Dropped(err):
		e.metrics.Notification("live", "dropped")
		e.logger.Debug("notification dropped", zap.String("msg_id", m.ID), zap.Error(err))
	default:
		e.metrics.Notification("live", "failed")
		e.logger.Warn("notification failed", zap.String("msg_id", m.ID), zap.Error(err))
	}
}
