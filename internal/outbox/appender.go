package outbox

import (
	"context"
	"sync"

	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/metrics"
	"github.com/matheus3301/huddle/internal/remote"
	"go.uber.org/zap"
)

// Appender writes a record to the remote store on behalf of the submitter.
// Implementations decide whether Append waits for the store.
type Appender interface {
	Append(ctx context.Context, r remote.Record) error
	// Close waits for in-flight appends to finish.
	Close()
}

// reporter logs and publishes the outcome of an append.
type reporter struct {
	bus     *bus.Bus
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func (r reporter) report(id string, err error) {
	if err != nil {
		r.metrics.Submission("failed")
		r.logger.Error("append message failed", zap.Error(err))
		r.bus.Publish(bus.NewEvent(bus.OutboxFailed, err.Error()))
		return
	}
	r.metrics.Submission("appended")
	r.logger.Debug("message appended", zap.String("msg_id", id))
	r.bus.Publish(bus.NewEvent(bus.OutboxSent, id))
}

// FireAndForget appends in a background goroutine and returns immediately.
// Failures are logged and counted but never reach the caller.
type FireAndForget struct {
	store remote.Store
	reporter
	wg sync.WaitGroup
}

// NewFireAndForget creates an appender that does not wait for the store.
func NewFireAndForget(store remote.Store, b *bus.Bus, logger *zap.Logger, m *metrics.Metrics) *FireAndForget {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FireAndForget{store: store, reporter: reporter{bus: b, logger: logger, metrics: m}}
}

func (f *FireAndForget) Append(ctx context.Context, r remote.Record) error {
	// The append must outlive the caller's request.
	ctx = context.WithoutCancel(ctx)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		id, err := f.store.Append(ctx, r)
		f.report(id, err)
	}()
	return nil
}

func (f *FireAndForget) Close() {
	f.wg.Wait()
}

// Await appends synchronously and returns the store's error.
type Await struct {
	store remote.Store
	reporter
}

// NewAwait creates an appender that waits for the store.
func NewAwait(store remote.Store, b *bus.Bus, logger *zap.Logger, m *metrics.Metrics) *Await {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Await{store: store, reporter: reporter{bus: b, logger: logger, metrics: m}}
}

func (a *Await) Append(ctx context.Context, r remote.Record) error {
	id, err := a.store.Append(ctx, r)
	a.report(id, err)
	return err
}

func (a *Await) Close() {}
