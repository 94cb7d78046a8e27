// Package background runs the periodic fetch that notifies participants
// while no client is attached.
package background

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/metrics"
	"github.com/matheus3301/huddle/internal/notify"
	"github.com/matheus3301/huddle/internal/remote"
	"go.uber.org/zap"
)

// TaskID is the id the fetch task is defined and registered under.
const TaskID = "BACKGROUND_FETCH_TASK"

// Result is what a task run reports back to the scheduler.
type Result string

const (
	NewData Result = "new_data"
	NoData  Result = "no_data"
	Failed  Result = "failed"
)

// ErrUnknownTask is returned for task ids that were never defined.
var ErrUnknownTask = errors.New("unknown background task")

// TaskFunc is the body of a background task.
type TaskFunc func(ctx context.Context) Result

// Options control how often a registered task runs.
type Options struct {
	MinimumInterval time.Duration
	StopOnTerminate bool
	StartOnBoot     bool
}

// OptionsFrom builds the registration options of the fetch task from the
// profile's [background] table.
func OptionsFrom(cfg config.Background) Options {
	return Options{
		MinimumInterval: cfg.MinimumInterval,
		StopOnTerminate: cfg.StopOnTerminate,
		StartOnBoot:     cfg.StartOnBoot,
	}
}

// Scheduler runs defined tasks periodically.
type Scheduler interface {
	Define(taskID string, fn TaskFunc)
	Register(ctx context.Context, taskID string, opts Options) error
	Unregister(ctx context.Context, taskID string) error
}

// FetchTask polls the store once and raises a generic notification when it
// holds any message.
type FetchTask struct {
	store      remote.Store
	dispatcher notify.Dispatcher
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewFetchTask creates the fetch task.
func NewFetchTask(store remote.Store, d notify.Dispatcher, logger *zap.Logger, m *metrics.Metrics) *FetchTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchTask{store: store, dispatcher: d, logger: logger, metrics: m}
}

// Run performs one poll. It never panics; any failure yields Failed.
//
// An empty collection still reports NewData, matching what background
// fetch consumers expect after a successful poll.
func (t *FetchTask) Run(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("background fetch panicked", zap.Any("panic", r))
			res = Failed
		}
	}()

	snap, err := t.store.Fetch(ctx)
	if err != nil {
		t.logger.Error("background fetch failed", zap.Error(err))
		return Failed
	}
	n := snap.Len()
	t.logger.Debug("background fetch", zap.Int("messages", n))
	if n == 0 {
		return NewData
	}

	if err := t.dispatcher.Schedule(ctx, notify.GenericContent()); err != nil {
		if notify.Dropped(err) {
			t.metrics.Notification("background", "dropped")
			t.logger.Debug("background notification dropped", zap.Error(err))
			return NewData
		}
		t.metrics.Notification("background", "failed")
		t.logger.Error("background notification failed", zap.Error(err))
		return Failed
	}
	t.metrics.Notification("background", "shown")
	return NewData
}

// Func adapts the task for Scheduler.Define.
func (t *FetchTask) Func() TaskFunc {
	return t.Run
}

// runSafely calls fn and converts a panic into Failed.
func runSafely(ctx context.Context, fn TaskFunc) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Failed, fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx), nil
}
