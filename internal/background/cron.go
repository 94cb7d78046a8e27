package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/metrics"
	"github.com/matheus3301/huddle/internal/store"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultFloor is the shortest interval a task may be registered with.
const DefaultFloor = time.Minute

// Registry persists task registrations across restarts.
type Registry interface {
	SaveTask(ctx context.Context, reg store.TaskRegistration) error
	DeleteTask(ctx context.Context, taskID string) error
	ListTasks(ctx context.Context) ([]store.TaskRegistration, error)
}

// RunReport is published on the bus after every run.
type RunReport struct {
	TaskID   string
	Result   Result
	Duration time.Duration
}

// CronConfig configures a CronScheduler.
type CronConfig struct {
	// Registry is optional; without it registrations are not persisted.
	Registry Registry
	// Timeout bounds a single run. Zero means no timeout.
	Timeout time.Duration
	// Floor is the minimum effective interval. Zero means DefaultFloor.
	Floor   time.Duration
	Bus     *bus.Bus
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

type registration struct {
	entry cron.EntryID
	opts  Options
}

// CronScheduler runs registered tasks on fixed intervals.
type CronScheduler struct {
	cron     *cron.Cron
	registry Registry
	timeout  time.Duration
	floor    time.Duration
	bus      *bus.Bus
	logger   *zap.Logger
	metrics  *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	tasks      map[string]TaskFunc
	registered map[string]registration
	stopped    bool
}

// NewCronScheduler creates a scheduler. Call Start to begin triggering.
func NewCronScheduler(cfg CronConfig) *CronScheduler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Floor <= 0 {
		cfg.Floor = DefaultFloor
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		registry:   cfg.Registry,
		timeout:    cfg.Timeout,
		floor:      cfg.Floor,
		bus:        cfg.Bus,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		ctx:        ctx,
		cancel:     cancel,
		tasks:      make(map[string]TaskFunc),
		registered: make(map[string]registration),
	}
}

// Start begins triggering registered tasks.
func (s *CronScheduler) Start() {
	s.cron.Start()
}

// Stop halts triggering and waits for running tasks or ctx. Registrations
// made with StopOnTerminate are forgotten.
func (s *CronScheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	var forget []string
	for id, reg := range s.registered {
		if reg.opts.StopOnTerminate {
			forget = append(forget, id)
		}
	}
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.cancel()

	for _, id := range forget {
		if s.registry == nil {
			continue
		}
		if err := s.registry.DeleteTask(ctx, id); err != nil {
			s.logger.Warn("forget task registration", zap.String("task_id", id), zap.Error(err))
		}
	}
}

// Define associates fn with taskID. Redefining replaces the body.
func (s *CronScheduler) Define(taskID string, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[taskID] = fn
}

// Register schedules a defined task. Registering again replaces the interval.
func (s *CronScheduler) Register(ctx context.Context, taskID string, opts Options) error {
	if err := s.schedule(taskID, opts); err != nil {
		return err
	}
	if s.registry == nil {
		return nil
	}
	err := s.registry.SaveTask(ctx, store.TaskRegistration{
		TaskID:             taskID,
		MinIntervalSeconds: int64(opts.MinimumInterval / time.Second),
		StopOnTerminate:    opts.StopOnTerminate,
		StartOnBoot:        opts.StartOnBoot,
	})
	if err != nil {
		return fmt.Errorf("persist task %s: %w", taskID, err)
	}
	return nil
}

// Unregister removes a task's schedule. Unknown ids are ignored.
func (s *CronScheduler) Unregister(ctx context.Context, taskID string) error {
	s.mu.Lock()
	if reg, ok := s.registered[taskID]; ok {
		s.cron.Remove(reg.entry)
		delete(s.registered, taskID)
	}
	s.mu.Unlock()

	if s.registry == nil {
		return nil
	}
	if err := s.registry.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("forget task %s: %w", taskID, err)
	}
	s.logger.Info("task unregistered", zap.String("task_id", taskID))
	return nil
}

// Restore re-registers persisted tasks marked StartOnBoot. Tasks that are
// not defined in this process are skipped. It returns the restored ids.
func (s *CronScheduler) Restore(ctx context.Context) ([]string, error) {
	if s.registry == nil {
		return nil, nil
	}
	regs, err := s.registry.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var restored []string
	for _, r := range regs {
		if !r.StartOnBoot {
			continue
		}
		opts := Options{
			MinimumInterval: time.Duration(r.MinIntervalSeconds) * time.Second,
			StopOnTerminate: r.StopOnTerminate,
			StartOnBoot:     r.StartOnBoot,
		}
		if err := s.schedule(r.TaskID, opts); err != nil {
			s.logger.Warn("skip persisted task", zap.String("task_id", r.TaskID), zap.Error(err))
			continue
		}
		restored = append(restored, r.TaskID)
	}
	return restored, nil
}

// Registered reports whether taskID currently has a schedule.
func (s *CronScheduler) Registered(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.registered[taskID]
	return ok
}

// Interval is the effective interval used for opts.
func (s *CronScheduler) Interval(opts Options) time.Duration {
	return max(opts.MinimumInterval, s.floor)
}

// Run executes a defined task once, outside its schedule.
func (s *CronScheduler) Run(ctx context.Context, taskID string) (Result, error) {
	s.mu.Lock()
	fn, ok := s.tasks[taskID]
	s.mu.Unlock()
	if !ok {
		return Failed, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return s.run(ctx, taskID, fn), nil
}

func (s *CronScheduler) schedule(taskID string, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	if reg, ok := s.registered[taskID]; ok {
		s.cron.Remove(reg.entry)
	}
	every := s.Interval(opts)
	entry := s.cron.Schedule(cron.Every(every), cron.FuncJob(func() {
		s.run(s.ctx, taskID, fn)
	}))
	s.registered[taskID] = registration{entry: entry, opts: opts}
	s.logger.Info("task registered",
		zap.String("task_id", taskID),
		zap.Duration("interval", every),
		zap.Bool("start_on_boot", opts.StartOnBoot),
		zap.Bool("stop_on_terminate", opts.StopOnTerminate))
	return nil
}

func (s *CronScheduler) run(ctx context.Context, taskID string, fn TaskFunc) Result {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	res, err := runSafely(ctx, fn)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("background task failed", zap.String("task_id", taskID), zap.Error(err))
	}

	s.metrics.BackgroundRun(string(res))
	s.bus.Publish(bus.NewEvent(bus.BackgroundRun, RunReport{TaskID: taskID, Result: res, Duration: elapsed}))
	s.logger.Info("background task finished",
		zap.String("task_id", taskID),
		zap.String("result", string(res)),
		zap.Duration("took", elapsed))
	return res
}
