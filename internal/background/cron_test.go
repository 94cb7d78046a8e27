package background

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/store"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "hub.db"))
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newScheduler(t *testing.T, cfg CronConfig) *CronScheduler {
	t.Helper()
	s := NewCronScheduler(cfg)
	s.Start()
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s
}

// fire runs the cron job registered for taskID synchronously.
func fire(t *testing.T, s *CronScheduler, taskID string) {
	t.Helper()
	s.mu.Lock()
	reg, ok := s.registered[taskID]
	s.mu.Unlock()
	require.True(t, ok, "task %s not registered", taskID)
	s.cron.Entry(reg.entry).Job.Run()
}

func entryDelay(t *testing.T, s *CronScheduler, taskID string) time.Duration {
	t.Helper()
	s.mu.Lock()
	reg := s.registered[taskID]
	s.mu.Unlock()
	sched, ok := s.cron.Entry(reg.entry).Schedule.(cron.ConstantDelaySchedule)
	require.True(t, ok)
	return sched.Delay
}

func TestRegisterUndefinedTask(t *testing.T) {
	s := newScheduler(t, CronConfig{})
	err := s.Register(context.Background(), "nope", DefaultOptions())
	require.ErrorIs(t, err, ErrUnknownTask)
	assert.False(t, s.Registered("nope"))
}

func TestRegisterEnforcesFloor(t *testing.T) {
	s := newScheduler(t, CronConfig{Floor: 5 * time.Minute})
	s.Define(TaskID, func(context.Context) Result { return NoData })

	require.NoError(t, s.Register(context.Background(), TaskID, Options{MinimumInterval: time.Second}))
	assert.Equal(t, 5*time.Minute, entryDelay(t, s, TaskID))

	require.NoError(t, s.Register(context.Background(), TaskID, DefaultOptions()))
	assert.Equal(t, 15*time.Minute, entryDelay(t, s, TaskID))
	assert.Len(t, s.cron.Entries(), 1)
}

func TestScheduledRunPublishesResult(t *testing.T) {
	b := bus.New()
	runs, unsub := b.Subscribe(bus.BackgroundRun, 4)
	defer unsub()

	s := newScheduler(t, CronConfig{Bus: b, Timeout: time.Second})
	var calls atomic.Int32
	s.Define(TaskID, func(ctx context.Context) Result {
		calls.Add(1)
		if _, ok := ctx.Deadline(); !ok {
			t.Error("run context has no deadline")
		}
		return NewData
	})
	require.NoError(t, s.Register(context.Background(), TaskID, DefaultOptions()))

	fire(t, s, TaskID)

	select {
	case evt := <-runs:
		report, ok := evt.Payload.(RunReport)
		require.True(t, ok)
		assert.Equal(t, TaskID, report.TaskID)
		assert.Equal(t, NewData, report.Result)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for run report")
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestRunRecoversPanic(t *testing.T) {
	s := newScheduler(t, CronConfig{})
	s.Define("bad", func(context.Context) Result { panic("boom") })

	res, err := s.Run(context.Background(), "bad")
	require.NoError(t, err)
	assert.Equal(t, Failed, res)

	_, err = s.Run(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrUnknownTask))
}

func TestUnregisterIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := newScheduler(t, CronConfig{Registry: db})
	s.Define(TaskID, func(context.Context) Result { return NoData })

	require.NoError(t, s.Unregister(ctx, TaskID))
	require.NoError(t, s.Register(ctx, TaskID, DefaultOptions()))
	require.NoError(t, s.Unregister(ctx, TaskID))
	require.NoError(t, s.Unregister(ctx, TaskID))

	assert.False(t, s.Registered(TaskID))
	assert.Empty(t, s.cron.Entries())
	regs, err := db.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestRestoreStartOnBoot(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	first := NewCronScheduler(CronConfig{Registry: db})
	first.Define(TaskID, func(context.Context) Result { return NoData })
	first.Define("manual", func(context.Context) Result { return NoData })
	require.NoError(t, first.Register(ctx, TaskID, DefaultOptions()))
	require.NoError(t, first.Register(ctx, "manual", Options{MinimumInterval: time.Hour}))
	first.Stop(ctx)

	second := newScheduler(t, CronConfig{Registry: db})
	second.Define(TaskID, func(context.Context) Result { return NoData })
	second.Define("manual", func(context.Context) Result { return NoData })

	restored, err := second.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{TaskID}, restored)
	assert.True(t, second.Registered(TaskID))
	assert.False(t, second.Registered("manual"))
	assert.Equal(t, 15*time.Minute, entryDelay(t, second, TaskID))
}

func TestStopForgetsStopOnTerminate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	s := NewCronScheduler(CronConfig{Registry: db})
	s.Start()
	s.Define("ephemeral", func(context.Context) Result { return NoData })
	s.Define(TaskID, func(context.Context) Result { return NoData })
	require.NoError(t, s.Register(ctx, "ephemeral", Options{StopOnTerminate: true, StartOnBoot: true}))
	require.NoError(t, s.Register(ctx, TaskID, DefaultOptions()))

	s.Stop(ctx)
	s.Stop(ctx)

	regs, err := db.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, TaskID, regs[0].TaskID)
	assert.EqualValues(t, 900, regs[0].MinIntervalSeconds)
}
