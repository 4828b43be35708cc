package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingTask struct {
	name  string
	runs  atomic.Int32
	fails int32
	block bool
}

func (t *countingTask) Name() string { return t.name }

func (t *countingTask) Run(ctx context.Context) error {
	n := t.runs.Add(1)
	if t.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if n <= t.fails {
		return errors.New("boom")
	}
	return nil
}

func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	s := New(cfg, zaptest.NewLogger(t))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := New(Config{RetryAttempts: -1}, nil)
	assert.Equal(t, DefaultConfig().MaxConcurrentJobs, s.config.MaxConcurrentJobs)
	assert.Equal(t, DefaultConfig().JobTimeout, s.config.JobTimeout)
	assert.Equal(t, 0, s.config.RetryAttempts)
}

func TestScheduler_Every(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig())
	task := &countingTask{name: "sweep"}

	require.NoError(t, s.Every(time.Minute, task))
	assert.ErrorIs(t, s.Every(time.Minute, task), ErrDuplicateTask)
	assert.ErrorIs(t, s.Every(0, &countingTask{name: "other"}), ErrInvalidConfig)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Every(time.Minute, &countingTask{name: "late"}), ErrSchedulerRunning)
}

func TestScheduler_RunsOnStartAndOnInterval(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig())
	task := &countingTask{name: "sweep"}
	require.NoError(t, s.Every(20*time.Millisecond, task))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return task.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		job, ok := s.LastRun("sweep")
		return ok && job.Status == JobStatusSuccess
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_RetriesFailedJobs(t *testing.T) {
	s := newTestScheduler(t, Config{RetryAttempts: 2, RetryDelay: time.Millisecond})
	task := &countingTask{name: "flaky", fails: 2}
	require.NoError(t, s.Every(time.Hour, task))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		job, ok := s.LastRun("flaky")
		return ok && job.Status == JobStatusSuccess
	}, 2*time.Second, 5*time.Millisecond)

	job, _ := s.LastRun("flaky")
	assert.Equal(t, 2, job.RetryCount)
	assert.Equal(t, int32(3), task.runs.Load())
}

func TestScheduler_GivesUpAfterRetries(t *testing.T) {
	s := newTestScheduler(t, Config{RetryAttempts: 1, RetryDelay: time.Millisecond})
	task := &countingTask{name: "broken", fails: 100}
	require.NoError(t, s.Every(time.Hour, task))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		job, ok := s.LastRun("broken")
		return ok && job.Status == JobStatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	job, _ := s.LastRun("broken")
	assert.Equal(t, "boom", job.Error)
	assert.Equal(t, 1, job.RetryCount)
	assert.NotNil(t, job.CompletedAt)
}

func TestScheduler_JobTimeout(t *testing.T) {
	s := newTestScheduler(t, Config{JobTimeout: 10 * time.Millisecond})
	task := &countingTask{name: "slow", block: true}
	require.NoError(t, s.Every(time.Hour, task))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		job, ok := s.LastRun("slow")
		return ok && job.Status == JobStatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	job, _ := s.LastRun("slow")
	assert.Contains(t, job.Error, context.DeadlineExceeded.Error())
}

func TestScheduler_Trigger(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig())
	task := &countingTask{name: "sweep"}
	require.NoError(t, s.Every(time.Hour, task))

	assert.ErrorIs(t, s.Trigger("sweep"), ErrSchedulerNotRunning)
	assert.ErrorIs(t, s.Trigger("missing"), ErrTaskNotFound)

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return task.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Trigger("sweep") == nil }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return task.runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := New(DefaultConfig(), zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
	assert.ErrorIs(t, s.submit("any"), ErrSchedulerNotRunning)
}
