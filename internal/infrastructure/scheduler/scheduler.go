// Package scheduler runs background tasks on fixed intervals with a small
// worker pool, per-run timeouts and retries.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task is a unit of background work
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one execution of a task, retries included
type Job struct {
	ID          uuid.UUID
	Task        string
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a pending job for a task
func NewJob(task string, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Task:       task,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.CompletedAt = nil
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// Config holds scheduler configuration
type Config struct {
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs: 2,
		JobTimeout:        time.Minute,
		RetryAttempts:     2,
		RetryDelay:        10 * time.Second,
	}
}

type schedule struct {
	task     Task
	interval time.Duration
}

// Scheduler runs registered tasks on their intervals
type Scheduler struct {
	config Config
	logger *zap.Logger

	schedules map[string]schedule
	order     []string
	inFlight  map[string]bool
	lastRuns  map[string]Job

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a scheduler. Zero config fields take their defaults.
func New(config Config, logger *zap.Logger) *Scheduler {
	defaults := DefaultConfig()
	if config.MaxConcurrentJobs <= 0 {
		config.MaxConcurrentJobs = defaults.MaxConcurrentJobs
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if config.RetryAttempts < 0 {
		config.RetryAttempts = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:    config,
		logger:    logger.Named("scheduler"),
		schedules: make(map[string]schedule),
		inFlight:  make(map[string]bool),
		lastRuns:  make(map[string]Job),
		jobs:      make(chan *Job, 16),
	}
}

// Every registers a task to run once on Start and then on every interval
func (s *Scheduler) Every(interval time.Duration, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("%w: interval of %s must be positive", ErrInvalidConfig, task.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.schedules[task.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name())
	}
	s.schedules[task.Name()] = schedule{task: task, interval: interval}
	s.order = append(s.order, task.Name())
	return nil
}

// Start starts the workers and one trigger loop per task
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	for _, name := range s.order {
		s.wg.Add(1)
		go s.triggerLoop(ctx, s.schedules[name])
	}

	s.logger.Info("Scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Int("tasks", len(s.order)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Trigger queues an immediate run of a registered task
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	_, ok := s.schedules[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	return s.submit(name)
}

// LastRun returns the last finished job of a task
func (s *Scheduler) LastRun(name string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.lastRuns[name]
	return job, ok
}

func (s *Scheduler) submit(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	if s.inFlight[name] {
		return ErrJobInProgress
	}

	job := NewJob(name, s.config.RetryAttempts)
	select {
	case s.jobs <- job:
		s.inFlight[name] = true
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("task", name),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) triggerLoop(ctx context.Context, sch schedule) {
	defer s.wg.Done()

	name := sch.task.Name()
	s.submitLogged(name)

	ticker := time.NewTicker(sch.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.submitLogged(name)
		}
	}
}

func (s *Scheduler) submitLogged(name string) {
	switch err := s.submit(name); err {
	case nil, ErrSchedulerNotRunning:
	case ErrJobInProgress:
		s.logger.Debug("Skipping run, previous job still in progress", zap.String("task", name))
	default:
		s.logger.Warn("Failed to submit job", zap.String("task", name), zap.Error(err))
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob runs a job, retrying failures after RetryDelay
func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	s.mu.Lock()
	task := s.schedules[job.Task].task
	s.mu.Unlock()

	defer s.finish(job)

	for {
		job.Start()
		jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
		err := task.Run(jobCtx)
		cancel()

		if err == nil {
			job.Complete()
			s.logger.Debug("Job completed",
				zap.Int("worker_id", workerID),
				zap.String("job_id", job.ID.String()),
				zap.String("task", job.Task),
			)
			return
		}

		job.Fail(err.Error())
		s.logger.Error("Job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("task", job.Task),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)
		if !job.ShouldRetry() {
			return
		}
		job.RetryCount++

		timer := time.NewTimer(s.config.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Scheduler) finish(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, job.Task)
	s.lastRuns[job.Task] = *job
}
