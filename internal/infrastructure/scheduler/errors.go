package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrSchedulerRunning is returned when registering a task after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobInProgress is returned when a task still has a queued or running job
	ErrJobInProgress = errors.New("job already in progress for this task")

	// ErrTaskNotFound is returned for unknown task names
	ErrTaskNotFound = errors.New("task not found")

	// ErrDuplicateTask is returned when a task name is registered twice
	ErrDuplicateTask = errors.New("task already registered")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
