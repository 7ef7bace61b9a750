package jobx

import "time"

// WorkerOptions configures the job processing client.
type WorkerOptions struct {
	Queues            []string
	Concurrency       int
	PollInterval      time.Duration
	ShutdownTimeout   time.Duration
	DequeueTimeout    time.Duration
	DefaultRetryDelay time.Duration
	MaxRetryDelay     time.Duration
	JobTimeout        time.Duration
}

func defaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Queues:            []string{DefaultQueue},
		Concurrency:       4,
		PollInterval:      time.Second,
		ShutdownTimeout:   30 * time.Second,
		DequeueTimeout:    5 * time.Second,
		DefaultRetryDelay: 30 * time.Second,
		MaxRetryDelay:     10 * time.Minute,
		JobTimeout:        2 * time.Minute,
	}
}

// WorkerOption is a functional option for configuring the client.
type WorkerOption func(*WorkerOptions)

func WithQueues(queues ...string) WorkerOption {
	return func(o *WorkerOptions) {
		if len(queues) > 0 {
			o.Queues = queues
		}
	}
}

func WithConcurrency(n int) WorkerOption {
	return func(o *WorkerOptions) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithPollInterval sets how often delayed jobs are promoted and how long an
// idle worker backs off after a dequeue error.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

func WithShutdownTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// WithDequeueTimeout sets the timeout passed to the blocking dequeue call.
// Redis only honours whole seconds.
func WithDequeueTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.DequeueTimeout = d
		}
	}
}

func WithDefaultRetryDelay(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d >= 0 {
			o.DefaultRetryDelay = d
		}
	}
}

func WithMaxRetryDelay(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d >= 0 {
			o.MaxRetryDelay = d
		}
	}
}

// WithJobTimeout bounds a single handler run. Zero means no limit.
func WithJobTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d >= 0 {
			o.JobTimeout = d
		}
	}
}
