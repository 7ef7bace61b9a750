// Package jobx runs background jobs: a small client that enqueues typed jobs
// and a worker pool that dispatches them to registered handlers.
package jobx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/karua/hostcore/pkg/logx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/karua/hostcore/pkg/jobx")

// HandlerFunc processes a job. Return nil on success, an error to trigger retry/fail.
type HandlerFunc func(ctx context.Context, job *JobInfo) error

// Enqueuer is what producers depend on.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) (string, error)
	EnqueueDelayed(ctx context.Context, job Job, delay time.Duration) (string, error)
}

// JobStatusReader reads job status.
type JobStatusReader interface {
	GetJob(ctx context.Context, jobID string) (*JobInfo, error)
}

// JobProcessor provides backend operations for the worker loop.
type JobProcessor interface {
	Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*JobInfo, error)
	Complete(ctx context.Context, jobID string, result []byte) error
	Fail(ctx context.Context, jobID string, errMsg string) (retry bool, err error)
	Retry(ctx context.Context, jobID string, delay time.Duration) error
	PromoteScheduled(ctx context.Context, queues []string) error
}

// Queue combines all backend operations.
type Queue interface {
	Enqueuer
	JobStatusReader
	JobProcessor
}

// Client is the main entry point for enqueuing and processing jobs.
type Client struct {
	queue    Queue
	opts     WorkerOptions
	handlers map[string]HandlerFunc
	mu       sync.RWMutex
	running  bool
}

var _ Enqueuer = (*Client)(nil)

func NewClient(queue Queue, options ...WorkerOption) *Client {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Client{
		queue:    queue,
		opts:     opts,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register adds a handler for a given job type.
func (c *Client) Register(jobType string, handler HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[jobType] = handler
}

// Enqueue enqueues a job for immediate processing.
func (c *Client) Enqueue(ctx context.Context, job Job) (string, error) {
	if job.Type == "" {
		return "", ErrInvalidJob("type is required")
	}
	job.applyDefaults()
	return c.queue.Enqueue(ctx, job)
}

// EnqueueDelayed enqueues a job with a delay before it becomes available.
func (c *Client) EnqueueDelayed(ctx context.Context, job Job, delay time.Duration) (string, error) {
	if job.Type == "" {
		return "", ErrInvalidJob("type is required")
	}
	job.applyDefaults()
	return c.queue.EnqueueDelayed(ctx, job, delay)
}

func (c *Client) GetJob(ctx context.Context, jobID string) (*JobInfo, error) {
	return c.queue.GetJob(ctx, jobID)
}

// Start begins processing jobs. It blocks until ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrRegistry.New(CodeAlreadyRunning)
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	logx.Infof("jobx: starting %d workers on queues %v", c.opts.Concurrency, c.opts.Queues)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.schedulerLoop(ctx)
	}()

	for i := range c.opts.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.workerLoop(ctx, id)
		}(i)
	}

	<-ctx.Done()
	logx.Info("jobx: shutting down workers...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("jobx: all workers stopped")
	case <-time.After(c.opts.ShutdownTimeout):
		logx.Warn("jobx: shutdown timed out, some jobs may not have completed")
	}

	return nil
}

func (c *Client) schedulerLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.queue.PromoteScheduled(ctx, c.opts.Queues); err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.WithError(err).Warn("jobx: failed to promote scheduled jobs")
			}
		}
	}
}

func (c *Client) workerLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := c.queue.Dequeue(ctx, c.opts.Queues, c.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("jobx: worker %d dequeue error", id)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.opts.PollInterval):
			}
			continue
		}
		if job == nil {
			continue
		}

		c.processJob(ctx, job)
	}
}

func (c *Client) processJob(ctx context.Context, job *JobInfo) {
	c.mu.RLock()
	handler, ok := c.handlers[job.Type]
	c.mu.RUnlock()

	ctx, span := tracer.Start(ctx, "jobx.process "+job.Type, trace.WithAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("job.type", job.Type),
		attribute.String("job.queue", job.Queue),
		attribute.Int("job.attempt", job.Attempts),
	))
	defer span.End()

	entry := logx.WithFields(logx.Fields{"job_id": job.ID, "job_type": job.Type, "attempt": job.Attempts})

	if !ok {
		entry.Warn("jobx: no handler for job type")
		span.SetStatus(codes.Error, "no handler")
		if _, err := c.queue.Fail(ctx, job.ID, ErrRegistry.New(CodeNoHandler).Error()); err != nil {
			entry.WithError(err).Error("jobx: failed to mark job as failed")
		}
		return
	}

	start := time.Now()
	if err := c.runWithTimeout(ctx, handler, job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		entry.WithError(err).Warn("jobx: job failed")

		shouldRetry, failErr := c.queue.Fail(ctx, job.ID, err.Error())
		if failErr != nil {
			entry.WithError(failErr).Error("jobx: failed to mark job as failed")
			return
		}

		if shouldRetry {
			delay := c.retryDelay(job.Attempts)
			if retryErr := c.queue.Retry(ctx, job.ID, delay); retryErr != nil {
				entry.WithError(retryErr).Error("jobx: failed to retry job")
				return
			}
			entry.WithField("delay", delay.String()).Info("jobx: job scheduled for retry")
		}
		return
	}

	if err := c.queue.Complete(ctx, job.ID, nil); err != nil {
		entry.WithError(err).Error("jobx: failed to complete job")
		return
	}
	entry.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("jobx: job completed")
}

// runWithTimeout bounds a handler by JobTimeout when one is set.
func (c *Client) runWithTimeout(ctx context.Context, handler HandlerFunc, job *JobInfo) error {
	if c.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.JobTimeout)
		defer cancel()
	}
	return runHandler(ctx, handler, job)
}

// retryDelay doubles DefaultRetryDelay for every attempt already made,
// capped at MaxRetryDelay.
func (c *Client) retryDelay(attempts int) time.Duration {
	delay := c.opts.DefaultRetryDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if c.opts.MaxRetryDelay > 0 && delay >= c.opts.MaxRetryDelay {
			return c.opts.MaxRetryDelay
		}
	}
	if c.opts.MaxRetryDelay > 0 {
		delay = min(delay, c.opts.MaxRetryDelay)
	}
	return delay
}

// runHandler reports a handler panic as a job failure.
func runHandler(ctx context.Context, handler HandlerFunc, job *JobInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrRegistry.NewWithCause(CodeHandlerPanic, fmt.Errorf("%v", r))
		}
	}()
	return handler(ctx, job)
}
