// Package jobxredis is the Redis backend of jobx. Ready jobs sit in a list
// per queue, delayed and retried jobs in a sorted set scored by due time, and
// each job's state in its own key.
package jobxredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/karua/hostcore/pkg/jobx"
	"github.com/redis/go-redis/v9"
)

const DefaultCompletedTTL = 24 * time.Hour

// RedisQueue implements jobx.Queue backed by Redis.
type RedisQueue struct {
	rdb          *redis.Client
	completedTTL time.Duration
	now          func() time.Time
}

var _ jobx.Queue = (*RedisQueue)(nil)

// Option customises a RedisQueue.
type Option func(*RedisQueue)

// WithCompletedTTL sets how long finished jobs stay readable. Zero keeps
// them forever.
func WithCompletedTTL(d time.Duration) Option {
	return func(q *RedisQueue) {
		if d >= 0 {
			q.completedTTL = d
		}
	}
}

func NewRedisQueue(rdb *redis.Client, opts ...Option) *RedisQueue {
	q := &RedisQueue{rdb: rdb, completedTTL: DefaultCompletedTTL, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func queueKey(name string) string     { return fmt.Sprintf("jobx:queue:%s", name) }
func scheduledKey(name string) string { return fmt.Sprintf("jobx:scheduled:%s", name) }
func jobKey(id string) string         { return fmt.Sprintf("jobx:job:%s", id) }

func (q *RedisQueue) newInfo(job jobx.Job) jobx.JobInfo {
	now := q.now().UTC()
	return jobx.JobInfo{
		ID:         uuid.NewString(),
		Type:       job.Type,
		Queue:      job.Queue,
		Payload:    job.Payload,
		Status:     jobx.JobStatusPending,
		MaxRetries: job.MaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Enqueue adds a job to the ready queue immediately.
func (q *RedisQueue) Enqueue(ctx context.Context, job jobx.Job) (string, error) {
	info := q.newInfo(job)
	data, err := json.Marshal(info)
	if err != nil {
		return "", ErrRegistry.NewWithCause(CodeMarshal, err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, jobKey(info.ID), data, 0)
	pipe.LPush(ctx, queueKey(job.Queue), info.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", ErrRegistry.NewWithCause(CodeEnqueue, err).WithDetail("queue", job.Queue)
	}
	return info.ID, nil
}

// EnqueueDelayed adds a job to the scheduled set with a future execution time.
func (q *RedisQueue) EnqueueDelayed(ctx context.Context, job jobx.Job, delay time.Duration) (string, error) {
	info := q.newInfo(job)
	data, err := json.Marshal(info)
	if err != nil {
		return "", ErrRegistry.NewWithCause(CodeMarshal, err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, jobKey(info.ID), data, 0)
	pipe.ZAdd(ctx, scheduledKey(job.Queue), redis.Z{Score: q.dueScore(delay), Member: info.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", ErrRegistry.NewWithCause(CodeEnqueue, err).
			WithDetail("queue", job.Queue).
			WithDetail("delay", delay.String())
	}
	return info.ID, nil
}

func (q *RedisQueue) GetJob(ctx context.Context, jobID string) (*jobx.JobInfo, error) {
	data, err := q.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRegistry.New(CodeNotFound).WithDetail("job_id", jobID)
		}
		return nil, ErrRegistry.NewWithCause(CodeGetJob, err).WithDetail("job_id", jobID)
	}

	var info jobx.JobInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, ErrRegistry.NewWithCause(CodeUnmarshal, err).WithDetail("job_id", jobID)
	}
	return &info, nil
}

// Dequeue blocks until a job is available from one of the given queues or
// the timeout expires; a timeout returns (nil, nil).
func (q *RedisQueue) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.JobInfo, error) {
	keys := make([]string, len(queues))
	for i, name := range queues {
		keys[i] = queueKey(name)
	}

	result, err := q.rdb.BRPop(ctx, timeout, keys...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, ErrRegistry.NewWithCause(CodeDequeue, err)
	}

	// result[0] is the list key, result[1] the job id.
	info, err := q.GetJob(ctx, result[1])
	if err != nil {
		return nil, err
	}

	info.Status = jobx.JobStatusActive
	info.Attempts++
	if err := q.save(ctx, info, 0); err != nil {
		return nil, err
	}
	return info, nil
}

// Complete marks a job as done; the record expires after the completed TTL.
func (q *RedisQueue) Complete(ctx context.Context, jobID string, result []byte) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	info.Status = jobx.JobStatusCompleted
	info.Result = result
	info.Error = ""
	return q.save(ctx, info, q.completedTTL)
}

// Fail records the error. It returns true while attempts remain; otherwise
// the job is final and expires like a completed one.
func (q *RedisQueue) Fail(ctx context.Context, jobID string, errMsg string) (bool, error) {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}

	shouldRetry := info.Attempts < info.MaxRetries
	ttl := time.Duration(0)
	if shouldRetry {
		info.Status = jobx.JobStatusRetrying
	} else {
		info.Status = jobx.JobStatusFailed
		ttl = q.completedTTL
	}
	info.Error = errMsg

	if err := q.save(ctx, info, ttl); err != nil {
		return false, err
	}
	return shouldRetry, nil
}

// Retry schedules a failed job to run again after delay.
func (q *RedisQueue) Retry(ctx context.Context, jobID string, delay time.Duration) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	if err := q.rdb.ZAdd(ctx, scheduledKey(info.Queue), redis.Z{
		Score:  q.dueScore(delay),
		Member: jobID,
	}).Err(); err != nil {
		return ErrRegistry.NewWithCause(CodeRetry, err).WithDetail("job_id", jobID)
	}
	return nil
}

// promoteScript moves due jobs from the scheduled set to the ready list in
// one step so two schedulers never promote the same id twice.
var promoteScript = redis.NewScript(`
local scheduled_key = KEYS[1]
local queue_key = KEYS[2]
local now = tonumber(ARGV[1])
local ids = redis.call('ZRANGEBYSCORE', scheduled_key, '-inf', now)
if #ids > 0 then
    for _, id in ipairs(ids) do
        redis.call('LPUSH', queue_key, id)
    end
    redis.call('ZREMRANGEBYSCORE', scheduled_key, '-inf', now)
end
return #ids
`)

// PromoteScheduled moves jobs whose due time has passed to the ready queue.
func (q *RedisQueue) PromoteScheduled(ctx context.Context, queues []string) error {
	now := strconv.FormatInt(q.now().UTC().Unix(), 10)

	for _, name := range queues {
		err := promoteScript.Run(ctx, q.rdb, []string{scheduledKey(name), queueKey(name)}, now).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return ErrRegistry.NewWithCause(CodePromote, err).WithDetail("queue", name)
		}
	}
	return nil
}

func (q *RedisQueue) dueScore(delay time.Duration) float64 {
	return float64(q.now().UTC().Add(delay).Unix())
}

func (q *RedisQueue) save(ctx context.Context, info *jobx.JobInfo, ttl time.Duration) error {
	info.UpdatedAt = q.now().UTC()
	data, err := json.Marshal(info)
	if err != nil {
		return ErrRegistry.NewWithCause(CodeMarshal, err).WithDetail("job_id", info.ID)
	}
	if err := q.rdb.Set(ctx, jobKey(info.ID), data, ttl).Err(); err != nil {
		return ErrRegistry.NewWithCause(CodeUpdate, err).WithDetail("job_id", info.ID)
	}
	return nil
}
