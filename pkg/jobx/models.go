package jobx

import (
	"encoding/json"
	"time"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

const (
	DefaultQueue      = "default"
	DefaultMaxRetries = 3
)

// Job is a unit of work to be enqueued. Payloads must not carry secrets:
// they sit in the backend in plain JSON.
type Job struct {
	Type    string          `json:"type"`
	Queue   string          `json:"queue"`
	Payload json.RawMessage `json:"payload"`

	// MaxRetries is the maximum number of attempts. Default is 3.
	MaxRetries int `json:"max_retries"`
}

// NewJob marshals payload into a job of the given type.
func NewJob(jobType, queue string, payload any) (Job, error) {
	if jobType == "" {
		return Job{}, ErrInvalidJob("type is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, ErrRegistry.NewWithCause(CodeInvalidPayload, err)
	}
	return Job{Type: jobType, Queue: queue, Payload: raw}, nil
}

func (j *Job) applyDefaults() {
	if j.Queue == "" {
		j.Queue = DefaultQueue
	}
	if j.MaxRetries <= 0 {
		j.MaxRetries = DefaultMaxRetries
	}
}

// JobInfo is the full representation of a job stored in the backend.
type JobInfo struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	MaxRetries int             `json:"max_retries"`
	Attempts   int             `json:"attempts"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Decode unmarshals the payload into out.
func (j *JobInfo) Decode(out any) error {
	if err := json.Unmarshal(j.Payload, out); err != nil {
		return ErrRegistry.NewWithCause(CodeInvalidPayload, err).
			WithDetail("job_id", j.ID).
			WithDetail("type", j.Type)
	}
	return nil
}

// IsFinal reports whether the job will not run again.
func (j *JobInfo) IsFinal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
