package config

import "time"

// JobxConfig configures the background job queue.
type JobxConfig struct {
	Enabled           bool
	Concurrency       int
	Queues            []string
	PollInterval      time.Duration
	ShutdownTimeout   time.Duration
	DequeueTimeout    time.Duration
	DefaultRetryDelay time.Duration
	MaxRetryDelay     time.Duration
	JobTimeout        time.Duration
	CompletedTTL      time.Duration
}

func loadJobxConfig() JobxConfig {
	return JobxConfig{
		Enabled:           getEnvBool("JOBX_ENABLED", true),
		Concurrency:       getEnvInt("JOBX_CONCURRENCY", 4),
		Queues:            getEnvStringSlice("JOBX_QUEUES", []string{"default", "iam"}),
		PollInterval:      getEnvDuration("JOBX_POLL_INTERVAL", time.Second),
		ShutdownTimeout:   getEnvDuration("JOBX_SHUTDOWN_TIMEOUT", 30*time.Second),
		DequeueTimeout:    getEnvDuration("JOBX_DEQUEUE_TIMEOUT", 5*time.Second),
		DefaultRetryDelay: getEnvDuration("JOBX_DEFAULT_RETRY_DELAY", 30*time.Second),
		MaxRetryDelay:     getEnvDuration("JOBX_MAX_RETRY_DELAY", 10*time.Minute),
		JobTimeout:        getEnvDuration("JOBX_JOB_TIMEOUT", 2*time.Minute),
		CompletedTTL:      getEnvDuration("JOBX_COMPLETED_TTL", 24*time.Hour),
	}
}
