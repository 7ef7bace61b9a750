package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/karua/hostcore/pkg/asyncx"
	"github.com/karua/hostcore/pkg/config"
	"github.com/karua/hostcore/pkg/customer/customerapi"
	"github.com/karua/hostcore/pkg/customer/customerinfra"
	"github.com/karua/hostcore/pkg/customer/customersrv"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/host/hostapi"
	"github.com/karua/hostcore/pkg/host/hostinfra"
	"github.com/karua/hostcore/pkg/host/hostsrv"
	"github.com/karua/hostcore/pkg/iam/iamcontainer"
	"github.com/karua/hostcore/pkg/jobx"
	"github.com/karua/hostcore/pkg/jobx/jobxredis"
	"github.com/karua/hostcore/pkg/lodging/lodgingapi"
	"github.com/karua/hostcore/pkg/lodging/lodginginfra"
	"github.com/karua/hostcore/pkg/lodging/lodgingsrv"
	"github.com/karua/hostcore/pkg/logx"
	"github.com/karua/hostcore/pkg/notifx"
	"github.com/karua/hostcore/pkg/notifx/notifxconsole"
	"github.com/karua/hostcore/pkg/notifx/notifxses"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const connectBackoff = 500 * time.Millisecond

// Option adjusts how the container is built.
type Option func(*Container)

// WithSyncInvites makes invite delivery finish before the invite call
// returns. Commands that exit right away need it.
func WithSyncInvites() Option {
	return func(c *Container) { c.syncInvites = true }
}

// Container holds shared infrastructure and the module graphs. It is the
// only place that knows about every module.
type Container struct {
	Config *config.Config

	DB     *sqlx.DB
	Redis  *redis.Client
	Jobs   *jobx.Client
	Mailer *notifx.Client

	IAM              *iamcontainer.Container
	HostService      *hostsrv.HostService
	HostHandlers     *hostapi.HostHandlers
	LodgingHandlers  *lodgingapi.LodgingHandlers
	CustomerHandlers *customerapi.CustomerHandlers

	syncInvites bool
}

func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	logx.Info("initializing application container")
	c := &Container{Config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}
	if err := c.initModules(); err != nil {
		c.Cleanup()
		return nil, err
	}
	return c, nil
}

// needsRedis reports whether any enabled feature is backed by Redis.
func needsRedis(cfg *config.Config) bool {
	return cfg.Jobx.Enabled || cfg.Auth.Revocation.Enabled
}

// ---------------------------------------------------------------------------
// Infrastructure
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure(ctx context.Context) error {
	db, err := connectDB(ctx, c.Config.Database)
	if err != nil {
		return err
	}
	c.DB = db
	logx.Info("database connected")

	if needsRedis(c.Config) {
		rdb, err := connectRedis(ctx, c.Config.Redis)
		if err != nil {
			return err
		}
		c.Redis = rdb
		logx.Info("redis connected")
	}

	mailer, err := newMailer(ctx, c.Config.Notifx)
	if err != nil {
		return err
	}
	c.Mailer = mailer

	if c.Config.Jobx.Enabled {
		jc := c.Config.Jobx
		queue := jobxredis.NewRedisQueue(c.Redis, jobxredis.WithCompletedTTL(jc.CompletedTTL))
		c.Jobs = jobx.NewClient(queue,
			jobx.WithQueues(jc.Queues...),
			jobx.WithConcurrency(jc.Concurrency),
			jobx.WithPollInterval(jc.PollInterval),
			jobx.WithShutdownTimeout(jc.ShutdownTimeout),
			jobx.WithDequeueTimeout(jc.DequeueTimeout),
			jobx.WithDefaultRetryDelay(jc.DefaultRetryDelay),
			jobx.WithMaxRetryDelay(jc.MaxRetryDelay),
			jobx.WithJobTimeout(jc.JobTimeout),
		)
	}
	return nil
}

func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := asyncx.RetryWithBackoff(ctx, max(cfg.ConnectAttempts, 1), connectBackoff,
		func(ctx context.Context) (*sqlx.DB, error) {
			db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
			if err != nil {
				logx.WithError(err).Warn("database not ready")
			}
			return db, err
		})
	if err != nil {
		return nil, errx.Wrap(err, "failed to connect to database", errx.TypeExternal)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errx.Wrap(err, "invalid REDIS_URL", errx.TypeValidation)
	}
	rdb := redis.NewClient(opts)
	_, err = asyncx.RetryWithBackoff(ctx, 5, connectBackoff, func(ctx context.Context) (string, error) {
		return rdb.Ping(ctx).Result()
	})
	if err != nil {
		rdb.Close()
		return nil, errx.Wrap(err, "failed to connect to redis", errx.TypeExternal)
	}
	return rdb, nil
}

func newMailer(ctx context.Context, cfg config.NotifxConfig) (*notifx.Client, error) {
	from := notifx.FormatAddress(cfg.FromName, cfg.FromAddress)

	switch cfg.Provider {
	case "ses":
		client, err := notifxses.NewClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		logx.WithField("region", cfg.AWSRegion).Info("email provider: ses")
		return notifx.NewClient(notifxses.NewSESProvider(client, from), from), nil
	default:
		logx.Info("email provider: console")
		return notifx.NewClient(notifxconsole.NewConsoleProvider(), from), nil
	}
}

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

func (c *Container) initModules() error {
	c.HostService = hostsrv.NewHostService(hostinfra.NewPostgresHostRepository(c.DB))

	iam, err := iamcontainer.New(iamcontainer.Deps{
		DB:     c.DB,
		Redis:  c.Redis,
		Cfg:    c.Config,
		Mailer: c.Mailer,
		Jobs:   c.Jobs,
		Hosts:  c.HostService,

		SyncInvites: c.syncInvites,
	})
	if err != nil {
		return err
	}
	c.IAM = iam

	c.HostHandlers = hostapi.NewHostHandlers(c.HostService, iam.Middleware)
	c.LodgingHandlers = lodgingapi.NewLodgingHandlers(
		lodgingsrv.NewLodgingService(lodginginfra.NewPostgresLodgingRepository(c.DB)), iam.Middleware)

	customers := customerinfra.NewPostgresCustomerRepository(c.DB)
	c.CustomerHandlers = customerapi.NewCustomerHandlers(
		customersrv.NewCustomerService(customers, customers), iam.Middleware)

	logx.Info("modules initialized")
	return nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices runs the job workers until ctx is cancelled.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	if c.Jobs == nil {
		return
	}
	go func() {
		if err := c.Jobs.Start(ctx); err != nil {
			logx.WithError(err).Error("job workers stopped")
		}
	}()
}

// HealthChecks are the dependency checks behind /health.
func (c *Container) HealthChecks() []asyncx.Task[string] {
	checks := []asyncx.Task[string]{{
		Name: "database",
		Fn: func(ctx context.Context) (string, error) {
			return "healthy", c.DB.PingContext(ctx)
		},
	}}
	if c.Redis != nil {
		checks = append(checks, asyncx.Task[string]{
			Name: "redis",
			Fn: func(ctx context.Context) (string, error) {
				return c.Redis.Ping(ctx).Result()
			},
		})
	}
	return checks
}

func (c *Container) Cleanup() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.WithError(err).Error("error closing database")
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.WithError(err).Error("error closing redis")
		}
	}
}
