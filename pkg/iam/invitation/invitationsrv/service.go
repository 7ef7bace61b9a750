package invitationsrv

import (
	"context"
	"strconv"
	"time"

	"github.com/karua/hostcore/pkg/asyncx"
	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/iam/invitation"
	"github.com/karua/hostcore/pkg/iam/securecode"
	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/jobx"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
	"github.com/karua/hostcore/pkg/notifx"
)

// Mailer renders and sends a registered template.
type Mailer interface {
	SendTemplatedEmail(ctx context.Context, templateName string, data any, msg notifx.EmailMessage, opts ...notifx.Option) error
}

type Config struct {
	CodeLength int
	// CodeCost is the bcrypt cost for stored code hashes.
	CodeCost int
	CodeTTL  time.Duration
	LoginURL string
}

// Service generates, stores and emails invite codes.
type Service struct {
	users  user.Repository
	hosts  auth.HostDirectory
	mailer Mailer
	audit  auth.AuditService
	cfg    Config
	now    func() time.Time
}

func NewService(users user.Repository, hosts auth.HostDirectory, mailer Mailer, audit auth.AuditService, cfg Config) *Service {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = securecode.DefaultLength
	}
	return &Service{
		users:  users,
		hosts:  hosts,
		mailer: mailer,
		audit:  audit,
		cfg:    cfg,
		now:    time.Now,
	}
}

// inviteEmail is the data passed to the invite template.
type inviteEmail struct {
	Name      string
	Username  string
	HostName  string
	Code      string
	LoginURL  string
	ExpiresIn string
}

// Deliver issues a fresh code to a user who has not set a password yet and
// emails it. Any previously issued code stops working.
func (s *Service) Deliver(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) error {
	u, err := s.users.FindByID(ctx, userID, tenantID)
	if err != nil {
		return err
	}
	if u.HasPassword() {
		return user.ErrPasswordAlreadySet()
	}
	if !u.IsActive {
		return invitation.ErrUserInactive()
	}

	code, err := securecode.Generate(s.cfg.CodeLength)
	if err != nil {
		return err
	}
	hash, err := securecode.Hash(code, s.cfg.CodeCost)
	if err != nil {
		return err
	}

	issued, err := s.users.IssueSecureCode(ctx, u.ID, u.TenantID, hash, s.now().UTC())
	if err != nil {
		return err
	}
	if !issued {
		return user.ErrPasswordAlreadySet()
	}
	s.audit.LogSecureCodeIssued(ctx, u.ID, u.TenantID)

	hostName, err := s.hosts.HostName(ctx, u.TenantID)
	if err != nil {
		logx.WithContext(ctx).WithError(err).WithField("tenant_id", u.TenantID.String()).Warn("could not resolve host name for invite")
	}

	err = s.mailer.SendTemplatedEmail(ctx, invitation.TemplateName, inviteEmail{
		Name:      u.Name,
		Username:  u.Username,
		HostName:  hostName,
		Code:      code,
		LoginURL:  s.cfg.LoginURL,
		ExpiresIn: humanizeTTL(s.cfg.CodeTTL),
	}, notifx.EmailMessage{To: []string{u.Email}})
	if err != nil {
		return errx.Wrap(err, "failed to send invite email", errx.TypeExternal).
			WithDetail("user_id", u.ID.String())
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"user_id":   u.ID.String(),
		"tenant_id": u.TenantID.String(),
	}).Info("invite delivered")
	return nil
}

// HandleJob is the jobx handler for invitation.JobType. Users who completed
// setup in the meantime are skipped rather than retried.
func (s *Service) HandleJob(ctx context.Context, job *jobx.JobInfo) error {
	var p invitation.Payload
	if err := job.Decode(&p); err != nil {
		return err
	}

	err := s.Deliver(ctx, p.UserID, p.TenantID)
	switch {
	case err == nil:
		return nil
	case errx.IsCode(err, user.CodePasswordAlreadySet),
		errx.IsCode(err, user.CodeUserNotFound),
		errx.IsCode(err, invitation.CodeUserInactive):
		logx.WithContext(ctx).WithError(err).WithField("job_id", job.ID).Info("invite no longer deliverable, skipping")
		return nil
	default:
		return err
	}
}

func humanizeTTL(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return strconv.Itoa(days) + " days"
	case d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return strconv.Itoa(hours) + " hours"
	default:
		return d.String()
	}
}

// ============================================================================
// Dispatchers
// ============================================================================

// QueueDispatcher hands delivery to the background workers.
type QueueDispatcher struct {
	jobs jobx.Enqueuer
}

func NewQueueDispatcher(jobs jobx.Enqueuer) *QueueDispatcher {
	return &QueueDispatcher{jobs: jobs}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) error {
	job, err := jobx.NewJob(invitation.JobType, invitation.Queue, invitation.Payload{UserID: userID, TenantID: tenantID})
	if err != nil {
		return err
	}
	id, err := d.jobs.Enqueue(ctx, job)
	if err != nil {
		return err
	}
	logx.WithContext(ctx).WithFields(logx.Fields{"job_id": id, "user_id": userID.String()}).Debug("invite enqueued")
	return nil
}

// InlineDispatcher delivers in a detached goroutine. Used when background
// workers are disabled.
type InlineDispatcher struct {
	service *Service
	timeout time.Duration
}

func NewInlineDispatcher(service *Service, timeout time.Duration) *InlineDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &InlineDispatcher{service: service, timeout: timeout}
}

func (d *InlineDispatcher) Dispatch(_ context.Context, userID kernel.UserID, tenantID kernel.TenantID) error {
	asyncx.Detach(d.timeout, func(ctx context.Context) {
		if err := d.service.Deliver(ctx, userID, tenantID); err != nil {
			logx.WithError(err).WithField("user_id", userID.String()).Error("inline invite delivery failed")
		}
	})
	return nil
}

// SyncDispatcher delivers within the caller's context and reports delivery
// errors. The command line uses it, since it exits right after.
type SyncDispatcher struct {
	service *Service
}

func NewSyncDispatcher(service *Service) *SyncDispatcher {
	return &SyncDispatcher{service: service}
}

func (d *SyncDispatcher) Dispatch(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) error {
	return d.service.Deliver(ctx, userID, tenantID)
}

var (
	_ invitation.Dispatcher = (*QueueDispatcher)(nil)
	_ invitation.Dispatcher = (*InlineDispatcher)(nil)
	_ invitation.Dispatcher = (*SyncDispatcher)(nil)
)
