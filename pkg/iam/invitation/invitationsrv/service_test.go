package invitationsrv_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/iam/auth/authinfra"
	"github.com/karua/hostcore/pkg/iam/invitation"
	"github.com/karua/hostcore/pkg/iam/invitation/invitationsrv"
	"github.com/karua/hostcore/pkg/iam/securecode"
	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/iam/user/usertest"
	"github.com/karua/hostcore/pkg/jobx"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/notifx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type outbox struct {
	mu   sync.Mutex
	msgs []notifx.EmailMessage
}

func (o *outbox) SendEmail(_ context.Context, msg notifx.EmailMessage, _ ...notifx.Option) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}

type hosts map[kernel.TenantID]string

func (h hosts) HostName(_ context.Context, id kernel.TenantID) (string, error) { return h[id], nil }

type enqueuer struct{ jobs []jobx.Job }

func (e *enqueuer) Enqueue(_ context.Context, job jobx.Job) (string, error) {
	e.jobs = append(e.jobs, job)
	return "job-1", nil
}

func (e *enqueuer) EnqueueDelayed(ctx context.Context, job jobx.Job, _ time.Duration) (string, error) {
	return e.Enqueue(ctx, job)
}

var codePattern = regexp.MustCompile(`Secure code: (\d{6})`)

func setup(t *testing.T) (*invitationsrv.Service, *usertest.Repository, *outbox, *user.User) {
	t.Helper()
	tenant := kernel.NewTenantID()
	u, err := user.NewInvitedUser(tenant, "Bia Souza", "bia@pousada.com", "bia", kernel.RoleReceptionist)
	require.NoError(t, err)

	repo := usertest.NewRepository(u)
	box := &outbox{}
	mailer := notifx.NewClient(box, "no-reply@hostcore.app")
	require.NoError(t, invitationsrv.RegisterTemplates(mailer))

	svc := invitationsrv.NewService(repo, hosts{tenant: "Pousada Sol"}, mailer, authinfra.NewLogxAuditService(), invitationsrv.Config{
		CodeCost: bcrypt.MinCost,
		CodeTTL:  72 * time.Hour,
		LoginURL: "https://app.hostcore.test/first-access",
	})
	return svc, repo, box, u
}

func TestDeliverStoresOnlyTheHash(t *testing.T) {
	svc, repo, box, u := setup(t)

	require.NoError(t, svc.Deliver(context.Background(), u.ID, u.TenantID))

	require.Equal(t, 1, box.count())
	msg := box.msgs[0]
	assert.Equal(t, []string{"bia@pousada.com"}, msg.To)
	assert.Equal(t, "You're invited to Pousada Sol", msg.Subject)
	assert.Contains(t, msg.TextBody, "valid for 3 days")
	assert.Contains(t, msg.HTMLBody, "https://app.hostcore.test/first-access")

	match := codePattern.FindStringSubmatch(msg.TextBody)
	require.Len(t, match, 2)
	code := match[1]

	stored, ok := repo.Get(u.ID)
	require.True(t, ok)
	require.NotNil(t, stored.SecureCode)
	assert.NotEqual(t, code, *stored.SecureCode)
	assert.NotNil(t, stored.InviteSentAt)

	valid, err := securecode.Verify(code, *stored.SecureCode)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestResendReplacesPreviousCode(t *testing.T) {
	svc, repo, _, u := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Deliver(ctx, u.ID, u.TenantID))
	first, _ := repo.Get(u.ID)
	require.NoError(t, svc.Deliver(ctx, u.ID, u.TenantID))
	second, _ := repo.Get(u.ID)

	assert.NotEqual(t, *first.SecureCode, *second.SecureCode)
}

func TestDeliverRefusesUsersWithPassword(t *testing.T) {
	svc, repo, box, u := setup(t)
	ctx := context.Background()
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, u.TenantID, "hash"))

	err := svc.Deliver(ctx, u.ID, u.TenantID)
	assert.True(t, errx.IsCode(err, user.CodePasswordAlreadySet))
	assert.Zero(t, box.count())

	err = svc.Deliver(ctx, u.ID, kernel.NewTenantID())
	assert.True(t, errx.IsCode(err, user.CodeUserNotFound))
}

func TestQueueDispatcherCarriesIdsOnly(t *testing.T) {
	q := &enqueuer{}
	d := invitationsrv.NewQueueDispatcher(q)
	userID, tenantID := kernel.NewUserID(), kernel.NewTenantID()

	require.NoError(t, d.Dispatch(context.Background(), userID, tenantID))

	require.Len(t, q.jobs, 1)
	assert.Equal(t, invitation.JobType, q.jobs[0].Type)
	assert.Equal(t, invitation.Queue, q.jobs[0].Queue)
	assert.JSONEq(t, `{"user_id":"`+userID.String()+`","tenant_id":"`+tenantID.String()+`"}`, string(q.jobs[0].Payload))
}

func TestHandleJob(t *testing.T) {
	svc, repo, box, u := setup(t)
	ctx := context.Background()

	job, err := jobx.NewJob(invitation.JobType, invitation.Queue, invitation.Payload{UserID: u.ID, TenantID: u.TenantID})
	require.NoError(t, err)
	info := &jobx.JobInfo{ID: "j1", Type: job.Type, Payload: job.Payload}

	require.NoError(t, svc.HandleJob(ctx, info))
	assert.Equal(t, 1, box.count())

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, u.TenantID, "hash"))
	require.NoError(t, svc.HandleJob(ctx, info), "completed setup is not retried")
	assert.Equal(t, 1, box.count())

	assert.Error(t, svc.HandleJob(ctx, &jobx.JobInfo{ID: "j2", Payload: []byte("{")}))
}

func TestInlineDispatcherDeliversInBackground(t *testing.T) {
	svc, _, box, u := setup(t)
	d := invitationsrv.NewInlineDispatcher(svc, time.Second)

	require.NoError(t, d.Dispatch(context.Background(), u.ID, u.TenantID))
	require.Eventually(t, func() bool { return box.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}
