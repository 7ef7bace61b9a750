// Package iamcontainer builds the identity and access graph: token issuing,
// the auth flow, user administration and invite delivery.
package iamcontainer

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/karua/hostcore/pkg/config"
	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/iam/auth/authinfra"
	"github.com/karua/hostcore/pkg/iam/invitation"
	"github.com/karua/hostcore/pkg/iam/invitation/invitationsrv"
	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/iam/user/userapi"
	"github.com/karua/hostcore/pkg/iam/user/userinfra"
	"github.com/karua/hostcore/pkg/iam/user/usersrv"
	"github.com/karua/hostcore/pkg/jobx"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
	"github.com/karua/hostcore/pkg/notifx"
	"github.com/redis/go-redis/v9"
)

const inlineDeliveryTimeout = 30 * time.Second

// Deps are the external dependencies of the IAM module. Redis is only
// needed when revocation is enabled; Jobs is nil when invites are delivered
// inline.
type Deps struct {
	DB     *sqlx.DB
	Redis  *redis.Client
	Cfg    *config.Config
	Mailer *notifx.Client
	Jobs   *jobx.Client
	Hosts  auth.HostDirectory

	// Users overrides the Postgres repository.
	Users user.Repository
	// SyncInvites delivers invites before Dispatch returns.
	SyncInvites bool
}

// Container is the public surface of the IAM module.
type Container struct {
	Tokens            *auth.JWTService
	Middleware        *auth.TokenMiddleware
	AuthService       *auth.Service
	UserService       *usersrv.UserService
	InvitationService *invitationsrv.Service
	Invites           invitation.Dispatcher

	AuthHandlers *auth.AuthHandlers
	UserHandlers *userapi.UserHandlers
}

// New wires repositories, then services, then handlers and middleware.
func New(deps Deps) (*Container, error) {
	cfg := deps.Cfg
	c := &Container{}

	users := deps.Users
	if users == nil {
		users = userinfra.NewPostgresUserRepository(deps.DB)
	}
	passwords := authinfra.NewBcryptPasswordService(cfg.Auth.Password.BcryptCost)
	audit := authinfra.NewLogxAuditService()

	var revocations auth.RevocationStore
	if cfg.Auth.Revocation.Enabled && deps.Redis != nil {
		revocations = authinfra.NewRedisDenylist(deps.Redis, cfg.Auth.JWT.AccessTTL)
		logx.Info("token revocation enabled")
	}

	c.Tokens = auth.NewJWTService(cfg.Auth.JWT.SecretKey, cfg.Auth.JWT.AccessTTL, cfg.Auth.JWT.Issuer)
	c.Middleware = auth.NewAuthMiddleware(c.Tokens, revocations, cfg.Auth.Cookie.Name,
		kernel.TenantID(cfg.Auth.PlatformTenantID))

	if err := invitationsrv.RegisterTemplates(deps.Mailer); err != nil {
		return nil, err
	}
	c.InvitationService = invitationsrv.NewService(users, deps.Hosts, deps.Mailer, audit, invitationsrv.Config{
		CodeLength: cfg.Auth.SecureCode.Length,
		CodeCost:   cfg.Auth.Password.BcryptCost,
		CodeTTL:    cfg.Auth.SecureCode.TTL,
		LoginURL:   cfg.Notifx.LoginURL,
	})
	switch {
	case deps.SyncInvites:
		c.Invites = invitationsrv.NewSyncDispatcher(c.InvitationService)
	case deps.Jobs != nil:
		deps.Jobs.Register(invitation.JobType, c.InvitationService.HandleJob)
		c.Invites = invitationsrv.NewQueueDispatcher(deps.Jobs)
	default:
		c.Invites = invitationsrv.NewInlineDispatcher(c.InvitationService, inlineDeliveryTimeout)
		logx.Warn("jobx disabled, invites are delivered inline")
	}

	c.AuthService = auth.NewService(users, passwords, c.Tokens, deps.Hosts, audit, revocations, auth.ServiceConfig{
		SecureCodeTTL:     cfg.Auth.SecureCode.TTL,
		MinPasswordLength: cfg.Auth.Password.MinLength,
	})
	c.UserService = usersrv.NewUserService(users, passwords, c.Invites, revocations, audit, cfg.Auth.Password.MinLength)

	c.AuthHandlers = auth.NewAuthHandlers(c.AuthService, c.Middleware, c.Tokens, auth.CookieConfig{
		Name:   cfg.Auth.Cookie.Name,
		Secure: cfg.Auth.Cookie.Secure,
		Domain: cfg.Auth.Cookie.Domain,
	})
	c.UserHandlers = userapi.NewUserHandlers(c.UserService, c.Middleware)

	logx.Info("iam module initialized")
	return c, nil
}
