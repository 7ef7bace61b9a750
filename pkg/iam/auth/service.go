package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/iam"
	"github.com/karua/hostcore/pkg/iam/securecode"
	"github.com/karua/hostcore/pkg/iam/user"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/karua/hostcore/pkg/iam/auth")

// Failure reasons recorded by the audit log. Clients never see them.
const (
	reasonUnknownIdentifier = "unknown_identifier"
	reasonInactive          = "inactive"
	reasonSetupRequired     = "setup_required"
	reasonBadPassword       = "bad_password"
	reasonPasswordSet       = "password_already_set"
	reasonNoCode            = "no_code_issued"
	reasonCodeExpired       = "code_expired"
	reasonCodeMismatch      = "code_mismatch"
	reasonLostRace          = "concurrent_use"
)

// ServiceConfig holds the tunables of the authentication flow.
type ServiceConfig struct {
	// SecureCodeTTL bounds how long an invite code stays usable after it was
	// sent. Zero disables expiry.
	SecureCodeTTL     time.Duration
	MinPasswordLength int
}

// Service implements login, logout, refresh and first-time password setup.
// It is the only component that mints tokens.
type Service struct {
	users       user.Repository
	passwords   user.PasswordHasher
	tokens      TokenService
	hosts       HostDirectory
	audit       AuditService
	revocations RevocationStore
	cfg         ServiceConfig
	now         func() time.Time

	decoyOnce sync.Once
	decoyHash string
}

// NewService wires the flow. revocations may be nil.
func NewService(
	users user.Repository,
	passwords user.PasswordHasher,
	tokens TokenService,
	hosts HostDirectory,
	audit AuditService,
	revocations RevocationStore,
	cfg ServiceConfig,
) *Service {
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 6
	}
	return &Service{
		users:       users,
		passwords:   passwords,
		tokens:      tokens,
		hosts:       hosts,
		audit:       audit,
		revocations: revocations,
		cfg:         cfg,
		now:         time.Now,
	}
}

// ============================================================================
// Operations
// ============================================================================

// Login authenticates by email or username. Accounts that never set a
// password get SetupRequired without any hash comparison.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Session, error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer span.End()

	ip := ClientIP(ctx)
	u, err := s.resolve(ctx, identifier)
	if err != nil {
		if errx.IsCode(err, user.CodeUserNotFound) {
			s.decoyCompare(password)
			s.audit.LogLoginAttempt(ctx, "", "", identifier, false, reasonUnknownIdentifier, ip)
			return nil, fail(span, iam.ErrInvalidCredentials())
		}
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("user.id", u.ID.String()), attribute.String("tenant.id", u.TenantID.String()))

	if !u.IsActive {
		s.decoyCompare(password)
		s.audit.LogLoginAttempt(ctx, u.ID, u.TenantID, identifier, false, reasonInactive, ip)
		return nil, fail(span, iam.ErrInvalidCredentials())
	}
	if !u.HasPassword() {
		s.audit.LogLoginAttempt(ctx, u.ID, u.TenantID, identifier, false, reasonSetupRequired, ip)
		return nil, fail(span, iam.ErrSetupRequired())
	}
	if !s.passwords.Compare(*u.PasswordHash, password) {
		s.audit.LogLoginAttempt(ctx, u.ID, u.TenantID, identifier, false, reasonBadPassword, ip)
		return nil, fail(span, iam.ErrInvalidCredentials())
	}

	session, err := s.openSession(ctx, u)
	if err != nil {
		return nil, fail(span, err)
	}
	s.audit.LogLoginAttempt(ctx, u.ID, u.TenantID, identifier, true, "", ip)
	return session, nil
}

// Logout records the event. With a denylist configured, every token of the
// user issued up to and including this one stops passing the gate.
func (s *Service) Logout(ctx context.Context, claims *TokenClaims) {
	ctx, span := tracer.Start(ctx, "auth.Logout")
	defer span.End()

	if claims == nil {
		return
	}
	if s.revocations != nil {
		cutoff := claims.IssuedAt.Add(time.Millisecond)
		if err := s.revocations.Revoke(ctx, claims.UserID, cutoff); err != nil {
			logx.WithContext(ctx).WithError(err).
				WithField("user_id", claims.UserID.String()).
				Warn("failed to revoke token on logout")
		}
	}
	s.audit.LogLogout(ctx, claims.UserID, claims.TenantID, ClientIP(ctx))
}

// Refresh re-issues a token after re-reading the account, so deactivated or
// deleted users cannot extend their session.
func (s *Service) Refresh(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) (*Session, error) {
	ctx, span := tracer.Start(ctx, "auth.Refresh",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	ip := ClientIP(ctx)
	u, err := s.users.FindByID(ctx, userID, tenantID)
	if err != nil {
		if errx.IsCode(err, user.CodeUserNotFound) {
			s.audit.LogTokenRefresh(ctx, userID, tenantID, false, ip)
			return nil, fail(span, iam.ErrUnauthorized())
		}
		return nil, fail(span, err)
	}
	if !u.IsActive {
		s.audit.LogTokenRefresh(ctx, userID, tenantID, false, ip)
		return nil, fail(span, iam.ErrUnauthorized())
	}

	session, err := s.openSession(ctx, u)
	if err != nil {
		return nil, fail(span, err)
	}
	s.audit.LogTokenRefresh(ctx, userID, tenantID, true, ip)
	return session, nil
}

// CheckFirstLogin tells a client whether to show the password setup screen.
func (s *Service) CheckFirstLogin(ctx context.Context, identifier string) (*FirstLoginStatus, error) {
	ctx, span := tracer.Start(ctx, "auth.CheckFirstLogin")
	defer span.End()

	u, err := s.resolve(ctx, identifier)
	if err != nil {
		if errx.IsCode(err, user.CodeUserNotFound) {
			return nil, fail(span, iam.ErrUnauthorized())
		}
		return nil, fail(span, err)
	}
	if !u.IsActive {
		return nil, fail(span, iam.ErrUnauthorized())
	}
	return &FirstLoginStatus{RequiresPasswordSetup: u.RequiresPasswordSetup()}, nil
}

// SetFirstPassword redeems an invite code. The write is conditional on the
// row still having no password and still holding the verified code hash, so
// a code can be redeemed at most once even under concurrent requests.
func (s *Service) SetFirstPassword(ctx context.Context, identifier, newPassword, code string) (*Session, error) {
	ctx, span := tracer.Start(ctx, "auth.SetFirstPassword")
	defer span.End()

	if len(newPassword) < s.cfg.MinPasswordLength {
		return nil, fail(span, ErrInvalidRequest("password"))
	}

	ip := ClientIP(ctx)
	reject := func(u *user.User, reason string) (*Session, error) {
		var (
			uid kernel.UserID
			tid kernel.TenantID
		)
		if u != nil {
			uid, tid = u.ID, u.TenantID
		}
		s.audit.LogFirstPasswordSet(ctx, uid, tid, false, reason, ip)
		return nil, fail(span, iam.ErrInvalidSecureCode())
	}

	u, err := s.resolve(ctx, identifier)
	if err != nil {
		if errx.IsCode(err, user.CodeUserNotFound) {
			return reject(nil, reasonUnknownIdentifier)
		}
		return nil, fail(span, err)
	}

	switch {
	case !u.IsActive:
		return reject(u, reasonInactive)
	case u.HasPassword():
		return reject(u, reasonPasswordSet)
	case !u.HasPendingCode():
		return reject(u, reasonNoCode)
	case securecode.Expired(u.InviteSentAt, s.cfg.SecureCodeTTL, s.now()):
		return reject(u, reasonCodeExpired)
	}

	storedCode := *u.SecureCode
	ok, err := securecode.Verify(code, storedCode)
	if err != nil {
		logx.WithContext(ctx).WithError(err).WithField("user_id", u.ID.String()).Error("stored secure code is unusable")
		return reject(u, reasonCodeMismatch)
	}
	if !ok {
		return reject(u, reasonCodeMismatch)
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return nil, fail(span, err)
	}

	updated, err := s.users.SetFirstPassword(ctx, u.ID, u.TenantID, hash, storedCode)
	if err != nil {
		return nil, fail(span, err)
	}
	if !updated {
		return reject(u, reasonLostRace)
	}

	u.PasswordHash = &hash
	u.SecureCode = nil
	u.IsFirstLogin = false
	s.audit.LogFirstPasswordSet(ctx, u.ID, u.TenantID, true, "", ip)

	session, err := s.openSession(ctx, u)
	if err != nil {
		return nil, fail(span, err)
	}
	return session, nil
}

// ============================================================================
// Helpers
// ============================================================================

// decoyCompare spends one password comparison on a throwaway hash so that
// unknown and inactive accounts answer as slowly as a wrong password.
func (s *Service) decoyCompare(password string) {
	s.decoyOnce.Do(func() {
		hash, err := s.passwords.Hash("decoy-password-never-assigned")
		if err != nil {
			logx.WithError(err).Warn("failed to prepare decoy password hash")
			return
		}
		s.decoyHash = hash
	})
	if s.decoyHash != "" {
		s.passwords.Compare(s.decoyHash, password)
	}
}

// resolve looks the identifier up as an email first and as a username second.
func (s *Service) resolve(ctx context.Context, identifier string) (*user.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, user.ErrUserNotFound()
	}

	u, err := s.users.FindByEmail(ctx, user.NormalizeEmail(identifier))
	if err == nil {
		return u, nil
	}
	if !errx.IsCode(err, user.CodeUserNotFound) {
		return nil, err
	}
	return s.users.FindByUsername(ctx, identifier)
}

func (s *Service) openSession(ctx context.Context, u *user.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(identityOf(u))
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        s.summarize(ctx, u),
	}, nil
}

func (s *Service) summarize(ctx context.Context, u *user.User) UserSummary {
	hostName, err := s.hosts.HostName(ctx, u.TenantID)
	if err != nil {
		logx.WithContext(ctx).WithError(err).WithField("tenant_id", u.TenantID.String()).Warn("could not resolve host name")
	}
	return UserSummary{
		UserID:                u.ID,
		Name:                  u.Name,
		Email:                 u.Email,
		Username:              u.Username,
		Role:                  u.Role,
		TenantID:              u.TenantID,
		HostName:              hostName,
		IsFirstLogin:          u.IsFirstLogin,
		RequiresPasswordSetup: u.RequiresPasswordSetup(),
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

type clientIPKey struct{}

// WithClientIP stores the caller address for audit records.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
