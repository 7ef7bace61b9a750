package authinfra

import (
	"context"
	"time"

	"github.com/karua/hostcore/pkg/iam/auth"
	"github.com/karua/hostcore/pkg/kernel"
	"github.com/karua/hostcore/pkg/logx"
)

// LogxAuditService implements auth.AuditService using structured logx logging.
type LogxAuditService struct{}

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

var _ auth.AuditService = (*LogxAuditService)(nil)

func (s *LogxAuditService) LogLoginAttempt(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, identifier string, success bool, reason string, ip string) {
	entry := logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "login_attempt",
		"user_id":     userID,
		"tenant_id":   tenantID,
		"identifier":  identifier,
		"success":     success,
		"ip":          ip,
		"timestamp":   time.Now(),
	})
	if !success {
		entry.WithField("reason", reason).Warn("Audit: login failed")
		return
	}
	entry.Info("Audit: login succeeded")
}

func (s *LogxAuditService) LogLogout(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, ip string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "logout",
		"user_id":     userID,
		"tenant_id":   tenantID,
		"ip":          ip,
		"timestamp":   time.Now(),
	}).Info("Audit: logout")
}

func (s *LogxAuditService) LogTokenRefresh(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, success bool, ip string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "token_refresh",
		"user_id":     userID,
		"tenant_id":   tenantID,
		"success":     success,
		"ip":          ip,
		"timestamp":   time.Now(),
	}).Info("Audit: token refresh")
}

func (s *LogxAuditService) LogFirstPasswordSet(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, success bool, reason string, ip string) {
	entry := logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "first_password_set",
		"user_id":     userID,
		"tenant_id":   tenantID,
		"success":     success,
		"ip":          ip,
		"timestamp":   time.Now(),
	})
	if !success {
		entry.WithField("reason", reason).Warn("Audit: first password rejected")
		return
	}
	entry.Info("Audit: first password set")
}

func (s *LogxAuditService) LogSecureCodeIssued(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "secure_code_issued",
		"user_id":     userID,
		"tenant_id":   tenantID,
		"timestamp":   time.Now(),
	}).Info("Audit: secure code issued")
}

func (s *LogxAuditService) LogPasswordChanged(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "password_changed",
		"user_id":     userID,
		"tenant_id":   tenantID,
		"timestamp":   time.Now(),
	}).Info("Audit: password changed")
}
