// Package invitation delivers the one-time secure code that lets an invited
// user choose their first password.
package invitation

import (
	"context"
	"net/http"

	"github.com/karua/hostcore/pkg/errx"
	"github.com/karua/hostcore/pkg/kernel"
)

const (
	// JobType is the background job that delivers an invite.
	JobType = "iam.invite.deliver"
	Queue   = "iam"

	TemplateName = "user_invite"
)

// Dispatcher schedules delivery of an invite to a user.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID) error
}

// Payload is the job body. It carries ids only; the code is generated by
// the worker and never stored in plain text.
type Payload struct {
	UserID   kernel.UserID   `json:"user_id"`
	TenantID kernel.TenantID `json:"tenant_id"`
}

var ErrRegistry = errx.NewRegistry("INVITATION")

var (
	CodeUserInactive = ErrRegistry.Register("USER_INACTIVE", errx.TypeConflict, http.StatusConflict, "Cannot invite an inactive user")
)

func ErrUserInactive() *errx.Error { return ErrRegistry.New(CodeUserInactive) }
