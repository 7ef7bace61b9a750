package notifx

import (
	"net/http"

	"github.com/karua/hostcore/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("NOTIFX")

var (
	CodeSendFailed       = ErrRegistry.Register("SEND_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to send email")
	CodeInvalidMessage   = ErrRegistry.Register("INVALID_MESSAGE", errx.TypeValidation, http.StatusBadRequest, "Invalid email message")
	CodeTemplateNotFound = ErrRegistry.Register("TEMPLATE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Email template not found")
	CodeTemplateParse    = ErrRegistry.Register("TEMPLATE_PARSE", errx.TypeValidation, http.StatusBadRequest, "Failed to parse email template")
	CodeTemplateRender   = ErrRegistry.Register("TEMPLATE_RENDER", errx.TypeInternal, http.StatusInternalServerError, "Failed to render email template")
)

func ErrInvalidMessage(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidMessage).WithDetail("reason", reason)
}
