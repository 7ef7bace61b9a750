package notifxses

import (
	"net/http"

	"github.com/karua/hostcore/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("NOTIFX_SES")

var (
	CodeSendFailed = ErrRegistry.Register("SEND_FAILED", errx.TypeExternal, http.StatusBadGateway, "SES send email failed")
	CodeConfig     = ErrRegistry.Register("CONFIG", errx.TypeInternal, http.StatusInternalServerError, "Failed to load AWS configuration")
)
