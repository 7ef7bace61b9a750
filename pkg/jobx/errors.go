package jobx

import (
	"net/http"

	"github.com/karua/hostcore/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("JOBX")

var (
	CodeNoHandler      = ErrRegistry.Register("NO_HANDLER", errx.TypeValidation, http.StatusBadRequest, "No handler registered for job type")
	CodeInvalidJob     = ErrRegistry.Register("INVALID_JOB", errx.TypeValidation, http.StatusBadRequest, "Invalid job definition")
	CodeInvalidPayload = ErrRegistry.Register("INVALID_PAYLOAD", errx.TypeValidation, http.StatusBadRequest, "Job payload could not be decoded")
	CodeAlreadyRunning = ErrRegistry.Register("ALREADY_RUNNING", errx.TypeConflict, http.StatusConflict, "Worker is already running")
	CodeHandlerPanic   = ErrRegistry.Register("HANDLER_PANIC", errx.TypeInternal, http.StatusInternalServerError, "Job handler panicked")
)

func ErrInvalidJob(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidJob).WithDetail("reason", reason)
}
