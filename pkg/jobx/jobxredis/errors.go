package jobxredis

import (
	"net/http"

	"github.com/karua/hostcore/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("JOBX_REDIS")

var (
	CodeEnqueue   = ErrRegistry.Register("ENQUEUE", errx.TypeExternal, http.StatusInternalServerError, "Redis enqueue failed")
	CodeDequeue   = ErrRegistry.Register("DEQUEUE", errx.TypeExternal, http.StatusInternalServerError, "Redis dequeue failed")
	CodeGetJob    = ErrRegistry.Register("GET_JOB", errx.TypeExternal, http.StatusInternalServerError, "Redis get job failed")
	CodeUpdate    = ErrRegistry.Register("UPDATE", errx.TypeExternal, http.StatusInternalServerError, "Redis job update failed")
	CodeRetry     = ErrRegistry.Register("RETRY", errx.TypeExternal, http.StatusInternalServerError, "Redis retry failed")
	CodePromote   = ErrRegistry.Register("PROMOTE", errx.TypeExternal, http.StatusInternalServerError, "Redis promote failed")
	CodeNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Job not found in Redis")
	CodeMarshal   = ErrRegistry.Register("MARSHAL", errx.TypeInternal, http.StatusInternalServerError, "Failed to marshal job data")
	CodeUnmarshal = ErrRegistry.Register("UNMARSHAL", errx.TypeInternal, http.StatusInternalServerError, "Failed to unmarshal job data")
)
