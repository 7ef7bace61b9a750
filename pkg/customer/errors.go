package customer

import (
	"net/http"

	"github.com/karua/hostcore/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("CUSTOMER")

var (
	CodeNotFound           = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Customer not found")
	CodeInvalidData        = ErrRegistry.Register("INVALID_DATA", errx.TypeValidation, http.StatusBadRequest, "Invalid customer data")
	CodeInvalidNationality = ErrRegistry.Register("INVALID_NATIONALITY", errx.TypeValidation, http.StatusBadRequest, "Nationality does not exist")
)

func ErrNotFound() *errx.Error           { return ErrRegistry.New(CodeNotFound) }
func ErrInvalidNationality() *errx.Error { return ErrRegistry.New(CodeInvalidNationality) }

// ErrInvalidData names the offending field.
func ErrInvalidData(field string) *errx.Error {
	return ErrRegistry.New(CodeInvalidData).WithDetail("field", field)
}
