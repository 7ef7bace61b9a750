package host

import (
	"net/http"

	"github.com/karua/hostcore/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("HOST")

var (
	CodeHostNotFound           = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Host not found")
	CodeCNPJAlreadyExists      = ErrRegistry.Register("CNPJ_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "A host with this CNPJ already exists")
	CodeCPFAlreadyExists       = ErrRegistry.Register("CPF_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "A legal representative with this CPF already exists")
	CodeInvalidHostData        = ErrRegistry.Register("INVALID_DATA", errx.TypeValidation, http.StatusBadRequest, "Invalid host data")
	CodeRepresentativeNotFound = ErrRegistry.Register("REPRESENTATIVE_NOT_FOUND", errx.TypeValidation, http.StatusBadRequest, "Legal representative not found for this host")
)

func ErrHostNotFound() *errx.Error           { return ErrRegistry.New(CodeHostNotFound) }
func ErrCNPJAlreadyExists() *errx.Error      { return ErrRegistry.New(CodeCNPJAlreadyExists) }
func ErrCPFAlreadyExists() *errx.Error       { return ErrRegistry.New(CodeCPFAlreadyExists) }
func ErrInvalidHostData() *errx.Error        { return ErrRegistry.New(CodeInvalidHostData) }
func ErrRepresentativeNotFound() *errx.Error { return ErrRegistry.New(CodeRepresentativeNotFound) }
