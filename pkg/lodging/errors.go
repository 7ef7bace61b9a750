package lodging

import (
	"net/http"

	"github.com/karua/hostcore/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("LODGING")

var (
	CodeTypeNotFound            = ErrRegistry.Register("TYPE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Accommodation type not found")
	CodeAccommodationNotFound   = ErrRegistry.Register("ACCOMMODATION_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Accommodation not found")
	CodeScheduleNotFound        = ErrRegistry.Register("SCHEDULE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Pricing schedule not found")
	CodeInvalidData             = ErrRegistry.Register("INVALID_DATA", errx.TypeValidation, http.StatusBadRequest, "Invalid accommodation data")
	CodeInvalidDateRange        = ErrRegistry.Register("INVALID_DATE_RANGE", errx.TypeValidation, http.StatusBadRequest, "End date must be after start date")
	CodeIdentifierAlreadyExists = ErrRegistry.Register("IDENTIFIER_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Accommodation identifier already in use")
	CodeTypeInUse               = ErrRegistry.Register("TYPE_IN_USE", errx.TypeConflict, http.StatusConflict, "Accommodation type still has accommodations or schedules")
)

func ErrTypeNotFound() *errx.Error            { return ErrRegistry.New(CodeTypeNotFound) }
func ErrAccommodationNotFound() *errx.Error   { return ErrRegistry.New(CodeAccommodationNotFound) }
func ErrScheduleNotFound() *errx.Error        { return ErrRegistry.New(CodeScheduleNotFound) }
func ErrInvalidDateRange() *errx.Error        { return ErrRegistry.New(CodeInvalidDateRange) }
func ErrIdentifierAlreadyExists() *errx.Error { return ErrRegistry.New(CodeIdentifierAlreadyExists) }
func ErrTypeInUse() *errx.Error               { return ErrRegistry.New(CodeTypeInUse) }

// ErrInvalidData names the offending field.
func ErrInvalidData(field string) *errx.Error {
	return ErrRegistry.New(CodeInvalidData).WithDetail("field", field)
}
