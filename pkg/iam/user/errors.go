package user

import (
	"net/http"

	"github.com/karua/hostcore/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound          = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeEmailAlreadyExists    = ErrRegistry.Register("EMAIL_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Email already registered")
	CodeUsernameAlreadyExists = ErrRegistry.Register("USERNAME_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Username already registered")
	CodeInvalidUserData       = ErrRegistry.Register("INVALID_DATA", errx.TypeValidation, http.StatusBadRequest, "Invalid user data")
	CodeInvalidRole           = ErrRegistry.Register("INVALID_ROLE", errx.TypeValidation, http.StatusBadRequest, "Invalid role")
	CodeRoleNotAssignable     = ErrRegistry.Register("ROLE_NOT_ASSIGNABLE", errx.TypeForbidden, http.StatusForbidden, "Role cannot be assigned by the current user")
	CodePasswordAlreadySet    = ErrRegistry.Register("PASSWORD_ALREADY_SET", errx.TypeConflict, http.StatusConflict, "User already completed first-time setup")
	CodeCannotModifySelf      = ErrRegistry.Register("CANNOT_MODIFY_SELF", errx.TypeValidation, http.StatusBadRequest, "Operation not allowed on your own account")
	CodeHostNotFound          = ErrRegistry.Register("HOST_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Host not found")
)

func ErrUserNotFound() *errx.Error          { return ErrRegistry.New(CodeUserNotFound) }
func ErrEmailAlreadyExists() *errx.Error    { return ErrRegistry.New(CodeEmailAlreadyExists) }
func ErrUsernameAlreadyExists() *errx.Error { return ErrRegistry.New(CodeUsernameAlreadyExists) }
func ErrInvalidUserData() *errx.Error       { return ErrRegistry.New(CodeInvalidUserData) }
func ErrInvalidRole() *errx.Error           { return ErrRegistry.New(CodeInvalidRole) }
func ErrRoleNotAssignable() *errx.Error     { return ErrRegistry.New(CodeRoleNotAssignable) }
func ErrPasswordAlreadySet() *errx.Error    { return ErrRegistry.New(CodePasswordAlreadySet) }
func ErrCannotModifySelf() *errx.Error      { return ErrRegistry.New(CodeCannotModifySelf) }
func ErrHostNotFound() *errx.Error          { return ErrRegistry.New(CodeHostNotFound) }
