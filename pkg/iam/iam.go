package iam

import (
	"net/http"

	"github.com/karua/hostcore/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthorized       = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Unauthorized")
	CodeInvalidToken       = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid credentials")
	CodeSetupRequired      = ErrRegistry.Register("SETUP_REQUIRED", errx.TypeAuthorization, http.StatusUnauthorized, "Account must complete first-time setup")
	CodeInvalidSecureCode  = ErrRegistry.Register("INVALID_SECURE_CODE", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired secure code")
	CodeForbidden          = ErrRegistry.Register("FORBIDDEN", errx.TypeForbidden, http.StatusForbidden, "Insufficient permissions")
)

// Helper functions
func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

// ErrSetupRequired is returned by login for accounts that never set a password.
func ErrSetupRequired() *errx.Error {
	return ErrRegistry.New(CodeSetupRequired)
}

func ErrInvalidSecureCode() *errx.Error {
	return ErrRegistry.New(CodeInvalidSecureCode)
}

func ErrForbidden() *errx.Error {
	return ErrRegistry.New(CodeForbidden)
}
