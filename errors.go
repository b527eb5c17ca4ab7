package auth

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
)

// Auth failure taxonomy. Handlers return these sentinels (or clones with
// metadata) and the HTTP boundary maps them to the status codes below; raw
// causes are logged server-side, never serialized to clients.
var (
	// ErrInvalidEmailFormat rejects identifiers that are not local@domain.tld.
	ErrInvalidEmailFormat = errors.New("invalid email format", errors.CategoryBadInput).
				WithTextCode("INVALID_EMAIL_FORMAT").
				WithCode(errors.CodeBadRequest)

	// ErrInvalidCredentials is returned for any login miss. It deliberately
	// does not reveal whether the email exists.
	ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
				WithTextCode("INVALID_CREDENTIALS").
				WithCode(errors.CodeUnauthorized)

	// ErrUnauthenticated is returned when a protected route is hit without a
	// token.
	ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
				WithTextCode("UNAUTHENTICATED").
				WithCode(errors.CodeUnauthorized)

	// ErrTokenMalformed covers tokens that do not parse or verify against the
	// signing key.
	ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
				WithTextCode("TOKEN_MALFORMED").
				WithCode(errors.CodeUnauthorized)

	// ErrTokenExpired is distinct from ErrTokenMalformed so clients can prompt
	// a re-login instead of rejecting outright.
	ErrTokenExpired = errors.New("session expired, please sign in again", errors.CategoryAuth).
			WithTextCode("TOKEN_EXPIRED").
			WithCode(errors.CodeUnauthorized)

	// ErrIncompleteClaims flags a token whose signature and expiry check out
	// but which is missing one of the required identity claims.
	ErrIncompleteClaims = errors.New("token is missing required claims", errors.CategoryAuth).
				WithTextCode("TOKEN_INCOMPLETE_CLAIMS").
				WithCode(errors.CodeUnauthorized)

	// ErrForbidden is returned for authenticated but insufficiently privileged
	// requests. It never distinguishes "missing" from "not permitted".
	ErrForbidden = errors.New("insufficient permissions", errors.CategoryAuthz).
			WithTextCode("FORBIDDEN").
			WithCode(errors.CodeForbidden)

	// ErrUserNotFound is returned for lookups that match no active record.
	ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
			WithTextCode("USER_NOT_FOUND").
			WithCode(errors.CodeNotFound)

	// ErrDuplicateEmail covers both active records and soft-deleted ones; a
	// released address stays reserved.
	ErrDuplicateEmail = errors.New("email is already registered", errors.CategoryConflict).
				WithTextCode("DUPLICATE_EMAIL").
				WithCode(errors.CodeConflict)

	// ErrPrimaryAdminImmutable protects the seed administrator from deletion.
	ErrPrimaryAdminImmutable = errors.New("the primary admin account cannot be deleted", errors.CategoryAuthz).
					WithTextCode("PRIMARY_ADMIN_IMMUTABLE").
					WithCode(errors.CodeForbidden)

	// ErrRateLimited is returned when a client exhausts its request window.
	ErrRateLimited = errors.New("too many requests, please try again later", errors.CategoryRateLimit).
			WithTextCode("RATE_LIMITED").
			WithCode(http.StatusTooManyRequests)
)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
