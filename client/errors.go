package client

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenExpired   = "token_expired"
	TextCodeSessionExpired = "session_expired"
	TextCodeTimeout        = "request_timeout"
	TextCodeNetwork        = "network_error"
	TextCodeRequestFailed  = "request_failed"
)

// ErrTokenExpired is returned when a login is attempted with a token that is
// already past its expiry (or that cannot be decoded at all).
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrSessionExpired is returned when the backend answers 401; the credential
// store has already been cleared by the time callers see it.
var ErrSessionExpired = errors.New("your session has expired, please sign in again", errors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTimeout is returned when a call exceeds the gateway deadline. Worded for
// end users: timeouts are transient, retrying is reasonable.
var ErrTimeout = errors.New("the request timed out, please try again", errors.CategoryOperation).
	WithTextCode(TextCodeTimeout)

// ErrNetwork is returned when the call never reached the backend at all.
var ErrNetwork = errors.New("could not reach the job service, please try again", errors.CategoryOperation).
	WithTextCode(TextCodeNetwork)

// RequestFailed builds the error for a non-2xx, non-401 response, carrying
// the human readable message extracted from the backend's error body.
func RequestFailed(message string) *errors.Error {
	return errors.New(message, errors.CategoryOperation).
		WithTextCode(TextCodeRequestFailed)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsTokenExpired reports whether err came from a dead token handed to Login.
func IsTokenExpired(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsSessionExpired reports whether err is the 401-driven session teardown.
func IsSessionExpired(err error) bool {
	return hasTextCode(err, TextCodeSessionExpired)
}

// IsTimeout reports whether err is a gateway deadline failure.
func IsTimeout(err error) bool {
	return hasTextCode(err, TextCodeTimeout)
}

// IsNetworkError reports whether err is a transport failure that never got a
// response.
func IsNetworkError(err error) bool {
	return hasTextCode(err, TextCodeNetwork)
}

// IsRequestFailed reports whether err is a non-2xx backend response.
func IsRequestFailed(err error) bool {
	return hasTextCode(err, TextCodeRequestFailed)
}

// IsTransient reports whether retrying the same call could plausibly succeed.
// Pages use it to word error messages differently from permanent failures.
func IsTransient(err error) bool {
	return IsTimeout(err) || IsNetworkError(err)
}
