package domain

import (
	"errors"
	"fmt"
)

// Бизнес-ошибки. Ошибки провайдера/авторизации ловятся на границе адаптеров
// и заворачиваются в эти sentinel-ы; наружу сырые ошибки SDK не выходят.
var (
	ErrNotAuthenticated = errors.New("not_authenticated")
	ErrOffline          = errors.New("offline")

	ErrProvider      = errors.New("provider_unavailable")
	ErrNotFound      = errors.New("not_found")
	ErrQuotaExceeded = errors.New("quota_exceeded")

	ErrBadParams = errors.New("bad_params")

	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailInUse         = errors.New("email_in_use")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrTooManyRequests    = errors.New("too_many_requests")

	ErrUnexpected = errors.New("unexpected")
)

// Коды ошибок в конверте API (общие с сервером).
const (
	ErrCodeBadParams       = 1000
	ErrCodeUnauth          = 1001
	ErrCodeEmailInUse      = 1002
	ErrCodeInvalidEmail    = 1003
	ErrCodeWeakPassword    = 1004
	ErrCodeTooManyRequests = 1005
	ErrCodeNotFound        = 1006
	ErrCodeUnexpected      = 1100
)

// ErrorByCode переводит код из конверта в доменную ошибку.
func ErrorByCode(code int, text string) error {
	var base error
	switch code {
	case ErrCodeBadParams:
		base = ErrBadParams
	case ErrCodeUnauth:
		base = ErrInvalidCredentials
	case ErrCodeEmailInUse:
		base = ErrEmailInUse
	case ErrCodeInvalidEmail:
		base = ErrInvalidEmail
	case ErrCodeWeakPassword:
		base = ErrWeakPassword
	case ErrCodeTooManyRequests:
		base = ErrTooManyRequests
	case ErrCodeNotFound:
		base = ErrNotFound
	default:
		base = ErrUnexpected
	}
	if text == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, text)
}
