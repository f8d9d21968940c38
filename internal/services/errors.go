package services

import (
	"errors"
	"fmt"
	"regexp"
)

// Базові помилки сервісного шару
var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConfigMissing     = errors.New("twitter oauth configuration missing")
	ErrMalformedResponse = errors.New("malformed provider response")
)

// ProviderError non-2xx відповідь від Twitter.
// Body лише для внутрішньої діагностики, назовні не віддається.
type ProviderError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Причини помилок callback'у
const (
	ReasonProviderError       = "provider_error"
	ReasonMissingCodeOrState  = "missing_code_or_state"
	ReasonInvalidState        = "invalid_state"
	ReasonMissingCodeVerifier = "missing_code_verifier"
	ReasonConfigMissing       = "oauth_config_missing"
	ReasonTokenExchangeFailed = "token_exchange_failed"
	ReasonAuthFailed          = "authentication_failed"
)

var providerErrorCode = regexp.MustCompile(`^[a-z_]{1,64}$`)

// CallbackError термінальний стан callback'у з причиною
type CallbackError struct {
	Reason string
	// ProviderCode значення error від провайдера, якщо воно виглядає як код OAuth
	ProviderCode string
	Err          error
}

func (e *CallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth callback failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("oauth callback failed (%s)", e.Reason)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// RedirectTag значення параметра error для редіректу на головну сторінку
func (e *CallbackError) RedirectTag() string {
	switch e.Reason {
	case ReasonProviderError:
		if e.ProviderCode != "" {
			return e.ProviderCode
		}
		return ReasonProviderError
	case ReasonTokenExchangeFailed:
		return ReasonAuthFailed
	default:
		return e.Reason
	}
}

func newCallbackError(reason string, err error) *CallbackError {
	return &CallbackError{Reason: reason, Err: err}
}

// sanitizeProviderCode пропускає лише коди виду access_denied
func sanitizeProviderCode(code string) string {
	if providerErrorCode.MatchString(code) {
		return code
	}
	return ""
}
