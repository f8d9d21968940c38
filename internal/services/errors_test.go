package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackErrorRedirectTag(t *testing.T) {
	tests := []struct {
		name string
		err  *CallbackError
		want string
	}{
		{"provider code passes through", &CallbackError{Reason: ReasonProviderError, ProviderCode: "access_denied"}, "access_denied"},
		{"provider without code", &CallbackError{Reason: ReasonProviderError}, ReasonProviderError},
		{"exchange failure is generic", &CallbackError{Reason: ReasonTokenExchangeFailed}, ReasonAuthFailed},
		{"invalid state", &CallbackError{Reason: ReasonInvalidState}, "invalid_state"},
		{"missing verifier", &CallbackError{Reason: ReasonMissingCodeVerifier}, "missing_code_verifier"},
		{"config missing", &CallbackError{Reason: ReasonConfigMissing}, "oauth_config_missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.RedirectTag())
		})
	}
}

func TestSanitizeProviderCode(t *testing.T) {
	assert.Equal(t, "access_denied", sanitizeProviderCode("access_denied"))
	assert.Equal(t, "", sanitizeProviderCode("<script>"))
	assert.Equal(t, "", sanitizeProviderCode("Access Denied"))
	assert.Equal(t, "", sanitizeProviderCode(""))
}

func TestCallbackErrorUnwrap(t *testing.T) {
	err := newCallbackError(ReasonTokenExchangeFailed, &ProviderError{Operation: "token exchange", StatusCode: 400})

	var providerErr *ProviderError
	assert.True(t, errors.As(err, &providerErr))
	assert.Equal(t, 400, providerErr.StatusCode)
	assert.Contains(t, err.Error(), ReasonTokenExchangeFailed)
}
