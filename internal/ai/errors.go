package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigurationError reports a required setting (model name, API key) that is missing.
// It is raised before any network call and its text is meant for the end user.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// GatewayError is a non-success HTTP response from a model provider.
// Error() returns a diagnostic classified by status code; Detail keeps the raw provider body
// for logs.
type GatewayError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Guidance())
}

// Guidance is the human-readable advice for the status code.
func (e *GatewayError) Guidance() string {
	switch {
	case e.Status == http.StatusBadRequest:
		return "the request was rejected as malformed. Check the selected model name and the prompt settings."
	case e.Status == http.StatusUnauthorized:
		return "authentication failed. Check the API key configured in settings."
	case e.Status == http.StatusTooManyRequests:
		return "rate limit exceeded. Wait a moment before sending another message."
	case e.Status == http.StatusBadGateway, e.Status == http.StatusServiceUnavailable, e.Status >= 500:
		return "the model provider is temporarily unavailable. Please try again shortly."
	default:
		return "the model provider returned an unexpected error."
	}
}

// UserFacing returns the end-user text for configuration and gateway errors.
// ok is false for any other error, which callers replace with a generic apology.
func UserFacing(err error) (msg string, ok bool) {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error(), true
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Error(), true
	}
	return "", false
}

func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
