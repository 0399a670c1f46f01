package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider error codes.
const (
	CodeRateLimited   = "rate_limited"
	CodeInvalidAPIKey = "invalid_api_key"
	CodeQuotaExceeded = "quota_exceeded"
	CodeServerError   = "server_error"
	CodeNetworkError  = "network_error"
	CodeEmptyResponse = "empty_response"
	CodeContentFilter = "content_filtered"
	CodeAPIError      = "api_error"
)

// ProviderError is a classified failure of an LLM provider call.
type ProviderError struct {
	Provider  string
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ClassifyError maps an SDK error to a ProviderError.
//
// Context errors pass through untouched so callers can tell a deadline
// from a provider failure with errors.Is.
func ClassifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	lower := strings.ToLower(err.Error())
	classify := func(code, msg string, retryable bool) error {
		return &ProviderError{Provider: provider, Code: code, Message: msg, Retryable: retryable, Cause: err}
	}

	switch {
	case containsAny(lower, "rate limit", "429", "too many requests"):
		return classify(CodeRateLimited, "rate limit exceeded", true)
	case containsAny(lower, "invalid api key", "incorrect api key", "401", "unauthorized", "authentication"):
		return classify(CodeInvalidAPIKey, "API key is invalid or expired", false)
	case containsAny(lower, "insufficient_quota", "quota", "billing"):
		return classify(CodeQuotaExceeded, "quota exceeded", false)
	case containsAny(lower, "500", "502", "503", "504", "529", "overloaded", "internal server error", "bad gateway", "service unavailable"):
		return classify(CodeServerError, "server error", true)
	case containsAny(lower, "connection", "timeout", "network", "eof"):
		return classify(CodeNetworkError, "network error", true)
	default:
		return classify(CodeAPIError, "request failed", false)
	}
}

// ClassifyStatus maps an HTTP status returned by a provider to a
// ProviderError. Statuses without a specific code fall back to
// ClassifyError on err.
func ClassifyStatus(provider string, status int, err error) error {
	classify := func(code, msg string, retryable bool) error {
		return &ProviderError{Provider: provider, Code: code, Message: msg, Retryable: retryable, Cause: err}
	}

	switch {
	case status == 429:
		return classify(CodeRateLimited, "rate limit exceeded", true)
	case status == 401 || status == 403:
		return classify(CodeInvalidAPIKey, "API key is invalid or expired", false)
	case status == 402:
		return classify(CodeQuotaExceeded, "quota exceeded", false)
	case status >= 500:
		return classify(CodeServerError, "server error", true)
	default:
		return ClassifyError(provider, err)
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
