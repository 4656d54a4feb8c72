package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/llm"
)

// Classify maps a provider error onto the user-facing error kinds. Rejected
// credentials become auth failures; everything else is a generation failure
// carrying the underlying message.
func Classify(err error) *apperr.Error {
	if err == nil {
		return nil
	}

	var typed *apperr.Error
	if errors.As(err, &typed) {
		return typed
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		return apperr.Wrap(err, apperr.KindAuthFailure, "API key authentication failed. Please verify your key.")
	}

	msg := err.Error()
	if strings.Contains(msg, "API key") || strings.Contains(msg, "API_KEY_INVALID") {
		return apperr.Wrap(err, apperr.KindAuthFailure, "Invalid API key. Please check and try again.")
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(err, apperr.KindGenerationFailure, "the diagram service did not answer in time")
	case errors.Is(err, context.Canceled):
		return apperr.Wrap(err, apperr.KindGenerationFailure, "the request was cancelled")
	}

	if apiErr != nil && apiErr.Message != "" {
		return apperr.Wrap(err, apperr.KindGenerationFailure, apiErr.Message)
	}
	return apperr.Wrap(err, apperr.KindGenerationFailure, msg)
}
