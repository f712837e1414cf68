package domain

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is a non-401 failure response from the backend.
type APIError struct {
	StatusCode int    `json:"-"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Detail)
}

// Message returns the text shown to the user, falling back when the backend gave no detail.
func (e *APIError) Message(fallback string) string {
	if e.Detail != "" {
		return e.Detail
	}

	return fallback
}

// ErrorMessage extracts a user-facing message from any error returned by the facades.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message(fallback)
	}

	var validationErrs ValidationErrors
	if errors.As(err, &validationErrs) {
		return validationErrs.Error()
	}

	return fallback
}

// ErrValidation marks client-side validation failures.
var ErrValidation = errors.New("validation failed")

// ValidationErrors maps a form field name to its message.
type ValidationErrors map[string]string

func (ve ValidationErrors) Error() string {
	fields := make([]string, 0, len(ve))
	for field := range ve {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+ve[field])
	}

	return strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) match.
func (ve ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}
