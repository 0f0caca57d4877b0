package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorClass represents a classification of failed requests.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429, or 403 with an exhausted budget.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassParse represents a 2xx response whose body is not a JSON array.
	ErrorClassParse ErrorClass = "parse"
)

// redacted replaces the credential wherever it would otherwise surface.
const redacted = "[REDACTED]"

// maxErrorBody caps the response text carried by a TransportError.
const maxErrorBody = 4096

// ErrMissingToken is returned by New when no token is configured.
var ErrMissingToken = errors.New("token is required")

// ConnectivityError means the API host could not be reached at all.
type ConnectivityError struct {
	Host string
	Err  error
}

// Error implements the error interface.
func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("no connection to %s: %v", e.Host, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// AuthenticationError means the token or the username was rejected.
type AuthenticationError struct {
	Username   string
	StatusCode int
	Reason     string
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.Username != "" {
		return fmt.Sprintf("invalid credentials for user %q (status %d): %s", e.Username, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("invalid credentials (status %d): %s", e.StatusCode, e.Reason)
}

// TransportError is a failed page request: a non-2xx status, a network
// failure, or an undecodable body. Body never contains the token.
type TransportError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
	ErrorClass ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.ErrorClass == ErrorClassParse:
		return fmt.Sprintf("decode response from %s: %v", e.URL, e.Err)
	case e.StatusCode == 0:
		return fmt.Sprintf("request %s failed: %v", e.URL, e.Err)
	case e.Body != "":
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.ErrorClass, e.Body)
	default:
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.ErrorClass, e.Status)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether the response arrived but could not be decoded.
func (e *TransportError) IsParseError() bool {
	return e.ErrorClass == ErrorClassParse
}

// classifyStatus categorizes a non-2xx response for observability.
func classifyStatus(resp *http.Response) ErrorClass {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		// Unexpected 1xx/3xx responses are the caller's problem too.
		return ErrorClassClient
	}
}

// redact strips the token from text that is about to leave the client.
func redact(text, token string) string {
	if token == "" {
		return text
	}
	return strings.ReplaceAll(text, token, redacted)
}

// truncate keeps error bodies readable in logs.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
