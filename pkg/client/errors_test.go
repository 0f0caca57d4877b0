package client

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		remaining string
		expected  ErrorClass
	}{
		{name: "bad request", status: 400, expected: ErrorClassClient},
		{name: "unauthorized", status: 401, expected: ErrorClassClient},
		{name: "forbidden with budget left", status: 403, remaining: "12", expected: ErrorClassClient},
		{name: "forbidden with exhausted budget", status: 403, remaining: "0", expected: ErrorClassRateLimit},
		{name: "too many requests", status: 429, expected: ErrorClassRateLimit},
		{name: "internal server error", status: 500, expected: ErrorClassServer},
		{name: "bad gateway", status: 502, expected: ErrorClassServer},
		{name: "unexpected redirect", status: 302, expected: ErrorClassClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Header: http.Header{}}
			if tt.remaining != "" {
				resp.Header.Set("X-RateLimit-Remaining", tt.remaining)
			}
			if got := classifyStatus(resp); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestTransportError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *TransportError
		expected string
	}{
		{
			name: "status with body",
			err: &TransportError{
				URL:        "https://api.github.com/users/x/starred",
				StatusCode: 500,
				Status:     "500 Internal Server Error",
				Body:       `{"message":"boom"}`,
				ErrorClass: ErrorClassServer,
			},
			expected: `HTTP 500 server: {"message":"boom"}`,
		},
		{
			name: "status without body",
			err: &TransportError{
				StatusCode: 404,
				Status:     "404 Not Found",
				ErrorClass: ErrorClassClient,
			},
			expected: "HTTP 404 client: 404 Not Found",
		},
		{
			name: "network failure",
			err: &TransportError{
				URL:        "https://api.github.com/users/x/starred",
				ErrorClass: ErrorClassNetwork,
				Err:        errors.New("connection refused"),
			},
			expected: "request https://api.github.com/users/x/starred failed: connection refused",
		},
		{
			name: "parse failure",
			err: &TransportError{
				URL:        "https://api.github.com/users/x/starred",
				StatusCode: 200,
				ErrorClass: ErrorClassParse,
				Err:        errors.New("unexpected end of JSON input"),
			},
			expected: "decode response from https://api.github.com/users/x/starred: unexpected end of JSON input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &TransportError{ErrorClass: ErrorClassNetwork, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var target *TransportError
	if !errors.As(error(err), &target) {
		t.Error("errors.As should match *TransportError")
	}
}

func TestConnectivityError(t *testing.T) {
	cause := errors.New("no such host")
	err := &ConnectivityError{Host: "api.github.com", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !strings.Contains(err.Error(), "api.github.com") {
		t.Errorf("Error() = %q, want host", err.Error())
	}
}

func TestAuthenticationError_Error(t *testing.T) {
	withUser := &AuthenticationError{Username: "octocat", StatusCode: 404, Reason: "Not Found"}
	if got, want := withUser.Error(), `invalid credentials for user "octocat" (status 404): Not Found`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	withoutUser := &AuthenticationError{StatusCode: 401, Reason: "Bad credentials"}
	if got, want := withoutUser.Error(), "invalid credentials (status 401): Bad credentials"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		token    string
		expected string
	}{
		{name: "no token configured", text: "abc", token: "", expected: "abc"},
		{name: "token absent", text: "nothing here", token: "secret", expected: "nothing here"},
		{name: "token present twice", text: "secret and secret", token: "secret", expected: "[REDACTED] and [REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redact(tt.text, tt.token); got != tt.expected {
				t.Errorf("redact() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q, want unchanged", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("truncate() = %q, want 10 chars plus ellipsis", got)
	}
}
