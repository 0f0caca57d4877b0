// Package testutil provides an httptest stand-in for the GitHub REST API.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/stars-export/pkg/record"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is what the mock saw for one request.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
}

// MockGitHub is a configurable mock GitHub server for testing.
type MockGitHub struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Token, when set, must arrive as "Authorization: Bearer <Token>".
	token string

	users     map[string]bool
	remaining int
	limit     int
	resetAt   time.Time

	requests         []RecordedRequest
	conditionalCount int
}

// NewMockGitHub creates a mock server that accepts the given token.
// An empty token disables the Authorization check.
func NewMockGitHub(token string) *MockGitHub {
	mock := &MockGitHub{
		handlers:  make(map[string]http.HandlerFunc),
		token:     token,
		users:     make(map[string]bool),
		remaining: 5000,
		limit:     5000,
		resetAt:   time.Now().Add(time.Hour).Truncate(time.Second),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the mock server URL without trailing slash.
func (m *MockGitHub) URL() string {
	return m.server.URL
}

// BaseURL returns the API base URL the client should be configured with.
func (m *MockGitHub) BaseURL() string {
	return m.server.URL + "/"
}

// Client returns an HTTP client wired to the mock server.
func (m *MockGitHub) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the mock server.
func (m *MockGitHub) Close() {
	m.server.Close()
}

// Reset clears request tracking.
func (m *MockGitHub) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.conditionalCount = 0
}

// AddUser makes /users/{login} answer 200 and /user report login.
func (m *MockGitHub) AddUser(login string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[login] = true
}

// SetRateLimit sets the budget reported on every response.
// A negative remaining omits the rate headers entirely.
func (m *MockGitHub) SetRateLimit(remaining int, resetAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining = remaining
	m.resetAt = resetAt
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGitHub) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockGitHub) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetStarredPages serves the starred list of username as the given pages.
// Page N (1-based, from the page query parameter) links to page N+1 with
// rel="next" while more pages remain. An empty pages list serves "[]".
// Every page carries an ETag and answers 304 when revalidated with it.
func (m *MockGitHub) SetStarredPages(username string, pages ...[]record.Raw) {
	m.AddUser(username)

	bodies := make([][]byte, len(pages))
	for i, page := range pages {
		if page == nil {
			page = []record.Raw{}
		}
		body, err := json.Marshal(page)
		if err != nil {
			panic(fmt.Sprintf("marshal starred page: %v", err))
		}
		bodies[i] = body
	}

	path := "/users/" + username + "/starred"
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		n := 1
		if p := r.URL.Query().Get("page"); p != "" {
			parsed, err := strconv.Atoi(p)
			if err != nil || parsed < 1 {
				writeMessage(w, http.StatusBadRequest, "invalid page")
				return
			}
			n = parsed
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		etag := fmt.Sprintf(`"%s-page-%d-%d"`, username, n, len(bodies))
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)

		if n > len(bodies) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("[]"))
			return
		}

		links := []string{}
		if n < len(bodies) {
			links = append(links, fmt.Sprintf(`<%s%s?per_page=100&page=%d>; rel="next"`, m.server.URL, path, n+1))
			links = append(links, fmt.Sprintf(`<%s%s?per_page=100&page=%d>; rel="last"`, m.server.URL, path, len(bodies)))
		}
		if n > 1 {
			links = append(links, fmt.Sprintf(`<%s%s?per_page=100&page=%d>; rel="prev"`, m.server.URL, path, n-1))
		}
		if len(links) > 0 {
			w.Header().Set("Link", strings.Join(links, ", "))
		}

		w.WriteHeader(http.StatusOK)
		w.Write(bodies[n-1])
	})
}

// Requests returns a copy of every request seen so far.
func (m *MockGitHub) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGitHub) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// GetConditionalCount returns the number of requests carrying If-None-Match.
func (m *MockGitHub) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

func (m *MockGitHub) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
	})
	if r.Header.Get("If-None-Match") != "" {
		m.conditionalCount++
	}
	handler, exists := m.handlers[r.URL.Path]
	token := m.token
	m.mu.Unlock()

	// HEAD / is the connectivity probe and carries no credential.
	if r.Method == http.MethodHead && r.URL.Path == "/" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
		writeMessage(w, http.StatusUnauthorized, "Bad credentials")
		return
	}

	m.writeRateHeaders(w)

	if exists {
		handler(w, r)
		return
	}

	m.defaultHandler(w, r)
}

func (m *MockGitHub) writeRateHeaders(w http.ResponseWriter) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.remaining < 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(m.remaining))
	w.Header().Set("X-RateLimit-Used", strconv.Itoa(m.limit-m.remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(m.resetAt.Unix(), 10))
}

// defaultHandler serves /user, /users/{login} and /rate_limit.
func (m *MockGitHub) defaultHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case r.URL.Path == "/user":
		login := "authenticated"
		for user := range m.users {
			login = user
			break
		}
		writeJSON(w, http.StatusOK, map[string]any{"login": login})

	case strings.HasPrefix(r.URL.Path, "/users/"):
		login := strings.TrimPrefix(r.URL.Path, "/users/")
		if !m.users[login] {
			writeMessage(w, http.StatusNotFound, "Not Found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"login": login})

	case r.URL.Path == "/rate_limit":
		core := map[string]any{
			"limit":     m.limit,
			"remaining": max(m.remaining, 0),
			"used":      m.limit - max(m.remaining, 0),
			"reset":     m.resetAt.Unix(),
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"resources": map[string]any{"core": core},
			"rate":      core,
		})

	default:
		writeMessage(w, http.StatusNotFound, "Not Found")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"message":           msg,
		"documentation_url": "https://docs.github.com/rest",
	})
}

// Repo builds a raw starred record for tests.
func Repo(name string, stars int) record.Raw {
	desc := name + " description"
	lang := "Go"
	return record.Raw{
		Name:            name,
		Description:     &desc,
		HTMLURL:         "https://github.com/example/" + name,
		Language:        &lang,
		StargazersCount: stars,
		CreatedAt:       "2020-01-02T03:04:05Z",
	}
}

// Repos builds n raw records named prefix-1..prefix-n.
func Repos(prefix string, n int) []record.Raw {
	out := make([]record.Raw, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Repo(fmt.Sprintf("%s-%d", prefix, i), i*100))
	}
	return out
}
