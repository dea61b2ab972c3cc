package e2e

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/authgraph/authgraph/internal/repositories/httpapi"
	"github.com/authgraph/authgraph/internal/services"
	"github.com/authgraph/authgraph/internal/services/rules"
)

// FakeAuthority is an in-process policy authority backed by httptest. Tests
// swap its snapshot document or status code between loads to drive the
// client through the full fetch/materialize/swap flow.
type FakeAuthority struct {
	mu       sync.Mutex
	body     string
	status   int
	requests []*http.Request

	Server *httptest.Server
}

// NewFakeAuthority starts an authority serving the given snapshot document.
func NewFakeAuthority(t *testing.T, body string) *FakeAuthority {
	t.Helper()

	a := &FakeAuthority{body: body, status: http.StatusOK}
	a.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()

		clone := r.Clone(r.Context())
		a.requests = append(a.requests, clone)

		if r.URL.Path != "/rbac/snapshot" {
			http.NotFound(w, r)
			return
		}
		if a.status != http.StatusOK {
			w.WriteHeader(a.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(a.body))
	}))
	t.Cleanup(a.Server.Close)

	return a
}

// SetSnapshot replaces the snapshot document served on the next fetch.
func (a *FakeAuthority) SetSnapshot(body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.body = body
	a.status = http.StatusOK
}

// SetStatus makes the authority answer with the given status code.
func (a *FakeAuthority) SetStatus(status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = status
}

// LastRequest returns the most recent request the authority received.
func (a *FakeAuthority) LastRequest(t *testing.T) *http.Request {
	t.Helper()

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.requests) == 0 {
		t.Fatal("authority received no requests")
	}
	return a.requests[len(a.requests)-1]
}

// NewTestManager wires a snapshot manager against the fake authority with the
// default rule registry.
func NewTestManager(t *testing.T, authority *FakeAuthority, token string) *services.SnapshotManager {
	t.Helper()

	var provider httpapi.TokenProvider
	if token != "" {
		provider = func() string { return token }
	}
	source := httpapi.NewSnapshotSource(authority.Server.URL, provider, nil)
	return services.NewSnapshotManager(source, rules.NewRegistry())
}
