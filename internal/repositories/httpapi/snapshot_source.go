package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/authgraph/authgraph/internal/entities"
	"github.com/authgraph/authgraph/internal/repositories"
)

const snapshotPath = "/rbac/snapshot"

// TokenProvider returns the bearer token to attach to authority requests.
// It is invoked once per outbound request. An empty return value means no
// Authorization header is sent; that is not an error.
type TokenProvider func() string

// SnapshotSource fetches the policy snapshot from the authority's HTTP API.
type SnapshotSource struct {
	baseURL string
	token   TokenProvider
	client  *http.Client
}

// NewSnapshotSource creates an HTTP snapshot source for the given base URL.
// token may be nil when the authority needs no credential. client may be nil;
// a default client with a 30 second timeout is used then.
func NewSnapshotSource(baseURL string, token TokenProvider, client *http.Client) *SnapshotSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SnapshotSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// Fetch retrieves the snapshot document. A 404 from the authority means "no
// policy data yet" and maps to repositories.ErrSnapshotNotFound; every other
// non-200 status is a transport failure.
func (s *SnapshotSource) Fetch(ctx context.Context) (*entities.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+snapshotPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if s.token != nil {
		if token := s.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, repositories.ErrSnapshotNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("authority returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var snapshot entities.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &snapshot, nil
}
