package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vitorsm/construction-management-client/pkg/task"
)

// maxBody caps how much of a response is read.
const maxBody = 64 << 20

// APISource reads the task tree of one project from the REST API.
type APISource struct {
	BaseURL    string
	ProjectID  string
	Token      string
	HTTPClient *http.Client // nil means http.DefaultClient
}

// Endpoint returns the task-list URL for the project.
func (s *APISource) Endpoint() string {
	return strings.TrimRight(s.BaseURL, "/") + "/api/projects/" + url.PathEscape(s.ProjectID) + "/tasks"
}

// Fetch requests the project's task list with the bearer token.
func (s *APISource) Fetch(ctx context.Context) ([]task.Record, error) {
	if s.Token == "" {
		return nil, ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Accept", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w (%d)", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("fetching tasks: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return task.DecodeRecords(body)
}

func (s *APISource) String() string {
	return s.Endpoint()
}
