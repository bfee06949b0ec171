// Package source fetches raw task records from a JSON file or the
// project task API.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vitorsm/construction-management-client/pkg/config"
	"github.com/vitorsm/construction-management-client/pkg/task"
)

var (
	// ErrUnauthorized indicates the API rejected the bearer token.
	ErrUnauthorized = errors.New("not authorized to read project tasks")

	// ErrNoToken indicates an API source was configured without a token.
	ErrNoToken = errors.New("no API token configured")

	// ErrNoSource indicates neither a file nor an API URL was configured.
	ErrNoSource = errors.New("no task source configured (set --file or --api-url)")
)

// Source yields the current task records of one project.
type Source interface {
	Fetch(ctx context.Context) ([]task.Record, error)
	String() string
}

// Load fetches from src and normalizes the result into a tree.
func Load(ctx context.Context, src Source) ([]*task.Node, error) {
	records, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", src, err)
	}
	return task.Normalize(records), nil
}

// FromConfig builds the source described by cfg. An API URL takes
// precedence over a file path.
func FromConfig(cfg *config.Config) (Source, error) {
	switch {
	case cfg.Source.APIURL != "":
		token := cfg.Token()
		if token == "" {
			return nil, fmt.Errorf("%w: set $%s", ErrNoToken, cfg.Source.TokenEnv)
		}
		timeout, err := cfg.Timeout()
		if err != nil {
			return nil, err
		}
		return &APISource{
			BaseURL:    cfg.Source.APIURL,
			ProjectID:  cfg.Source.ProjectID,
			Token:      token,
			HTTPClient: &http.Client{Timeout: timeout},
		}, nil
	case cfg.Source.File != "":
		return &FileSource{Path: cfg.Source.File}, nil
	}
	return nil, ErrNoSource
}
