package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vitorsm/construction-management-client/pkg/task"
)

// FileSource reads a task-list document from disk. Path "-" reads stdin.
type FileSource struct {
	Path  string
	Stdin io.Reader // used for "-"; nil means os.Stdin
}

// Fetch reads and decodes the whole document.
func (s *FileSource) Fetch(ctx context.Context) ([]task.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	if s.Path == "-" {
		in := s.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	return task.DecodeRecords(data)
}

// Watchable reports whether the source is a regular file that can be
// watched for changes.
func (s *FileSource) Watchable() bool {
	return s.Path != "" && s.Path != "-"
}

func (s *FileSource) String() string {
	if s.Path == "-" {
		return "stdin"
	}
	return s.Path
}
