package main

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorsm/construction-management-client/pkg/task"
)

const tasksJSON = `[
  {"id": "house", "name": "House", "status": "IN_PROGRESS", "progress": 40,
   "planned_expenses_values": 1000, "actual_expenses_values": 200,
   "children": [
    {"id": "slab", "name": "Pour slab", "status": "DONE",
     "planned_end_date": "2024-06-01", "actual_end_date": "2024-06-03",
     "planned_expenses_values": 300, "actual_expenses_values": 350}
  ]},
  {"id": "garden", "name": "Garden", "status": "TODO"}
]`

// execute runs the CLI in-process with tasks on stdin.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeEnv(t, nil, args...)
}

// executeEnv is execute with extra environment variables set.
func executeEnv(t *testing.T, env map[string]string, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, name := range []string{"TASKTREE_CONFIG", "TASKTREE_FILE", "TASKTREE_API_URL", "TASKTREE_PROJECT", "TASKTREE_TOKEN"} {
		t.Setenv(name, "")
	}
	for name, value := range env {
		t.Setenv(name, value)
	}

	var stdout, stderr bytes.Buffer
	a := &app{
		stdin:      strings.NewReader(tasksJSON),
		stdout:     &stdout,
		stderr:     &stderr,
		isTerminal: func() bool { return false },
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestListFromStdin(t *testing.T) {
	out, _, err := execute(t, "list", "--file", "-", "--expand-all")
	require.NoError(t, err)
	assert.Equal(t, "▼ ◐ House 40%\n    ✓ Pour slab [delayed]\n  ○ Garden\n", out)
}

func TestListJSONRowCosts(t *testing.T) {
	out, _, err := execute(t, "list", "--file", "-", "--json", "--expand", "house")
	require.NoError(t, err)

	var rows []rowJSON
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "house", rows[0].ID)
	assert.True(t, rows[0].Expanded)
	assert.Equal(t, "house", rows[1].ParentID)
	assert.Equal(t, 1, rows[1].Level)
	assert.True(t, rows[1].Delayed)
	assert.Equal(t, "2024-06-01", rows[1].PlannedEnd)
	require.NotNil(t, rows[0].Cost)
	assert.Equal(t, task.Cost{Actual: 200, Planned: 1000}, *rows[0].Cost)
}

func TestSummaryRollupDoesNotChangeTotals(t *testing.T) {
	out, _, err := execute(t, "summary", "--file", "-", "--json", "--rollup-costs")
	require.NoError(t, err)

	var got summaryJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.Total.Total)
	assert.Equal(t, 1, got.Total.Completed)
	assert.Equal(t, 1, got.Total.Delayed)
	assert.Equal(t, task.Cost{Actual: 550, Planned: 1300}, got.TotalCosts)
	assert.Equal(t, got.TotalCosts, got.FilteredCosts)
}

func TestSummaryText(t *testing.T) {
	out, _, err := execute(t, "summary", "--file", "-", "--status", "DONE")
	require.NoError(t, err)
	assert.Contains(t, out, "shown")
	assert.Regexp(t, `(?m)^tasks\s+2\s+3$`, out)
	assert.Regexp(t, `(?m)^done\s+1\s+1$`, out)
}

func TestDelayedCommand(t *testing.T) {
	out, _, err := execute(t, "delayed", "--file", "-")
	require.NoError(t, err)
	assert.Equal(t, "  ✓ Pour slab (due 2024-06-01)\n", out)
}

func TestBareCommandListsWithoutTerminal(t *testing.T) {
	out, _, err := execute(t, "--file", "-")
	require.NoError(t, err)
	assert.Equal(t, "▶ ◐ House 40%\n  ○ Garden\n", out)
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"list"}, "no task source configured"},
		{"bad status", []string{"list", "--file", "-", "--status", "LATE"}, `unknown status "LATE"`},
		{"bad range", []string{"list", "--file", "-", "--range", "2024-02-01..2024-01-01"}, "end before start"},
		{"bad log level", []string{"list", "--file", "-", "--log-level", "loud"}, "unknown log level"},
		{"api without project", []string{"list", "--api-url", "http://localhost"}, "project_id is required"},
		{"stdin tui", []string{"tui", "--file", "-"}, "not stdin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseLevel("trace")
	assert.Error(t, err)
}

func TestDebugLogGoesToStderr(t *testing.T) {
	_, stderr, err := execute(t, "list", "--file", "-", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, stderr, "tasks loaded")
	assert.Contains(t, stderr, "source=stdin")
}

func TestListRollupCosts(t *testing.T) {
	out, _, err := execute(t, "list", "--file", "-", "--json", "--expand", "house", "--rollup-costs")
	require.NoError(t, err)

	var rows []rowJSON
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	require.NotNil(t, rows[0].Cost)
	assert.Equal(t, task.Cost{Actual: 550, Planned: 1300}, *rows[0].Cost)
	require.NotNil(t, rows[1].Cost)
	assert.Equal(t, task.Cost{Actual: 350, Planned: 300}, *rows[1].Cost)
}

func TestFileFlagReplacesAPIFromEnv(t *testing.T) {
	env := map[string]string{"TASKTREE_API_URL": "http://127.0.0.1:1"}
	out, _, err := executeEnv(t, env, "list", "--file", "-")
	require.NoError(t, err)
	assert.Equal(t, "▶ ◐ House 40%\n  ○ Garden\n", out)
}

func TestProjectFlagCompletesAPIFromEnv(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/projects/{id}/tasks", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["id"] != "7" || req.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tasksJSON))
	}).Methods(http.MethodGet)
	srv := httptest.NewServer(r)
	defer srv.Close()

	env := map[string]string{"TASKTREE_API_URL": srv.URL, "TASKTREE_TOKEN": "tok"}
	out, _, err := executeEnv(t, env, "list", "--project", "7")
	require.NoError(t, err)
	assert.Equal(t, "▶ ◐ House 40%\n  ○ Garden\n", out)

	_, _, err = executeEnv(t, env, "list")
	assert.ErrorContains(t, err, "project_id is required")
}
