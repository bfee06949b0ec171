package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitorsm/construction-management-client/pkg/task"
)

// isolate points every lookup at empty temp dirs and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, k := range []string{EnvConfig, EnvToken, EnvAPIURL, EnvProject, EnvFile} {
		t.Setenv(k, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, EnvToken, cfg.Source.TokenEnv)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Costs.Rollup)

	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, timeout)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	isolate(t)
	path := filepath.Join(dir, "tasktree.yaml")
	writeFile(t, path, `
source:
  api_url: https://builds.example.com
  project_id: "42"
  token_env: BUILD_TOKEN
  timeout: 5s
costs:
  rollup: true
filter:
  statuses: [todo, in-progress]
  date_mode: within
log:
  level: debug
`)
	t.Setenv("BUILD_TOKEN", " secret ")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "https://builds.example.com", cfg.Source.APIURL)
	assert.Equal(t, "42", cfg.Source.ProjectID)
	assert.Equal(t, "secret", cfg.Token())
	assert.True(t, cfg.Costs.Rollup)
	assert.Equal(t, "debug", cfg.Log.Level)

	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)

	crit, err := cfg.Criteria()
	require.NoError(t, err)
	assert.Equal(t, []task.Status{task.StatusTodo, task.StatusInProgress}, crit.Statuses)
	assert.Equal(t, task.DateWithin, crit.DateMode)
}

func TestLoadTOMLFromDefaultDir(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, appName, "config.toml"), `
[source]
file = "/srv/tasks.json"

[filter]
statuses = ["DONE"]
`)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/tasks.json", cfg.Source.File)
	assert.Equal(t, filepath.Join(home, appName, "config.toml"), cfg.Path)

	crit, err := cfg.Criteria()
	require.NoError(t, err)
	assert.Equal(t, []task.Status{task.StatusDone}, crit.Statuses)
	assert.Equal(t, task.DateOverlap, crit.DateMode)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yml")
	writeFile(t, path, "source:\n  file: from-file.json\n")

	t.Setenv(EnvConfig, path)
	t.Setenv(EnvFile, "from-env.json")
	t.Setenv(EnvAPIURL, "http://localhost:8080")
	t.Setenv(EnvProject, "7")
	t.Setenv(EnvToken, "tok")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "from-env.json", cfg.Source.File)
	assert.Equal(t, "http://localhost:8080", cfg.Source.APIURL)
	assert.Equal(t, "7", cfg.Source.ProjectID)
	assert.Equal(t, "tok", cfg.Token())
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading config")

	ini := filepath.Join(dir, "config.ini")
	writeFile(t, ini, "x=1")
	_, err = Load(ini)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[source\n")
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parsing config")

	tests := map[string]string{
		"status":    "filter:\n  statuses: [blocked]\n",
		"date mode": "filter:\n  date_mode: sometimes\n",
		"timeout":   "source:\n  timeout: soon\n",
		"project":   "source:\n  api_url: http://x\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			writeFile(t, path, content)
			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigDirForOS(t *testing.T) {
	home, _ := os.UserHomeDir()

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Equal(t, filepath.Join(home, ".config", appName), configDirForOS("linux"))

	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, filepath.Join("/custom/config", appName), configDirForOS("linux"))

	assert.Equal(t, filepath.Join(home, "Library", "Application Support", appName), configDirForOS("darwin"))

	t.Setenv("APPDATA", `C:\Users\test\AppData\Roaming`)
	assert.Equal(t, filepath.Join(`C:\Users\test\AppData\Roaming`, appName), configDirForOS("windows"))
}

func TestStateDirForOS(t *testing.T) {
	home, _ := os.UserHomeDir()

	t.Setenv("XDG_STATE_HOME", "")
	assert.Equal(t, filepath.Join(home, ".local", "state", appName), stateDirForOS("linux"))

	t.Setenv("XDG_STATE_HOME", "/custom/state")
	assert.Equal(t, filepath.Join("/custom/state", appName), stateDirForOS("linux"))

	assert.Equal(t, filepath.Join(home, "Library", "Logs", appName), stateDirForOS("darwin"))

	t.Setenv("LOCALAPPDATA", "")
	t.Setenv("APPDATA", `C:\Users\test\AppData\Roaming`)
	assert.Equal(t, filepath.Join(`C:\Users\test\AppData\Roaming`, appName), stateDirForOS("windows"))
}
