package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	l := Loader{HomeDir: t.TempDir(), WorkDir: t.TempDir(), Getenv: env(nil)}
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.Sources)
}

func TestLoad_Precedence(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()
	work := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(work, 0o755))

	userPath := filepath.Join(home, filepath.FromSlash(UserFile))
	writeFile(t, userPath, "context = 5\ncolor = \"never\"\nlog_level = \"info\"\n")

	projectPath := filepath.Join(root, "a", ProjectFile)
	writeFile(t, projectPath, "context = 1\n")

	l := Loader{HomeDir: home, WorkDir: work, Getenv: env(map[string]string{"XDIFF_LOG_LEVEL": "DEBUG"})}
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Context)        // project file
	assert.Equal(t, ColorNever, cfg.Color) // user file
	assert.Equal(t, "debug", cfg.LogLevel) // env
	assert.False(t, cfg.OmitConflicts)
	assert.Equal(t, []string{userPath, projectPath}, cfg.Sources)
}

func TestLoad_NearestProjectFileWins(t *testing.T) {
	root := t.TempDir()
	work := filepath.Join(root, "inner")
	writeFile(t, filepath.Join(root, ProjectFile), "context = 7\n")
	writeFile(t, filepath.Join(work, ProjectFile), "context = 2\n")

	cfg, err := Loader{HomeDir: t.TempDir(), WorkDir: work, Getenv: env(nil)}.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Context)
}

func TestLoad_EmptyProjectFileIsSkipped(t *testing.T) {
	root := t.TempDir()
	work := filepath.Join(root, "inner")
	writeFile(t, filepath.Join(root, ProjectFile), "context = 7\n")
	writeFile(t, filepath.Join(work, ProjectFile), "")

	cfg, err := Loader{HomeDir: t.TempDir(), WorkDir: work, Getenv: env(nil)}.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Context)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad toml", file: "context = \n", wantErr: "parse config"},
		{name: "wrong type", file: "context = \"three\"\n", wantErr: "parse config"},
		{name: "bad env context", env: map[string]string{"XDIFF_CONTEXT": "three"}, wantErr: "XDIFF_CONTEXT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(work, ProjectFile), tt.file)
			}
			_, err := Loader{HomeDir: t.TempDir(), WorkDir: work, Getenv: env(tt.env)}.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{name: "negative context", file: "context = -1\n", wantErr: "context must be >= 0"},
		{name: "bad color", file: "color = \"sometimes\"\n", wantErr: "color must be"},
		{name: "bad level", file: "log_level = \"loud\"\n", wantErr: "log_level must be"},
		{name: "bad env color", env: map[string]string{"XDIFF_COLOR": "sometimes"}, wantErr: "color must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(work, ProjectFile), tt.file)
			}
			// Load keeps invalid values so that flags can still replace them.
			cfg, err := Loader{HomeDir: t.TempDir(), WorkDir: work, Getenv: env(tt.env)}.Load()
			require.NoError(t, err)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnvOverrides(env(map[string]string{
		"XDIFF_CONTEXT":        " 0 ",
		"XDIFF_COLOR":          "Always",
		"XDIFF_OMIT_CONFLICTS": "true",
		"XDIFF_LOG_FILE":       "/tmp/xdiff.log",
	}))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Context)
	assert.Equal(t, ColorAlways, cfg.Color)
	assert.True(t, cfg.OmitConflicts)
	assert.Equal(t, "/tmp/xdiff.log", cfg.LogFile)

	require.NoError(t, cfg.ApplyEnvOverrides(env(map[string]string{"XDIFF_OMIT_CONFLICTS": "no"})))
	assert.False(t, cfg.OmitConflicts)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "trace"}.Level())
}

func TestWriteTOML(t *testing.T) {
	cfg := Default()
	cfg.Sources = []string{"/somewhere"}

	var buf bytes.Buffer
	require.NoError(t, cfg.WriteTOML(&buf))
	out := buf.String()
	assert.Contains(t, out, "context = 3")
	assert.Contains(t, out, `color = "auto"`)
	assert.NotContains(t, out, "somewhere")

	// The output is itself a valid project file.
	work := t.TempDir()
	writeFile(t, filepath.Join(work, ProjectFile), out)
	loaded, err := Loader{HomeDir: t.TempDir(), WorkDir: work, Getenv: env(nil)}.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Context, loaded.Context)
	assert.Equal(t, cfg.Color, loaded.Color)
	assert.Equal(t, cfg.LogLevel, loaded.LogLevel)
}
