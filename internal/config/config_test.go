package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
root: https://example/root.git
backend: Native
verify: false
jobs: 2
max_working_copies: 3
git_timeout: 90s
color: never
theme: dark
manifest: salt/states.yaml
`)
	got, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Config{
		Root:             "https://example/root.git",
		Backend:          "native",
		Verify:           false,
		Jobs:             2,
		MaxWorkingCopies: 3,
		GitTimeout:       Duration(90 * time.Second),
		Color:            "never",
		Theme:            "dark",
		Manifest:         "salt/states.yaml",
	}
	if got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "empty", content: ""},
		{name: "comments_only", content: "# nothing yet\n"},
		{name: "blank_manifest", content: "manifest: \"  \"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Load(writeConfig(t, tt.content), true)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got != Default() {
				t.Fatalf("Load() = %+v, want defaults %+v", got, Default())
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.yaml")
	got, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load(optional) error = %v", err)
	}
	if got != Default() {
		t.Fatalf("Load(optional) = %+v, want defaults", got)
	}
	if _, err := Load(path, true); err == nil {
		t.Fatal("Load(required) of a missing file succeeded")
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown_key", content: "verfy: true\n", want: "verfy"},
		{name: "bad_duration", content: "git_timeout: soon\n", want: "soon"},
		{name: "bad_backend", content: "backend: svn\n", want: "svn"},
		{name: "negative_jobs", content: "jobs: -1\n", want: "jobs"},
		{name: "negative_copies", content: "max_working_copies: -2\n", want: "max_working_copies"},
		{name: "bad_color", content: "color: rainbow\n", want: "rainbow"},
		{name: "bad_theme", content: "theme: neon\n", want: "neon"},
		{name: "absolute_manifest", content: "manifest: /etc/states.yaml\n", want: "relative"},
		{name: "not_a_mapping", content: "- a\n", want: "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.content), true)
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	got, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error = %v", err)
	}
	if !strings.HasSuffix(got, filepath.Join("statetree", "config.yaml")) {
		t.Fatalf("DefaultPath() = %q", got)
	}
}
