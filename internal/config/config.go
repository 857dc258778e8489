// Package config loads the optional statetree configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thiagokokada/statetree/internal/git"
	gitbackend "github.com/thiagokokada/statetree/internal/git/backend"
	"github.com/thiagokokada/statetree/internal/manifest"
	"github.com/thiagokokada/statetree/internal/render"
	"github.com/thiagokokada/statetree/internal/statetree"
)

const (
	dirName  = "statetree"
	fileName = "config.yaml"
)

// Duration accepts Go duration strings such as "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config models config.yaml. Every key is optional.
type Config struct {
	Root             string   `yaml:"root,omitempty"`
	Backend          string   `yaml:"backend"`
	Verify           bool     `yaml:"verify"`
	Jobs             int      `yaml:"jobs"`
	MaxWorkingCopies int      `yaml:"max_working_copies"`
	GitTimeout       Duration `yaml:"git_timeout"`
	Color            string   `yaml:"color"`
	Theme            string   `yaml:"theme"`
	Manifest         string   `yaml:"manifest"`
}

func Default() Config {
	return Config{
		Backend:          gitbackend.KindCLI,
		Verify:           true,
		Jobs:             statetree.DefaultJobs,
		MaxWorkingCopies: git.DefaultMaxWorkingCopies,
		Color:            render.ColorAuto.String(),
		Theme:            render.ThemeAuto.String(),
		Manifest:         manifest.DefaultFile,
	}
}

// DefaultPath is config.yaml under the user configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dirName, fileName), nil
}

// Load reads path over the defaults. A missing file is only an error when
// required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := cfg.decode(data); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) normalize() {
	c.Root = strings.TrimSpace(c.Root)
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = gitbackend.KindCLI
	}
	c.Manifest = strings.TrimSpace(c.Manifest)
	if c.Manifest == "" {
		c.Manifest = manifest.DefaultFile
	}
}

func (c Config) Validate() error {
	if c.Backend != gitbackend.KindCLI && c.Backend != gitbackend.KindNative {
		return fmt.Errorf("backend must be %s or %s, not %q", gitbackend.KindCLI, gitbackend.KindNative, c.Backend)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be >= 0")
	}
	if c.MaxWorkingCopies < 0 {
		return fmt.Errorf("max_working_copies must be >= 0")
	}
	if c.GitTimeout < 0 {
		return fmt.Errorf("git_timeout must not be negative")
	}
	if _, err := render.ParseColorMode(c.Color); err != nil {
		return err
	}
	if _, err := render.ParseTheme(c.Theme); err != nil {
		return err
	}
	if filepath.IsAbs(c.Manifest) {
		return fmt.Errorf("manifest must be relative to the repository root, not %q", c.Manifest)
	}
	return nil
}
