package makerelease

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigFile is read from the working directory when no --config is given.
const DefaultConfigFile = "makerelease.toml"

// DocumentTarget names a structured document and the dotted path of its
// version field.
type DocumentTarget struct {
	Path  string `mapstructure:"path"`
	Field string `mapstructure:"field"`
}

// PrimaryConfig describes the repository whose version is bumped.
type PrimaryConfig struct {
	Path      string           `mapstructure:"path"`
	Marker    string           `mapstructure:"marker"`
	Documents []DocumentTarget `mapstructure:"documents"`
}

// DownstreamConfig describes the registry repository that consumes the
// primary repository as a submodule.
type DownstreamConfig struct {
	Path      string `mapstructure:"path"`
	Document  string `mapstructure:"document"`
	Submodule string `mapstructure:"submodule"`
	Remote    string `mapstructure:"remote"`
}

// Config holds everything a release run needs to know about its repositories.
type Config struct {
	Extension  string           `mapstructure:"extension"`
	Primary    PrimaryConfig    `mapstructure:"primary"`
	Downstream DownstreamConfig `mapstructure:"downstream"`
}

// DefaultConfig returns the built-in layout: the release tool lives two
// levels below the extension repository, and the extensions registry is
// checked out under third-party/ next to it.
func DefaultConfig() Config {
	return Config{
		Extension: "gdscript",
		Primary: PrimaryConfig{
			Path:   "../..",
			Marker: "extension.toml",
			Documents: []DocumentTarget{
				{Path: "Cargo.toml", Field: "package.version"},
				{Path: "extension.toml", Field: "version"},
			},
		},
		Downstream: DownstreamConfig{
			Path:     "../../../../third-party/zed-extensions",
			Document: "extension.toml",
			Remote:   "origin",
		},
	}
}

// LoadConfig layers defaults, an optional TOML file and MAKERELEASE_*
// environment variables. An explicit path must exist; the default file is
// optional.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("extension", defaults.Extension)
	v.SetDefault("primary.path", defaults.Primary.Path)
	v.SetDefault("primary.marker", defaults.Primary.Marker)
	docs := make([]map[string]any, len(defaults.Primary.Documents))
	for i, d := range defaults.Primary.Documents {
		docs[i] = map[string]any{"path": d.Path, "field": d.Field}
	}
	v.SetDefault("primary.documents", docs)
	v.SetDefault("downstream.path", defaults.Downstream.Path)
	v.SetDefault("downstream.document", defaults.Downstream.Document)
	v.SetDefault("downstream.submodule", "")
	v.SetDefault("downstream.remote", defaults.Downstream.Remote)

	v.SetEnvPrefix("MAKERELEASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("toml")
	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	default:
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			v.SetConfigFile(DefaultConfigFile)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("failed to read config %s: %w", DefaultConfigFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// SubmodulePath is the downstream path of the extension submodule.
func (c Config) SubmodulePath() string {
	if c.Downstream.Submodule != "" {
		return c.Downstream.Submodule
	}
	return "extensions/" + c.Extension
}

// DownstreamField is the version field of the extension's registry entry.
func (c Config) DownstreamField() []string {
	return []string{c.Extension, "version"}
}

// Resolve makes relative repository paths absolute against base.
func (c Config) Resolve(base string) Config {
	out := c
	out.Primary.Documents = append([]DocumentTarget(nil), c.Primary.Documents...)
	if !filepath.IsAbs(out.Primary.Path) {
		out.Primary.Path = filepath.Join(base, out.Primary.Path)
	}
	if !filepath.IsAbs(out.Downstream.Path) {
		out.Downstream.Path = filepath.Join(base, out.Downstream.Path)
	}
	return out
}

// Validate rejects configurations the release sequence cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Extension) == "" {
		errs = append(errs, errors.New("extension name is empty"))
	}
	if c.Primary.Path == "" {
		errs = append(errs, errors.New("primary repository path is empty"))
	}
	if c.Downstream.Path == "" {
		errs = append(errs, errors.New("downstream repository path is empty"))
	}
	if c.Downstream.Document == "" {
		errs = append(errs, errors.New("downstream document is empty"))
	}
	if c.Primary.Marker == "" {
		errs = append(errs, errors.New("primary marker file is empty"))
	}
	if c.Downstream.Remote == "" {
		errs = append(errs, errors.New("downstream remote is empty"))
	}
	if len(c.Primary.Documents) == 0 {
		errs = append(errs, errors.New("no primary documents configured"))
	}
	for i, d := range c.Primary.Documents {
		if d.Path == "" || d.Field == "" {
			errs = append(errs, fmt.Errorf("primary document %d needs both path and field", i))
		}
	}
	if c.Primary.Path != "" && filepath.Clean(c.Primary.Path) == filepath.Clean(c.Downstream.Path) {
		errs = append(errs, errors.New("primary and downstream repositories must be different paths"))
	}
	return errors.Join(errs...)
}

// Locations returns the primary and downstream repository locations.
func (c Config) Locations() (primary, downstream Location) {
	return Location{Name: "primary", Path: c.Primary.Path},
		Location{Name: "downstream", Path: c.Downstream.Path}
}
