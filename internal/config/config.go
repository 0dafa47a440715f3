// Package config loads the imagereport configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/imagereport/internal/catalog"
	"github.com/donaldgifford/imagereport/internal/hub"
	"github.com/donaldgifford/imagereport/internal/tags"
)

// Defaults for the generated artifact.
const (
	DefaultTemplate = "report-workflow.yml.tmpl"
	DefaultOutput   = ".github/workflows/generate-report.yml"
)

// Environment variables that override file values.
const (
	EnvAPIURL   = "IMAGEREPORT_API_URL"
	EnvTemplate = "IMAGEREPORT_TEMPLATE"
	EnvOutput   = "IMAGEREPORT_OUTPUT"
	EnvMaxRPS   = "IMAGEREPORT_MAX_RPS"
)

var validate = validator.New()

// Config is the imagereport configuration.
type Config struct {
	APIURL     string   `yaml:"api_url" validate:"required,url"`
	Namespace  string   `yaml:"namespace" validate:"required"`
	PageSize   int      `yaml:"page_size" validate:"gte=1,lte=100"`
	DefaultTag string   `yaml:"default_tag" validate:"required"`
	DenyList   []string `yaml:"deny_list" validate:"dive,required"`
	Template   string   `yaml:"template" validate:"required"`
	Output     string   `yaml:"output" validate:"required"`
	MaxRPS     int      `yaml:"max_rps" validate:"gte=0"`

	// TemplateChecksum pins a remote template to a sha256 digest.
	TemplateChecksum string `yaml:"template_checksum,omitempty" validate:"omitempty,hexadecimal,len=64"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		APIURL:     hub.DefaultURL,
		Namespace:  hub.DefaultNamespace,
		PageSize:   hub.DefaultPageSize,
		DefaultTag: tags.DefaultTag,
		DenyList:   append([]string(nil), catalog.DefaultDenyList...),
		Template:   DefaultTemplate,
		Output:     DefaultOutput,
		MaxRPS:     hub.DefaultMaxRPS,
	}
}

// DefaultConfigDir returns the default configuration directory, respecting XDG_CONFIG_HOME.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "imagereport")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "imagereport")
	}

	return filepath.Join(home, ".config", "imagereport")
}

// DefaultPath returns the config file used when --config is not given.
func DefaultPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load reads the config at path on top of Default, applies environment
// overrides and validates the result. A missing file is not an error.
// lookupEnv defaults to os.LookupEnv.
func Load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	cfg := Default()

	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration using struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}

	if v, ok := lookupEnv(EnvTemplate); ok && v != "" {
		c.Template = v
	}

	if v, ok := lookupEnv(EnvOutput); ok && v != "" {
		c.Output = v
	}

	if v, ok := lookupEnv(EnvMaxRPS); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMaxRPS, err)
		}

		c.MaxRPS = n
	}

	return nil
}
