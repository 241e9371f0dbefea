package vcdtrace

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the decoding conventions. Use DefaultConfig to get a Config
// with the standard conventions and override fields as needed.
type Config struct {
	// TopScopes lists wrapper scope names that do not contribute to paths.
	TopScopes []string `yaml:"top_scopes" toml:"top_scopes"`

	// DUTPrefix marks scopes that start a new path.
	DUTPrefix string `yaml:"dut_prefix" toml:"dut_prefix"`

	// InternalMarker marks internal aliases when found before the last
	// path separator.
	InternalMarker string `yaml:"internal_marker" toml:"internal_marker"`

	// ParamSeparator separates a method name from its parameter names.
	ParamSeparator string `yaml:"param_separator" toml:"param_separator"`

	// ReadySuffix and EnableSuffix are the guarded action signal suffixes.
	ReadySuffix  string `yaml:"ready_suffix" toml:"ready_suffix"`
	EnableSuffix string `yaml:"enable_suffix" toml:"enable_suffix"`

	// ClockAliases lists aliases whose values are not tracked for trace
	// reconstruction.
	ClockAliases []string `yaml:"clock_aliases" toml:"clock_aliases"`

	// NumericReals renders real values as numbers instead of a placeholder.
	NumericReals bool `yaml:"numeric_reals" toml:"numeric_reals"`

	// SkipInitialZeros ignores all zero values at time 0 for trace
	// reconstruction. They are still stored.
	SkipInitialZeros bool `yaml:"skip_initial_zeros" toml:"skip_initial_zeros"`

	// LazyFinalize ends the declaration phase on the first value change
	// instead of failing when EndDefinitions has not been called.
	LazyFinalize bool `yaml:"lazy_finalize" toml:"lazy_finalize"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TopScopes:      []string{"TOP", "VsimTop"},
		DUTPrefix:      "DUT__",
		InternalMarker: "$",
		ParamSeparator: "$",
		ReadySuffix:    DefaultNaming.Ready,
		EnableSuffix:   DefaultNaming.Enable,
		ClockAliases:   []string{"/CLK", "/CLK_derivedClock", "/CLK_sys_clk"},
	}
}

// LoadConfig reads a configuration file. The format is selected by the file
// extension: .yaml, .yml or .toml. Fields missing from the file keep their
// default value.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, errors.Errorf("config %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err = cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks that c is usable.
func (c *Config) Validate() error {
	switch {
	case c.ReadySuffix == "" || c.EnableSuffix == "":
		return errors.New("ready and enable suffixes must not be empty")
	case c.ReadySuffix == c.EnableSuffix:
		return errors.New("ready and enable suffixes must differ")
	case c.ParamSeparator == "":
		return errors.New("parameter separator must not be empty")
	case strings.Contains(c.ParamSeparator, "/"):
		return errors.New("parameter separator must not contain a path separator")
	}
	return nil
}

// Naming returns the naming rules for c.
func (c *Config) Naming() Naming {
	return Naming{Ready: c.ReadySuffix, Enable: c.EnableSuffix}
}

// PathRules returns the scope path rules for c.
func (c *Config) PathRules() PathRules {
	return PathRules{TopNames: c.TopScopes, ResetPrefix: c.DUTPrefix}
}
