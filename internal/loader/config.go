package loader

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the project configuration read by the CLI when present.
const ConfigFile = "lexgen.yaml"

// Config is the contents of lexgen.yaml.
type Config struct {
	// Inputs lists files, directories, globs or bundles to compile.
	Inputs []string `yaml:"inputs"`

	// Out is the output directory (default: ./lexicon-gen)
	Out string `yaml:"out"`

	// Concurrency bounds parallel emission (0 = GOMAXPROCS)
	Concurrency int `yaml:"concurrency"`

	// SkipGuards disables is<Name>/validate<Name> generation
	SkipGuards bool `yaml:"skip_guards"`

	TypeScript TypeScriptConfig `yaml:"typescript"`
}

// TypeScriptConfig configures the TypeScript back-end.
type TypeScriptConfig struct {
	// IndentSize is the number of spaces per level (default: 2)
	IndentSize int `yaml:"indent_size"`
	// ImportExtension is appended to relative imports, e.g. ".js"
	ImportExtension string `yaml:"import_extension"`
	// OmitComments drops generated documentation
	OmitComments bool `yaml:"omit_comments"`
	// Frontmatter replaces the generated header ("-" = none)
	Frontmatter string `yaml:"frontmatter"`
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() *Config {
	return &Config{
		Out: "./lexicon-gen",
		TypeScript: TypeScriptConfig{
			IndentSize: 2,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Out == "" {
		return fmt.Errorf("out is required")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if c.TypeScript.IndentSize < 0 || c.TypeScript.IndentSize > 8 {
		return fmt.Errorf("typescript.indent_size must be between 0 and 8")
	}
	return nil
}

// LoadConfig reads path from fsys on top of DefaultConfig. A missing file
// yields the defaults and found=false.
func LoadConfig(fsys afero.Fs, path string) (cfg *Config, found bool, err error) {
	cfg = DefaultConfig()
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, true, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, true, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, true, nil
}
