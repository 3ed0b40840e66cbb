package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// OutputFormat is the encoding of CLI reports.
type OutputFormat string

const (
	FormatText    OutputFormat = "text"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatMsgpack OutputFormat = "msgpack"
)

// Config holds all configuration for go-java-flow
type Config struct {
	// DesignTimePredicates are zero-argument methods treated as always true
	// in if conditions.
	DesignTimePredicates []string `yaml:"design_time_predicates" env:"JFLOW_DESIGN_TIME_PREDICATES"`

	// ConstructorTag marks the constructor to start the flow from.
	ConstructorTag string `yaml:"constructor_tag" env:"JFLOW_CONSTRUCTOR_TAG"`

	// EntryPointTag marks a method to start the flow from.
	EntryPointTag string `yaml:"entry_point_tag" env:"JFLOW_ENTRY_POINT_TAG"`

	// Flow walking
	FoldConditions          bool `yaml:"fold_conditions" env:"JFLOW_FOLD_CONDITIONS"`
	UseBinaryFlow           bool `yaml:"use_binary_flow" env:"JFLOW_USE_BINARY_FLOW"`
	VisitAnonymousRunnables bool `yaml:"visit_anonymous_runnables" env:"JFLOW_VISIT_ANONYMOUS_RUNNABLES"`

	// NoArgConstructorFallback starts the flow from the parameterless
	// constructor when several untagged constructors exist.
	NoArgConstructorFallback bool `yaml:"no_arg_constructor_fallback" env:"JFLOW_NO_ARG_CONSTRUCTOR_FALLBACK"`

	// AssociationMethods add their argument as a child of the receiver.
	AssociationMethods []string `yaml:"association_methods" env:"JFLOW_ASSOCIATION_METHODS"`

	// Logging
	LogLevel string `yaml:"log_level" env:"JFLOW_LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"JFLOW_LOG_JSON"`
	LogFile  string `yaml:"log_file" env:"JFLOW_LOG_FILE"`
	Verbose  bool   `yaml:"verbose" env:"JFLOW_VERBOSE"`

	// Output
	OutputFormat OutputFormat `yaml:"output_format" env:"JFLOW_OUTPUT_FORMAT"`

	// MaxParallelFiles bounds the files analyzed at once.
	MaxParallelFiles int `yaml:"max_parallel_files" env:"JFLOW_MAX_PARALLEL_FILES"`

	// CacheDir keeps analysis summaries between runs. Empty disables the cache.
	CacheDir string `yaml:"cache_dir" env:"JFLOW_CACHE_DIR"`
}

// Fingerprint identifies the settings that change analysis results.
func (c *Config) Fingerprint() []byte {
	return fmt.Appendf(nil, "%q|%q|%q|%t|%t|%t|%t|%q",
		c.DesignTimePredicates, c.ConstructorTag, c.EntryPointTag,
		c.FoldConditions, c.UseBinaryFlow, c.VisitAnonymousRunnables, c.NoArgConstructorFallback,
		c.AssociationMethods)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DesignTimePredicates:    []string{"isDesignTime"},
		ConstructorTag:          "@wbp.parser.constructor",
		EntryPointTag:           "@wbp.parser.entryPoint",
		FoldConditions:          true,
		UseBinaryFlow:           true,
		VisitAnonymousRunnables: true,
		AssociationMethods:      []string{"add"},
		LogLevel:                "info",
		LogJSON:                 false,
		Verbose:                 false,
		OutputFormat:            FormatText,
		MaxParallelFiles:        4,
		CacheDir:                filepath.Join(".jflow", "cache"),
	}
}

// GlobalConfigFilePath returns the global config file path (~/.jflow/config.yaml)
func GlobalConfigFilePath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".jflow/config.yaml"
	}
	return filepath.Join(home, ".jflow", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.jflow/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".jflow", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.jflow/config.yaml)
// 3. Global config (~/.jflow/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		if err := mergeFile(cfg, path, false); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := mergeFile(cfg, path, true); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeFile overlays the YAML file at path onto cfg. A missing file is an
// error only when required.
func mergeFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JFLOW_DESIGN_TIME_PREDICATES"); v != "" {
		cfg.DesignTimePredicates = parseList(v)
	}
	if v := os.Getenv("JFLOW_CONSTRUCTOR_TAG"); v != "" {
		cfg.ConstructorTag = v
	}
	if v := os.Getenv("JFLOW_ENTRY_POINT_TAG"); v != "" {
		cfg.EntryPointTag = v
	}
	if v := os.Getenv("JFLOW_FOLD_CONDITIONS"); v != "" {
		cfg.FoldConditions = parseBool(v)
	}
	if v := os.Getenv("JFLOW_USE_BINARY_FLOW"); v != "" {
		cfg.UseBinaryFlow = parseBool(v)
	}
	if v := os.Getenv("JFLOW_VISIT_ANONYMOUS_RUNNABLES"); v != "" {
		cfg.VisitAnonymousRunnables = parseBool(v)
	}
	if v := os.Getenv("JFLOW_NO_ARG_CONSTRUCTOR_FALLBACK"); v != "" {
		cfg.NoArgConstructorFallback = parseBool(v)
	}
	if v := os.Getenv("JFLOW_ASSOCIATION_METHODS"); v != "" {
		cfg.AssociationMethods = parseList(v)
	}
	if v := os.Getenv("JFLOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JFLOW_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
	if v := os.Getenv("JFLOW_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("JFLOW_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("JFLOW_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(strings.ToLower(v))
	}
	if v, ok := os.LookupEnv("JFLOW_CACHE_DIR"); ok {
		cfg.CacheDir = v
	}
	if v := os.Getenv("JFLOW_MAX_PARALLEL_FILES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.MaxParallelFiles = i
		}
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	switch c.OutputFormat {
	case FormatText, FormatJSON, FormatYAML, FormatMsgpack:
	default:
		return fmt.Errorf("invalid output_format: %s (must be 'text', 'json', 'yaml' or 'msgpack')", c.OutputFormat)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	if c.MaxParallelFiles <= 0 {
		return fmt.Errorf("max_parallel_files must be positive")
	}

	for _, name := range c.DesignTimePredicates {
		if !isIdentifier(name) {
			return fmt.Errorf("design_time_predicates: %q is not a method name", name)
		}
	}
	for _, name := range c.AssociationMethods {
		if !isIdentifier(name) {
			return fmt.Errorf("association_methods: %q is not a method name", name)
		}
	}

	if c.ConstructorTag != "" && !strings.HasPrefix(c.ConstructorTag, "@") {
		return fmt.Errorf("constructor_tag must start with '@'")
	}
	if c.EntryPointTag != "" && !strings.HasPrefix(c.EntryPointTag, "@") {
		return fmt.Errorf("entry_point_tag must start with '@'")
	}

	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// parseList splits a comma separated environment value
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
