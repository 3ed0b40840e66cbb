package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mitchellh/go-homedir"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"ConstructorTag", cfg.ConstructorTag, "@wbp.parser.constructor"},
		{"EntryPointTag", cfg.EntryPointTag, "@wbp.parser.entryPoint"},
		{"FoldConditions", cfg.FoldConditions, true},
		{"UseBinaryFlow", cfg.UseBinaryFlow, true},
		{"VisitAnonymousRunnables", cfg.VisitAnonymousRunnables, true},
		{"NoArgConstructorFallback", cfg.NoArgConstructorFallback, false},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogJSON", cfg.LogJSON, false},
		{"OutputFormat", cfg.OutputFormat, FormatText},
		{"MaxParallelFiles", cfg.MaxParallelFiles, 4},
		{"Verbose", cfg.Verbose, false},
		{"CacheDir", cfg.CacheDir, filepath.Join(".jflow", "cache")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	if diff := cmp.Diff([]string{"isDesignTime"}, cfg.DesignTimePredicates); diff != "" {
		t.Errorf("DesignTimePredicates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"add"}, cfg.AssociationMethods); diff != "" {
		t.Errorf("AssociationMethods mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:   "yaml output",
			mutate: func(c *Config) { c.OutputFormat = FormatYAML },
		},
		{
			name:   "no tags",
			mutate: func(c *Config) { c.ConstructorTag, c.EntryPointTag = "", "" },
		},
		{
			name:        "invalid output format",
			mutate:      func(c *Config) { c.OutputFormat = "xml" },
			wantErr:     true,
			errContains: "invalid output_format",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errContains: "invalid log_level",
		},
		{
			name:        "zero parallelism",
			mutate:      func(c *Config) { c.MaxParallelFiles = 0 },
			wantErr:     true,
			errContains: "max_parallel_files",
		},
		{
			name:        "predicate is not a method name",
			mutate:      func(c *Config) { c.DesignTimePredicates = []string{"Beans.isDesignTime()"} },
			wantErr:     true,
			errContains: "design_time_predicates",
		},
		{
			name:        "association is not a method name",
			mutate:      func(c *Config) { c.AssociationMethods = []string{"1add"} },
			wantErr:     true,
			errContains: "association_methods",
		},
		{
			name:        "constructor tag without at sign",
			mutate:      func(c *Config) { c.ConstructorTag = "wbp.parser.constructor" },
			wantErr:     true,
			errContains: "constructor_tag",
		},
		{
			name:        "entry point tag without at sign",
			mutate:      func(c *Config) { c.EntryPointTag = "entry" },
			wantErr:     true,
			errContains: "entry_point_tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error containing %q, got nil", tt.errContains)
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Error = %q, should contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		configYAML  string
		envVars     map[string]string
		checkCfg    func(*testing.T, *Config)
		wantErr     bool
		errContains string
	}{
		{
			name: "load valid config from file",
			configYAML: `
design_time_predicates: [isDesignTime, isPreview]
constructor_tag: "@flow.constructor"
fold_conditions: false
use_binary_flow: false
association_methods: [add, setContentPane]
log_level: debug
output_format: json
max_parallel_files: 8
verbose: true
`,
			checkCfg: func(t *testing.T, cfg *Config) {
				if diff := cmp.Diff([]string{"isDesignTime", "isPreview"}, cfg.DesignTimePredicates); diff != "" {
					t.Errorf("DesignTimePredicates mismatch (-want +got):\n%s", diff)
				}
				if cfg.ConstructorTag != "@flow.constructor" {
					t.Errorf("ConstructorTag = %v, want @flow.constructor", cfg.ConstructorTag)
				}
				if cfg.EntryPointTag != "@wbp.parser.entryPoint" {
					t.Errorf("EntryPointTag = %v, want default", cfg.EntryPointTag)
				}
				if cfg.FoldConditions {
					t.Error("FoldConditions = true, want false")
				}
				if cfg.UseBinaryFlow {
					t.Error("UseBinaryFlow = true, want false")
				}
				if diff := cmp.Diff([]string{"add", "setContentPane"}, cfg.AssociationMethods); diff != "" {
					t.Errorf("AssociationMethods mismatch (-want +got):\n%s", diff)
				}
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
				}
				if cfg.OutputFormat != FormatJSON {
					t.Errorf("OutputFormat = %v, want json", cfg.OutputFormat)
				}
				if cfg.MaxParallelFiles != 8 {
					t.Errorf("MaxParallelFiles = %v, want 8", cfg.MaxParallelFiles)
				}
				if !cfg.Verbose {
					t.Error("Verbose = false, want true")
				}
			},
		},
		{
			name: "env var overrides file values",
			configYAML: `
output_format: yaml
association_methods: [add]
`,
			envVars: map[string]string{
				"JFLOW_OUTPUT_FORMAT":       "MSGPACK",
				"JFLOW_ASSOCIATION_METHODS": "add, addTab ,",
				"JFLOW_FOLD_CONDITIONS":     "no",
			},
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.OutputFormat != FormatMsgpack {
					t.Errorf("OutputFormat = %v, want msgpack (from env)", cfg.OutputFormat)
				}
				if diff := cmp.Diff([]string{"add", "addTab"}, cfg.AssociationMethods); diff != "" {
					t.Errorf("AssociationMethods mismatch (-want +got):\n%s", diff)
				}
				if cfg.FoldConditions {
					t.Error("FoldConditions = true, want false (from env)")
				}
			},
		},
		{
			name: "invalid yaml",
			configYAML: `
log_level: info
  invalid: indent
`,
			wantErr:     true,
			errContains: "failed to parse",
		},
		{
			name:        "invalid value in file",
			configYAML:  "output_format: xml\n",
			wantErr:     true,
			errContains: "invalid output_format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			cfg, err := LoadFromFile(configPath)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error containing %q, got nil", tt.errContains)
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Error = %q, should contain %q", err.Error(), tt.errContains)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if tt.checkCfg != nil {
				tt.checkCfg(t, cfg)
			}
		})
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("LoadFromFile(missing) error = %v, want read failure", err)
	}
}

func TestLoadLayersProjectOverGlobal(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	homedir.Reset()
	t.Cleanup(homedir.Reset)
	t.Chdir(project)

	global := DefaultConfig()
	global.LogLevel = "warn"
	global.MaxParallelFiles = 2
	if err := global.Save(filepath.Join(home, ".jflow", "config.yaml")); err != nil {
		t.Fatalf("Save(global) = %v", err)
	}
	if err := os.MkdirAll(".jflow", 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ProjectConfigFilePath(), []byte("max_parallel_files: 6\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JFLOW_VERBOSE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, want warn (from global)", cfg.LogLevel)
	}
	if cfg.MaxParallelFiles != 6 {
		t.Errorf("MaxParallelFiles = %v, want 6 (from project)", cfg.MaxParallelFiles)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true (from env)")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(*testing.T, *Config)
	}{
		{
			name:    "predicates",
			envVars: map[string]string{"JFLOW_DESIGN_TIME_PREDICATES": "isDesignTime,isMockup"},
			check: func(t *testing.T, cfg *Config) {
				if diff := cmp.Diff([]string{"isDesignTime", "isMockup"}, cfg.DesignTimePredicates); diff != "" {
					t.Errorf("DesignTimePredicates mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "tags",
			envVars: map[string]string{
				"JFLOW_CONSTRUCTOR_TAG": "@c",
				"JFLOW_ENTRY_POINT_TAG": "@e",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.ConstructorTag != "@c" || cfg.EntryPointTag != "@e" {
					t.Errorf("tags = %q %q, want @c @e", cfg.ConstructorTag, cfg.EntryPointTag)
				}
			},
		},
		{
			name: "booleans",
			envVars: map[string]string{
				"JFLOW_USE_BINARY_FLOW":             "0",
				"JFLOW_VISIT_ANONYMOUS_RUNNABLES":   "false",
				"JFLOW_NO_ARG_CONSTRUCTOR_FALLBACK": "true",
				"JFLOW_LOG_JSON":                    "yes",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.UseBinaryFlow || cfg.VisitAnonymousRunnables || !cfg.NoArgConstructorFallback || !cfg.LogJSON {
					t.Errorf("booleans = %v %v %v %v", cfg.UseBinaryFlow, cfg.VisitAnonymousRunnables,
						cfg.NoArgConstructorFallback, cfg.LogJSON)
				}
			},
		},
		{
			name:    "invalid parallelism is ignored",
			envVars: map[string]string{"JFLOW_MAX_PARALLEL_FILES": "many"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.MaxParallelFiles != 4 {
					t.Errorf("MaxParallelFiles = %v, want 4", cfg.MaxParallelFiles)
				}
			},
		},
		{
			name:    "log level",
			envVars: map[string]string{"JFLOW_LOG_LEVEL": "error"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "error" {
					t.Errorf("LogLevel = %v, want error", cfg.LogLevel)
				}
			},
		},
		{
			name:    "log file",
			envVars: map[string]string{"JFLOW_LOG_FILE": "/tmp/jflow.log"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.LogFile != "/tmp/jflow.log" {
					t.Errorf("LogFile = %v, want /tmp/jflow.log", cfg.LogFile)
				}
			},
		},
		{
			name:    "empty cache dir disables the cache",
			envVars: map[string]string{"JFLOW_CACHE_DIR": ""},
			check: func(t *testing.T, cfg *Config) {
				if cfg.CacheDir != "" {
					t.Errorf("CacheDir = %q, want empty", cfg.CacheDir)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			tt.check(t, cfg)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.AssociationMethods = []string{"add", "addTab"}
	cfg.OutputFormat = FormatYAML

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFingerprint(t *testing.T) {
	a, b := DefaultConfig(), DefaultConfig()
	b.LogLevel = "debug"
	b.OutputFormat = FormatJSON
	if string(a.Fingerprint()) != string(b.Fingerprint()) {
		t.Error("logging and output settings should not change the fingerprint")
	}
	b.DesignTimePredicates = []string{"isEditing"}
	if string(a.Fingerprint()) == string(b.Fingerprint()) {
		t.Error("predicates should change the fingerprint")
	}
	c := DefaultConfig()
	c.NoArgConstructorFallback = true
	if string(a.Fingerprint()) == string(c.Fingerprint()) {
		t.Error("constructor fallback should change the fingerprint")
	}
}
