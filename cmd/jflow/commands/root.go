// Package commands holds the jflow subcommands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-java-flow/internal/config"
	"github.com/l3aro/go-java-flow/internal/log"
	"github.com/l3aro/go-java-flow/pkg/report"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	configPath string
	format     string
	logLevel   string
	typeName   string
	entries    []string

	cfg     *config.Config
	cfgPath string // empty when running on defaults
	logger  *log.ZapLogger
}

// NewRootCmd builds the jflow command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "jflow",
		Short: "jflow - design-time interpretation of Java UI sources",
		Long: `jflow walks the execution flow of a Java UI class the way a visual
designer would, without compiling or running it.

Commands:
  flow        List the methods and statements the flow reaches
  vars        Show the assignments visible at each variable reference
  values      Show the expression behind each variable and local call
  eval        Evaluate one expression in the context of a file
  model       Build the component tree of a form
  analyze     Summarize every Java file under the given paths
  init        Create a configuration interactively
  doctor      Check the configuration

Use "jflow [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return a.logger.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: ./.jflow/config.yaml, then ~/.jflow/config.yaml)")
	flags.StringVarP(&a.format, "format", "f", "", "Output format: text, json, yaml or msgpack")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.typeName, "type", "", "Type to analyze (default: the first top-level type)")
	flags.StringSliceVar(&a.entries, "entry", nil, "Entry point method names, <init> for the constructors")

	root.AddCommand(
		newFlowCmd(a),
		newVarsCmd(a),
		newValuesCmd(a),
		newEvalCmd(a),
		newModelCmd(a),
		newAnalyzeCmd(a),
		newInitCmd(a),
		newDoctorCmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, path, err := loadConfigWithPath(a.configPath)
	if err != nil {
		return err
	}
	if a.format != "" {
		f, err := report.ParseFormat(a.format)
		if err != nil {
			return err
		}
		cfg.OutputFormat = config.OutputFormat(f)
	}
	if a.logLevel != "" {
		if _, ok := log.ParseLevel(a.logLevel); !ok {
			return fmt.Errorf("invalid log level %q", a.logLevel)
		}
		cfg.LogLevel = a.logLevel
	}
	a.cfg, a.cfgPath = cfg, path

	level, _ := log.ParseLevel(cfg.LogLevel)
	if cfg.Verbose {
		level = log.DebugLevel
	}
	a.logger = log.New(log.LoggerConfig{
		Level:      level,
		JSONOutput: cfg.LogJSON,
		Name:       "jflow",
		Stderr:     cmd.ErrOrStderr(),
		File:       cfg.LogFile,
	})
	a.logger.Debug("config loaded", "path", path, "format", cfg.OutputFormat)
	return nil
}

// loadConfigWithPath loads the explicit config file when one is given, the
// layered configuration otherwise. The returned path is the file that takes
// effect, empty when only defaults apply.
func loadConfigWithPath(explicit string) (*config.Config, string, error) {
	if explicit != "" {
		cfg, err := config.LoadFromFile(explicit)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config from %s: %w", explicit, err)
		}
		return cfg, explicit, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	var effective string
	switch {
	case fileExists(config.ProjectConfigFilePath()):
		effective = config.ProjectConfigFilePath()
	case fileExists(config.GlobalConfigFilePath()):
		effective = config.GlobalConfigFilePath()
	}
	return cfg, effective, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// output encodes r in the configured format.
func (a *app) output(cmd *cobra.Command, r report.Report) error {
	return report.Encode(cmd.OutOrStdout(), report.Format(a.cfg.OutputFormat), r)
}
