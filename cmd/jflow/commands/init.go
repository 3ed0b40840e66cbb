package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-java-flow/internal/config"
	"github.com/l3aro/go-java-flow/internal/healthcheck"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a configuration interactively",
		Long: `Guides you through setting up jflow step by step: the design-time
predicates, the Javadoc tags that select entry points, the association
methods and the output format. The result is saved globally or for the
current project and checked right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, a.cfg)
		},
	}
}

// initAnswers holds the form fields as edited by the user.
type initAnswers struct {
	predicates   string
	associations string
	entryTag     string
	ctorTag      string
	fold         bool
	format       string
	location     string
}

func runInit(cmd *cobra.Command, base *config.Config) error {
	out := cmd.OutOrStdout()
	ans := initAnswers{
		predicates:   strings.Join(base.DesignTimePredicates, ", "),
		associations: strings.Join(base.AssociationMethods, ", "),
		entryTag:     base.EntryPointTag,
		ctorTag:      base.ConstructorTag,
		fold:         base.FoldConditions,
		format:       string(base.OutputFormat),
		location:     "project",
	}

	// === SECTION 1: Flow ===
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Design-time predicates").
				Description("Methods whose guarded branch runs in the designer, comma separated").
				Placeholder("isDesignTime").
				Value(&ans.predicates),
			huh.NewConfirm().
				Title("Fold constant conditions?").
				Description("Only the taken branch of a constant if/switch is walked").
				Affirmative("Yes").
				Negative("No").
				Value(&ans.fold),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Entry point tag").
				Description("Javadoc tag marking extra entry methods").
				Placeholder("@wbp.parser.entryPoint").
				Value(&ans.entryTag),
			huh.NewInput().
				Title("Constructor tag").
				Description("Javadoc tag selecting the constructor to start from").
				Placeholder("@wbp.parser.constructor").
				Value(&ans.ctorTag),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Model and output ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Association methods").
				Description("Methods that attach a child component, comma separated").
				Placeholder("add").
				Value(&ans.associations),
			huh.NewSelect[string]().
				Title("Output format").
				Options(
					huh.NewOption("Text", string(config.FormatText)),
					huh.NewOption("JSON", string(config.FormatJSON)),
					huh.NewOption("YAML", string(config.FormatYAML)),
					huh.NewOption("MessagePack", string(config.FormatMsgpack)),
				).
				Value(&ans.format),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Config Location ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.jflow/config.yaml)", "global"),
					huh.NewOption("Project (./.jflow/config.yaml)", "project"),
				).
				Value(&ans.location),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if ans.location == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := ans.apply(config.DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	printPreview(out, configPath, cfg)

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)

	// === SECTION 4: Health Check ===
	fmt.Fprintln(out, "\n=== Running Health Check ===")
	loadedCfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}
	result, err := healthcheck.Check(cmd.Context(), loadedCfg, configPath, configPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfig Scope: %s\n", result.SavedScope)
	if abs, err := filepath.Abs(configPath); err == nil {
		fmt.Fprintf(out, "Config Path: %s\n\n", abs)
	}
	displayDoctorResult(out, result)
	if result.Failed() {
		fmt.Fprintln(out, "\nThe configuration was saved but did not pass every check. Run 'jflow doctor' after fixing it.")
	}
	return nil
}

// apply copies the answers onto cfg.
func (ans initAnswers) apply(cfg *config.Config) *config.Config {
	cfg.DesignTimePredicates = splitList(ans.predicates)
	cfg.AssociationMethods = splitList(ans.associations)
	cfg.EntryPointTag = strings.TrimSpace(ans.entryTag)
	cfg.ConstructorTag = strings.TrimSpace(ans.ctorTag)
	cfg.FoldConditions = ans.fold
	cfg.OutputFormat = config.OutputFormat(ans.format)
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printPreview(w io.Writer, path string, cfg *config.Config) {
	fmt.Fprintln(w, "\n=== Configuration Preview ===")
	fmt.Fprintf(w, "Config path: %s\n", path)
	fmt.Fprintf(w, "Design-time predicates: %s\n", strings.Join(cfg.DesignTimePredicates, ", "))
	fmt.Fprintf(w, "Fold conditions: %t\n", cfg.FoldConditions)
	fmt.Fprintf(w, "Entry point tag: %s\n", cfg.EntryPointTag)
	fmt.Fprintf(w, "Constructor tag: %s\n", cfg.ConstructorTag)
	fmt.Fprintf(w, "Association methods: %s\n", strings.Join(cfg.AssociationMethods, ", "))
	fmt.Fprintf(w, "Output format: %s\n", cfg.OutputFormat)
	fmt.Fprintln(w, "================================")
}
