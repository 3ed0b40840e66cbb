package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-java-flow/internal/healthcheck"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration",
		Long: `Checks that the Java grammar loads, that the walker honors the configured
design-time predicates and that the log file, if any, is writable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := healthcheck.Check(cmd.Context(), a.cfg, a.cfgPath, a.cfgPath)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			displayDoctorResult(cmd.OutOrStdout(), result)
			if result.Failed() {
				return fmt.Errorf("health check failed: one or more checks reported an error")
			}
			return nil
		},
	}
}

func displayDoctorResult(w io.Writer, result *healthcheck.HealthCheckResult) {
	if result.EffectivePath == "" {
		fmt.Fprintf(w, "Using config: defaults\n\n")
	} else {
		fmt.Fprintf(w, "Using config: %s (%s)\n\n", result.EffectivePath, result.EffectiveScope)
	}
	printCheck(w, "Parser", result.Parser)
	printCheck(w, "Flow", result.Flow)
	printCheck(w, "Log file", result.LogFile)
}

func printCheck(w io.Writer, name string, c healthcheck.CheckStatus) {
	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  Status: %s %s\n", formatStatusIcon(c.Status), c.Status)
	if c.Detail != "" {
		fmt.Fprintf(w, "  Detail: %s\n", c.Detail)
	}
	if c.Error != "" && c.Status == healthcheck.StatusError {
		fmt.Fprintf(w, "  Error: %s\n", c.Error)
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady:
		return "✓"
	case healthcheck.StatusSkipped:
		return "-"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}
