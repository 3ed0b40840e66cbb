package commands

import (
	"github.com/spf13/cobra"

	"github.com/l3aro/go-java-flow/pkg/report"
)

func newFlowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "flow FILE",
		Short: "List the methods and statements the flow reaches",
		Long: `Walks the execution flow of FILE from its entry points and lists every
method entered and every statement visited, in visiting order. Branches
guarded by design-time predicates are followed, constant conditions are
folded and local methods are entered at their call sites.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.output(cmd, report.Flow(s))
		},
	}
}

func newVarsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vars FILE",
		Short: "Show the assignments visible at each variable reference",
		Long: `Walks the execution flow of FILE and, for every variable reference,
shows its declaration, the assignments reaching it and the expression that
finally holds its value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.output(cmd, report.Variables(s))
		},
	}
}

func newValuesCmd(a *app) *cobra.Command {
	var objects bool
	cmd := &cobra.Command{
		Use:   "values FILE",
		Short: "Show the expression behind each variable and local call",
		Long: `Walks the execution flow of FILE and shows, for every variable reference
and local method invocation, the expression its value comes from. With
--objects the references are also evaluated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var opts []report.ValuesOption
			if objects {
				opts = append(opts, report.WithObjects())
			}
			return a.output(cmd, report.Values(s, opts...))
		},
	}
	cmd.Flags().BoolVar(&objects, "objects", false, "Evaluate variable references")
	return cmd
}
