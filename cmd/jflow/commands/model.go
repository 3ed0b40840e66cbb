package commands

import (
	"github.com/spf13/cobra"

	"github.com/l3aro/go-java-flow/pkg/model"
	"github.com/l3aro/go-java-flow/pkg/report"
)

func newModelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "model FILE",
		Short: "Build the component tree of a form",
		Long: `Interprets the execution flow of FILE, creates a component for every
instance of a known bean class and attaches children through the configured
association methods. Problems that do not stop the build are reported as
warnings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			m, err := a.newBuilder(s).Build(cmd.Context())
			if err != nil {
				return err
			}
			return a.output(cmd, report.Model(s.ID, m))
		},
	}
}
