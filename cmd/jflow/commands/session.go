package commands

import (
	"context"

	"github.com/l3aro/go-java-flow/pkg/analysis"
	"github.com/l3aro/go-java-flow/pkg/model"
)

// openSession parses path and prepares its analysis with the configured
// options and command line overrides.
func (a *app) openSession(ctx context.Context, path string) (*analysis.Session, error) {
	opts := append(analysis.FromConfig(a.cfg), analysis.WithLogger(a.logger))
	if a.typeName != "" {
		opts = append(opts, analysis.WithType(a.typeName))
	}
	if len(a.entries) > 0 {
		opts = append(opts, analysis.WithEntryPointNames(a.entries...))
	}
	return analysis.Load(ctx, path, opts...)
}

func (a *app) newBuilder(s *analysis.Session) *model.Builder {
	return model.NewBuilder(s, model.WithAssociationMethods(a.cfg.AssociationMethods...))
}
