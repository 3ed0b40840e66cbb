// Package healthcheck verifies that a configuration can drive an analysis:
// the Java parser loads, the flow walker honors the configured predicates
// and the log file is writable.
package healthcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-java-flow/internal/config"
	"github.com/l3aro/go-java-flow/pkg/analysis"
	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
)

// Status values of a check.
const (
	StatusReady   = "ready"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// CheckStatus is the outcome of a single check.
type CheckStatus struct {
	Status string
	Detail string
	Error  string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath      string
	SavedScope     string // "global" or "project"
	EffectivePath  string
	EffectiveScope string // "global" or "project"
	Parser         CheckStatus
	Flow           CheckStatus
	LogFile        CheckStatus
}

// Failed reports whether any check ended in an error.
func (r *HealthCheckResult) Failed() bool {
	return r.Parser.Status == StatusError || r.Flow.Status == StatusError || r.LogFile.Status == StatusError
}

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use (considering priority).
func Check(ctx context.Context, cfg *config.Config, savedPath string, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &HealthCheckResult{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
	}

	unit, status := checkParser(ctx, cfg)
	result.Parser = status
	if unit != nil {
		result.Flow = checkFlow(cfg, unit)
	} else {
		result.Flow = CheckStatus{Status: StatusSkipped, Detail: "parser unavailable"}
	}
	result.LogFile = checkLogFile(cfg.LogFile)

	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}
	globalDir := filepath.Dir(config.GlobalConfigFilePath())
	if strings.HasPrefix(path, globalDir+string(filepath.Separator)) {
		return "global"
	}
	return "project"
}

// probeSource guards one assignment with the first design-time predicate.
func probeSource(cfg *config.Config) string {
	predicate := "isDesignTime"
	if len(cfg.DesignTimePredicates) > 0 {
		predicate = cfg.DesignTimePredicates[0]
	}
	return fmt.Sprintf(`class Probe {
	int value;
	Probe() {
		if (Beans.%s()) {
			value = 1;
		}
		value = 2;
	}
}`, predicate)
}

func checkParser(ctx context.Context, cfg *config.Config) (*jast.Unit, CheckStatus) {
	u, err := jast.Parse(ctx, "Probe.java", []byte(probeSource(cfg)))
	if err != nil {
		return nil, CheckStatus{Status: StatusError, Error: err.Error()}
	}
	if u.HasErrors {
		return nil, CheckStatus{Status: StatusError, Error: "probe source did not parse cleanly"}
	}
	return u, CheckStatus{Status: StatusReady, Detail: "tree-sitter java grammar loaded"}
}

type statementCounter struct {
	flow.BaseVisitor
	n int
}

func (c *statementCounter) Visit(n *jast.Node) bool {
	if n.Kind == jast.KindExpressionStatement {
		c.n++
	}
	return true
}

func checkFlow(cfg *config.Config, u *jast.Unit) CheckStatus {
	s, err := analysis.NewSession(u, analysis.FromConfig(cfg)...)
	if err != nil {
		return CheckStatus{Status: StatusError, Error: err.Error()}
	}
	counter := &statementCounter{}
	s.Walk(counter)

	following := len(cfg.DesignTimePredicates) > 0
	want := 1
	if following {
		want = 2
	}
	if counter.n != want {
		return CheckStatus{
			Status: StatusError,
			Error:  fmt.Sprintf("walk reached %d statements, expected %d", counter.n, want),
		}
	}
	detail := "design-time branches are skipped"
	if following {
		detail = "design-time branches are followed"
	}
	return CheckStatus{Status: StatusReady, Detail: detail}
}

func checkLogFile(path string) CheckStatus {
	if path == "" {
		return CheckStatus{Status: StatusSkipped, Detail: "logging to stderr"}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return CheckStatus{Status: StatusError, Error: err.Error()}
	}
	f, err := os.CreateTemp(dir, ".jflow-probe-*")
	if err != nil {
		return CheckStatus{Status: StatusError, Error: err.Error()}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return CheckStatus{Status: StatusReady, Detail: path}
}
