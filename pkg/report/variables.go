package report

import (
	"io"

	"github.com/l3aro/go-java-flow/pkg/analysis"
	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
)

// VariablesReport lists the variable references reached by the flow, with
// the declaration and writes each one resolves to.
type VariablesReport struct {
	Session    string      `json:"session" yaml:"session"`
	Path       string      `json:"path" yaml:"path"`
	References []Reference `json:"references" yaml:"references"`
}

// Reference is one read or write of a variable.
type Reference struct {
	Name        string     `json:"name" yaml:"name"`
	At          *Location  `json:"at" yaml:"at"`
	Declaration *Location  `json:"declaration" yaml:"declaration"`
	Last        *Location  `json:"last_assignment,omitempty" yaml:"last_assignment,omitempty"`
	Assignments []Location `json:"assignments,omitempty" yaml:"assignments,omitempty"`
	// Final is the expression the value was ultimately produced by.
	Final *Location `json:"final,omitempty" yaml:"final,omitempty"`
}

// Variables walks s and resolves every variable reference it reaches.
func Variables(s *analysis.Session) *VariablesReport {
	r := &VariablesReport{Session: s.ID, Path: s.Unit.Path}
	s.Walk(&variablesVisitor{s: s, r: r})
	return r
}

type variablesVisitor struct {
	flow.BaseVisitor
	s *analysis.Session
	r *VariablesReport
}

func (v *variablesVisitor) EndVisit(n *jast.Node) {
	if !jast.IsVariableReference(n) {
		return
	}
	vars := v.s.Variables
	decl := vars.Declaration(n)
	if decl == nil {
		return
	}
	ref := Reference{
		Name:        jast.VariableName(n),
		At:          At(n),
		Declaration: At(decl),
		Last:        At(vars.LastAssignment(n)),
	}
	for _, a := range vars.Assignments(n) {
		ref.Assignments = append(ref.Assignments, *At(a))
	}
	if final := vars.FinalExpression(n); final != nil && final != n {
		ref.Final = At(final)
	}
	v.r.References = append(v.r.References, ref)
}

func (r *VariablesReport) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("%s\n", r.Path)
	for _, ref := range r.References {
		ew.printf("  %-16s line %-4d declared at %d, last written by %s\n",
			ref.Name, ref.At.Line, ref.Declaration.Line, ref.Last)
		if ref.Final != nil {
			ew.printf("  %-16s = %s\n", "", ref.Final.Source)
		}
	}
	return ew.err
}
