package report

import (
	"fmt"
	"io"

	"github.com/l3aro/go-java-flow/pkg/analysis"
	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/value"
)

// ValuesReport lists the tracked values of the expressions reached by the
// flow.
type ValuesReport struct {
	Session string       `json:"session" yaml:"session"`
	Path    string       `json:"path" yaml:"path"`
	Values  []ValueEntry `json:"values" yaml:"values"`
}

// ValueEntry is the value of one expression. Origin is the expression that
// produced the value, Object its evaluation when requested.
type ValueEntry struct {
	At     *Location `json:"at" yaml:"at"`
	Origin *Location `json:"origin" yaml:"origin"`
	Object string    `json:"object,omitempty" yaml:"object,omitempty"`
	Error  string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// ValuesOption configures Values.
type ValuesOption func(*valuesVisitor)

// WithObjects evaluates every variable reference and records the result.
func WithObjects() ValuesOption {
	return func(v *valuesVisitor) {
		v.evaluate = true
	}
}

// Values walks s and records the value of every variable reference and
// local method invocation it reaches.
func Values(s *analysis.Session, opts ...ValuesOption) *ValuesReport {
	r := &ValuesReport{Session: s.ID, Path: s.Unit.Path}
	v := &valuesVisitor{s: s, r: r}
	for _, opt := range opts {
		opt(v)
	}
	s.Walk(v)
	return r
}

type valuesVisitor struct {
	flow.BaseVisitor
	s        *analysis.Session
	r        *ValuesReport
	evaluate bool
}

func (v *valuesVisitor) EndVisit(n *jast.Node) {
	tracked := jast.IsVariableReference(n) ||
		(n.Kind == jast.KindMethodInvocation && jast.LocalMethod(n) != nil)
	if !tracked {
		return
	}
	val := v.s.Values.Value(n)
	if val == nil {
		return
	}
	e := ValueEntry{At: At(n), Origin: At(val.Expression())}
	if v.evaluate && n.Kind != jast.KindMethodInvocation {
		e.Object, e.Error = v.objectOf(n, val)
	}
	v.r.Values = append(v.r.Values, e)
}

func (v *valuesVisitor) objectOf(n *jast.Node, val *value.Expression) (string, string) {
	if val.HasObject() {
		return describe(val.Object()), ""
	}
	obj, err := v.s.Evaluate(n)
	if err != nil {
		return "", err.Error()
	}
	return describe(obj), ""
}

func describe(obj any) string {
	switch o := obj.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", o)
	}
	return fmt.Sprintf("%v", obj)
}

func (r *ValuesReport) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("%s\n", r.Path)
	for _, e := range r.Values {
		ew.printf("  %4d  %-20s <- %s", e.At.Line, e.At.Source, e.Origin)
		switch {
		case e.Error != "":
			ew.printf("  !! %s", e.Error)
		case e.Object != "":
			ew.printf("  = %s", e.Object)
		}
		ew.printf("\n")
	}
	return ew.err
}
